package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/registry"
	"github.com/KohHuiLyn/spm-project/internal/repos"
	"github.com/KohHuiLyn/spm-project/internal/types"
)

var ErrProductNotFound = errors.New("product not found")

type RecommendationQuery struct {
	UserID      string
	ProductID   string
	Limit       int
	Preferences []string
	Materials   []string
}

// RecommendationMeta travels with every recommendation response so clients
// can tell personalized results from profile-derived ones. is_personalized
// reflects the model registry only; declared preferences without a trained
// model stay non-personalized, and a model trained from synthetic data is
// personalized even with no declared preferences.
type RecommendationMeta struct {
	IsPersonalized  bool     `json:"is_personalized"`
	ModelPath       *string  `json:"model_path"`
	UserPreferences []string `json:"user_preferences"`
	UserMaterials   []string `json:"user_materials"`
	Timestamp       int64    `json:"timestamp"`
}

type RecommendationEnvelope struct {
	Payload map[string]any
	Meta    RecommendationMeta
}

// EmptyResultError reports that the recommender ran but produced nothing to
// serve; there is no fallback data, so callers surface it with the meta block.
type EmptyResultError struct {
	Meta RecommendationMeta
}

func (e *EmptyResultError) Error() string {
	return "the style recommender model did not return any recommendations"
}

// RecommendationService merges catalog data, parsed preference signal and
// registry state into one envelope, triggering a bootstrap training run on
// the side when a user has declared preferences but no model yet.
type RecommendationService interface {
	Recommend(ctx context.Context, q RecommendationQuery) (*RecommendationEnvelope, error)
}

type recommendationService struct {
	db        *gorm.DB
	log       *logger.Logger
	products  repos.ProductRepo
	profiles  repos.ProfileRepo
	registry  registry.ModelRegistry
	scheduler RetrainScheduler
	pythonBin string
	script    string
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	products repos.ProductRepo,
	profiles repos.ProfileRepo,
	reg registry.ModelRegistry,
	scheduler RetrainScheduler,
	pythonBin, scriptPath string,
) RecommendationService {
	return &recommendationService{
		db:        db,
		log:       baseLog.With("service", "RecommendationService"),
		products:  products,
		profiles:  profiles,
		registry:  reg,
		scheduler: scheduler,
		pythonBin: pythonBin,
		script:    scriptPath,
	}
}

func (s *recommendationService) Recommend(ctx context.Context, q RecommendationQuery) (*RecommendationEnvelope, error) {
	if q.UserID == "" && q.ProductID == "" {
		return nil, apperr.Validationf("missing either product_id or user_id")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}

	hasModel := s.registry.Exists(q.UserID)

	var profile *types.Profile
	if q.UserID != "" && (len(q.Preferences) == 0 || len(q.Materials) == 0) {
		profile = s.loadProfile(ctx, q.UserID)
	}

	preferences := q.Preferences
	if len(preferences) == 0 && profile != nil {
		preferences = decodeStringList(s.log, "styles", profile.Styles)
	}
	materials := q.Materials
	if len(materials) == 0 && profile != nil {
		materials = decodeStringList(s.log, "materials", profile.Materials)
	}

	// A user with usable preference signal but no artifact gets a training
	// run kicked off on the side. The response is served from the
	// non-personalized path without waiting on it.
	if !hasModel && q.UserID != "" && len(preferences) > 0 {
		if userID, err := uuid.Parse(q.UserID); err == nil {
			if _, started := s.scheduler.StartFromPreferences(userID, preferences); started {
				s.log.Info("Bootstrap training triggered from declared preferences", "user_id", q.UserID)
			}
		}
	}

	var product *types.Product
	if q.ProductID != "" {
		var err error
		product, err = s.products.GetByProductID(ctx, s.db, q.ProductID)
		if err != nil {
			return nil, apperr.StorageUnavailable(fmt.Errorf("fetch product: %w", err))
		}
		if product == nil {
			return nil, ErrProductNotFound
		}
	}

	meta := RecommendationMeta{
		IsPersonalized:  hasModel,
		UserPreferences: emptyIfNil(preferences),
		UserMaterials:   emptyIfNil(materials),
		Timestamp:       time.Now().UnixMilli(),
	}
	if hasModel {
		p := s.registry.ArtifactPath(q.UserID)
		meta.ModelPath = &p
	}

	payload, err := s.runRecommender(ctx, q, product, preferences, materials)
	if err != nil {
		return nil, err
	}

	if !hasRecommendations(payload) {
		s.log.Warn("No recommendations returned from the model", "user_id", q.UserID, "product_id", q.ProductID)
		return nil, &EmptyResultError{Meta: meta}
	}
	return &RecommendationEnvelope{Payload: payload, Meta: meta}, nil
}

func (s *recommendationService) loadProfile(ctx context.Context, userIDStr string) *types.Profile {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	profile, err := s.profiles.GetByUserID(ctx, s.db, userID)
	if err != nil {
		s.log.Warn("Could not fetch user profile", "user_id", userIDStr, "error", err)
		return nil
	}
	return profile
}

func (s *recommendationService) runRecommender(
	ctx context.Context,
	q RecommendationQuery,
	product *types.Product,
	preferences, materials []string,
) (map[string]any, error) {
	args := []string{s.script, "--limit", strconv.Itoa(q.Limit)}
	if product != nil {
		b, err := json.Marshal(product)
		if err != nil {
			return nil, fmt.Errorf("encode product data: %w", err)
		}
		args = append(args, "--product_data", string(b))
	}
	if len(preferences) > 0 {
		b, _ := json.Marshal(preferences)
		args = append(args, "--user_preferences", string(b))
	}
	if len(materials) > 0 {
		b, _ := json.Marshal(materials)
		args = append(args, "--user_materials", string(b))
	}
	if q.UserID != "" {
		// The script loads the personalized model itself when one exists.
		args = append(args, "--user_id", q.UserID)
	}

	cmd := exec.CommandContext(ctx, s.pythonBin, args...)
	cmd.Env = os.Environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if stderr.Len() > 0 {
		s.log.Debug("Recommender diagnostics", "stderr", stderr.String())
	}

	// Diagnostics on stderr or a non-zero exit do not disqualify the run;
	// only an unparseable result channel does.
	result := strings.TrimSpace(stdout.String())
	if result == "" || !strings.HasPrefix(result, "{") {
		if runErr != nil {
			return nil, apperr.MalformedOutput(fmt.Errorf("recommender failed: %v: %s", runErr, strings.TrimSpace(stderr.String())))
		}
		return nil, apperr.MalformedOutput(fmt.Errorf("recommender produced no parseable output"))
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(result), &payload); err != nil {
		return nil, apperr.MalformedOutput(fmt.Errorf("decode recommender output: %w", err))
	}
	return payload, nil
}

// decodeStringList rejects malformed preference JSON outright instead of
// attempting textual repair.
func decodeStringList(log *logger.Logger, field string, raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Warn("Stored preference list is malformed, ignoring", "field", field, "error", err)
		return nil
	}
	return out
}

func hasRecommendations(payload map[string]any) bool {
	list, ok := payload["recommendations"].([]any)
	return ok && len(list) > 0
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
