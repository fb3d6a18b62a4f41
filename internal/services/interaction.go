package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KohHuiLyn/spm-project/internal/apperr"
	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/registry"
	"github.com/KohHuiLyn/spm-project/internal/repos"
	"github.com/KohHuiLyn/spm-project/internal/types"
)

type RecordInteractionInput struct {
	UserID             string
	ProductID          string
	ProductName        string
	ProductDescription string
	InteractionType    string
}

type RecordInteractionResult struct {
	InteractionCount int
	RetrainTriggered bool
}

type InteractionStats struct {
	HasPersonalizedModel       bool           `json:"hasPersonalizedModel"`
	LikeCount                  int            `json:"likeCount"`
	DislikeCount               int            `json:"dislikeCount"`
	SaveCount                  int            `json:"saveCount"`
	TotalCount                 int            `json:"totalCount"`
	InteractionsUntilNextTrain int            `json:"interactionsUntilNextTrain"`
	ModelMetadata              map[string]any `json:"modelMetadata"`
}

// InteractionService is the service boundary the swipe client reports
// through: it validates and appends interactions, then runs the retrain
// scheduler synchronously on the new total.
type InteractionService interface {
	Record(ctx context.Context, in RecordInteractionInput) (*RecordInteractionResult, error)
	// Stats never fails: when the ledger read errors it degrades to
	// zero-valued counts, since "no history yet" is a legitimate
	// low-confidence state for every caller.
	Stats(ctx context.Context, userID string) *InteractionStats
}

type interactionService struct {
	db        *gorm.DB
	log       *logger.Logger
	ledger    repos.StyleInteractionRepo
	registry  registry.ModelRegistry
	scheduler RetrainScheduler
}

func NewInteractionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ledger repos.StyleInteractionRepo,
	reg registry.ModelRegistry,
	scheduler RetrainScheduler,
) InteractionService {
	return &interactionService{
		db:        db,
		log:       baseLog.With("service", "InteractionService"),
		ledger:    ledger,
		registry:  reg,
		scheduler: scheduler,
	}
}

func (s *interactionService) Record(ctx context.Context, in RecordInteractionInput) (*RecordInteractionResult, error) {
	if in.UserID == "" || in.ProductID == "" || in.InteractionType == "" {
		return nil, apperr.Validationf("missing required fields")
	}
	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		return nil, apperr.Validationf("invalid user_id")
	}
	if !types.ValidAction(in.InteractionType) {
		return nil, apperr.Validationf("invalid interaction type")
	}

	interaction := &types.StyleInteraction{
		UserID:             userID,
		ProductID:          in.ProductID,
		ProductName:        in.ProductName,
		ProductDescription: in.ProductDescription,
		Action:             in.InteractionType,
		Timestamp:          time.Now().UTC(),
	}
	total, err := s.ledger.Create(ctx, s.db, interaction)
	if err != nil {
		s.log.Error("Failed to store interaction", "user_id", userID, "error", err)
		return nil, apperr.StorageUnavailable(err)
	}
	s.log.Info("Interaction recorded", "user_id", userID, "product_id", in.ProductID,
		"action", in.InteractionType, "total", total)

	triggered := s.scheduler.MaybeRetrain(ctx, userID, total)
	return &RecordInteractionResult{
		InteractionCount: total,
		RetrainTriggered: triggered,
	}, nil
}

func (s *interactionService) Stats(ctx context.Context, userIDStr string) *InteractionStats {
	hasModel := s.registry.Exists(userIDStr)
	stats := &InteractionStats{
		HasPersonalizedModel:       hasModel,
		InteractionsUntilNextTrain: s.scheduler.Threshold(),
	}
	if hasModel {
		stats.ModelMetadata = s.registry.Metadata(userIDStr)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return stats
	}
	counts, err := s.ledger.CountsByUser(ctx, s.db, userID)
	if err != nil {
		// Degrade to zero counts so the caller's UI never hard-fails here.
		s.log.Warn("Ledger read failed, returning zero-valued stats", "user_id", userID, "error", err)
		return stats
	}

	stats.LikeCount = counts.Like
	stats.DislikeCount = counts.Dislike
	stats.SaveCount = counts.Save
	stats.TotalCount = counts.Total
	stats.InteractionsUntilNextTrain = s.scheduler.InteractionsUntilNextTrain(counts.Total, hasModel)
	return stats
}
