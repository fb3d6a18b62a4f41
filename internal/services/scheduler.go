package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/registry"
	"github.com/KohHuiLyn/spm-project/internal/repos"
	"github.com/KohHuiLyn/spm-project/internal/training"
)

// DefaultRetrainThreshold is a development cadence; production deployments
// override it with RETRAIN_THRESHOLD.
const DefaultRetrainThreshold = 2

// RetrainScheduler decides, after each recorded interaction, whether the
// user's model should be rebuilt, and fires the training runner when it
// should. The cadence is fixed: first retrain once the threshold is met,
// then one every threshold interactions after that.
type RetrainScheduler interface {
	// MaybeRetrain applies the cadence rule for a user whose ledger total is
	// now total. It returns true only when a training run was actually
	// started; triggers that land while a run is in flight are dropped.
	MaybeRetrain(ctx context.Context, userID uuid.UUID, total int) bool
	// StartFromPreferences launches a run seeded from declared style
	// preferences instead of ledger history (the aggregator's bootstrap path).
	StartFromPreferences(userID uuid.UUID, styles []string) (*training.Handle, bool)
	Threshold() int
	// InteractionsUntilNextTrain mirrors the cadence for the stats endpoint.
	InteractionsUntilNextTrain(total int, hasModel bool) int
}

type retrainScheduler struct {
	db        *gorm.DB
	log       *logger.Logger
	ledger    repos.StyleInteractionRepo
	registry  registry.ModelRegistry
	runner    *training.Runner
	threshold int
}

func NewRetrainScheduler(
	db *gorm.DB,
	baseLog *logger.Logger,
	ledger repos.StyleInteractionRepo,
	reg registry.ModelRegistry,
	runner *training.Runner,
	threshold int,
) RetrainScheduler {
	if threshold <= 0 {
		threshold = DefaultRetrainThreshold
	}
	return &retrainScheduler{
		db:        db,
		log:       baseLog.With("service", "RetrainScheduler"),
		ledger:    ledger,
		registry:  reg,
		runner:    runner,
		threshold: threshold,
	}
}

func (s *retrainScheduler) Threshold() int { return s.threshold }

func (s *retrainScheduler) shouldRetrain(total int, hasModel bool) bool {
	if total < s.threshold {
		return false
	}
	return !hasModel || total%s.threshold == 0
}

func (s *retrainScheduler) InteractionsUntilNextTrain(total int, hasModel bool) int {
	if hasModel {
		return s.threshold - total%s.threshold
	}
	if remaining := s.threshold - total; remaining > 0 {
		return remaining
	}
	return 0
}

func (s *retrainScheduler) MaybeRetrain(ctx context.Context, userID uuid.UUID, total int) bool {
	hasModel := s.registry.Exists(userID.String())
	if !s.shouldRetrain(total, hasModel) {
		return false
	}

	descriptions, err := s.ledger.DescriptionsByUser(ctx, s.db, userID)
	if err != nil {
		// History unreadable right now; the next qualifying interaction
		// re-evaluates against the then-current count.
		s.log.Warn("Could not build training snapshot, skipping retrain", "user_id", userID, "error", err)
		return false
	}

	_, started, err := s.runner.Start(userID.String(), descriptions.Liked, descriptions.Disliked, descriptions.Saved)
	if err != nil {
		s.log.Warn("Retrain start failed", "user_id", userID, "error", err)
		return false
	}
	if !started {
		s.log.Debug("Retrain condition met but a run is in flight, dropping", "user_id", userID, "total", total)
		return false
	}
	s.log.Info("Retrain triggered", "user_id", userID, "total", total, "threshold", s.threshold)
	return true
}

func (s *retrainScheduler) StartFromPreferences(userID uuid.UUID, styles []string) (*training.Handle, bool) {
	if len(styles) == 0 {
		return nil, false
	}
	h, started, err := s.runner.Start(userID.String(), styles, nil, nil)
	if err != nil {
		s.log.Warn("Preference-seeded training start failed", "user_id", userID, "error", err)
		return nil, false
	}
	return h, started
}
