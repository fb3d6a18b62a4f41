package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/types"
)

type StyleInteractionRepo interface {
	// Create appends one interaction and returns the user's new cumulative
	// count across all action types.
	Create(ctx context.Context, tx *gorm.DB, interaction *types.StyleInteraction) (int, error)
	CountsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (types.InteractionCounts, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StyleInteraction, error)
	// DescriptionsByUser groups product descriptions by action, falling back
	// to the product name when the description is empty.
	DescriptionsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (types.ActionDescriptions, error)
}

type styleInteractionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStyleInteractionRepo(db *gorm.DB, baseLog *logger.Logger) StyleInteractionRepo {
	repoLog := baseLog.With("repo", "StyleInteractionRepo")
	return &styleInteractionRepo{db: db, log: repoLog}
}

func (r *styleInteractionRepo) Create(ctx context.Context, tx *gorm.DB, interaction *types.StyleInteraction) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(interaction).Error; err != nil {
		return 0, err
	}

	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.StyleInteraction{}).
		Where("user_id = ?", interaction.UserID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *styleInteractionRepo) CountsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (types.InteractionCounts, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var counts types.InteractionCounts
	if userID == uuid.Nil {
		return counts, nil
	}

	type row struct {
		Action string
		N      int
	}
	var rows []row
	if err := transaction.WithContext(ctx).
		Model(&types.StyleInteraction{}).
		Select("action, count(*) as n").
		Where("user_id = ?", userID).
		Group("action").
		Scan(&rows).Error; err != nil {
		return types.InteractionCounts{}, err
	}

	for _, rw := range rows {
		switch rw.Action {
		case types.ActionLike:
			counts.Like += rw.N
		case types.ActionDislike:
			counts.Dislike += rw.N
		case types.ActionSave:
			// A save implies a like for counting purposes.
			counts.Save += rw.N
			counts.Like += rw.N
		}
		counts.Total += rw.N
	}
	return counts, nil
}

func (r *styleInteractionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StyleInteraction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StyleInteraction
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *styleInteractionRepo) DescriptionsByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (types.ActionDescriptions, error) {
	interactions, err := r.GetByUserID(ctx, tx, userID)
	if err != nil {
		return types.ActionDescriptions{}, err
	}

	var out types.ActionDescriptions
	for _, it := range interactions {
		text := it.ProductDescription
		if text == "" {
			text = it.ProductName
		}
		if text == "" {
			continue
		}
		switch it.Action {
		case types.ActionLike:
			out.Liked = append(out.Liked, text)
		case types.ActionDislike:
			out.Disliked = append(out.Disliked, text)
		case types.ActionSave:
			out.Saved = append(out.Saved, text)
		}
	}
	return out, nil
}
