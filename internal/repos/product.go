package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/KohHuiLyn/spm-project/internal/logger"
	"github.com/KohHuiLyn/spm-project/internal/types"
)

type ProductRepo interface {
	GetByProductID(ctx context.Context, tx *gorm.DB, productID string) (*types.Product, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	repoLog := baseLog.With("repo", "ProductRepo")
	return &productRepo{db: db, log: repoLog}
}

func (r *productRepo) GetByProductID(ctx context.Context, tx *gorm.DB, productID string) (*types.Product, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if productID == "" {
		return nil, nil
	}

	var product types.Product
	err := transaction.WithContext(ctx).
		Where("product_id = ?", productID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}
