// Package cart provides access to shopping carts and their lines.
package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/victusstore/backend/pkg/db/models"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
)

// Repository manages persistence for carts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, cartID int64) (*models.Cart, error)
	FindLines(ctx context.Context, cartID int64) ([]models.CartLine, error)
	Deactivate(ctx context.Context, cartID int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, cartID int64) (*models.Cart, error) {
	cart := &models.Cart{}
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Take(cart).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found").
			WithDetails(map[string]any{"cart_id": cartID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return cart, nil
}

// FindLines returns the cart's lines that are not yet attached to an order,
// with variant and product preloaded for display.
func (r *repository) FindLines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Variant").
		Preload("Variant.Product").
		Where("cart_id = ? AND order_id IS NULL", cartID).
		Order("id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart lines")
	}
	return lines, nil
}

func (r *repository) Deactivate(ctx context.Context, cartID int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("cart_id = ?", cartID).
		Update("is_active", false).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deactivating cart")
	}
	return nil
}
