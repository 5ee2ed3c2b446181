// Package orders persists and reads completed orders.
package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/victusstore/backend/pkg/db/models"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
)

// Repository manages persistence for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	AttachLines(ctx context.Context, cartID, orderID int64) (int64, error)
	FindByID(ctx context.Context, orderID int64) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return nil
}

// AttachLines moves the cart's unattached lines onto the order by flipping
// their order_id in place. Returns the number of lines moved.
func (r *repository) AttachLines(ctx context.Context, cartID, orderID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("cart_id = ? AND order_id IS NULL", cartID).
		Update("order_id", orderID)
	if result.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "attaching cart lines to order")
	}
	return result.RowsAffected, nil
}

func (r *repository) FindByID(ctx context.Context, orderID int64) (*models.Order, error) {
	order := &models.Order{}
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Variant").
		Preload("Lines.Variant.Product").
		Where("order_id = ?", orderID).
		Take(order).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"order_id": orderID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Variant").
		Preload("Lines.Variant.Product").
		Order("order_id DESC").
		Find(&list).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func (r *repository) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	var list []models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Lines.Variant").
		Preload("Lines.Variant.Product").
		Where("email = ?", email).
		Order("order_id DESC").
		Find(&list).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders by email")
	}
	return list, nil
}
