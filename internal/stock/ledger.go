// Package stock guards product variant stock counts. All mutations go through
// Reserve and Commit inside one database transaction so a count can never be
// driven below zero by concurrent checkouts.
package stock

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/victusstore/backend/pkg/db/models"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
)

// Demand is one variant's requested quantity.
type Demand struct {
	VariantID int64
	Quantity  int
}

// Reserve locks the demanded variant rows FOR UPDATE and validates that each
// holds enough stock. Rows are locked one at a time in ascending variant id
// order so two overlapping checkouts always acquire locks in the same
// sequence. The returned map holds the locked rows keyed by variant id; they
// stay locked until the surrounding transaction ends.
func Reserve(ctx context.Context, tx *gorm.DB, demands []Demand) (map[int64]*models.ProductVariant, error) {
	merged, err := mergeDemands(demands)
	if err != nil {
		return nil, err
	}

	locked := make(map[int64]*models.ProductVariant, len(merged))
	for _, demand := range merged {
		variant := &models.ProductVariant{}
		err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Product").
			Where("variant_id = ?", demand.VariantID).
			Take(variant).Error
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found").
				WithDetails(map[string]any{"variant_id": demand.VariantID})
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking product variant")
		}
		if !variant.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant is not available").
				WithDetails(map[string]any{"variant_id": demand.VariantID})
		}
		if variant.StockQuantity < demand.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for variant").
				WithDetails(map[string]any{
					"variant_id": demand.VariantID,
					"available":  variant.StockQuantity,
					"requested":  demand.Quantity,
				})
		}
		locked[demand.VariantID] = variant
	}
	return locked, nil
}

// Commit decrements stock for rows previously locked by Reserve in the same
// transaction. Callers must pass the same demands; the decrement reuses the
// held locks, so no re-validation race is possible.
func Commit(ctx context.Context, tx *gorm.DB, demands []Demand) error {
	merged, err := mergeDemands(demands)
	if err != nil {
		return err
	}

	for _, demand := range merged {
		result := tx.WithContext(ctx).
			Model(&models.ProductVariant{}).
			Where("variant_id = ? AND stock_quantity >= ?", demand.VariantID, demand.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", demand.Quantity))
		if result.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, result.Error, "decrementing stock")
		}
		if result.RowsAffected == 0 {
			// Unreachable when Reserve ran in this transaction; kept as a
			// hard stop against ever writing a negative count.
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for variant").
				WithDetails(map[string]any{"variant_id": demand.VariantID, "requested": demand.Quantity})
		}
	}
	return nil
}

// mergeDemands validates quantities, sums duplicates per variant, and returns
// the demands sorted by ascending variant id.
func mergeDemands(demands []Demand) ([]Demand, error) {
	if len(demands) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one demand is required")
	}

	byVariant := make(map[int64]int, len(demands))
	for _, demand := range demands {
		if demand.VariantID <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id must be positive")
		}
		if demand.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "demand quantity must be positive").
				WithDetails(map[string]any{"variant_id": demand.VariantID})
		}
		byVariant[demand.VariantID] += demand.Quantity
	}

	merged := make([]Demand, 0, len(byVariant))
	for variantID, qty := range byVariant {
		merged = append(merged, Demand{VariantID: variantID, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].VariantID < merged[j].VariantID })
	return merged, nil
}
