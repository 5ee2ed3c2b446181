package stock

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/victusstore/backend/pkg/db/models"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
)

func TestReserveAndCommit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variantA := seedVariant(t, db, 5)
	variantB := seedVariant(t, db, 2)

	demands := []Demand{
		{VariantID: variantA, Quantity: 2},
		{VariantID: variantB, Quantity: 2},
		{VariantID: variantA, Quantity: 1},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, terr := Reserve(ctx, tx, demands)
		if terr != nil {
			return terr
		}
		if len(locked) != 2 {
			t.Fatalf("expected 2 locked variants, got %d", len(locked))
		}
		if locked[variantA].StockQuantity != 5 {
			t.Fatalf("reserve must not mutate stock, got %d", locked[variantA].StockQuantity)
		}
		return Commit(ctx, tx, demands)
	})
	if err != nil {
		t.Fatalf("reserve+commit transaction: %v", err)
	}

	if got := loadStock(t, db, variantA); got != 2 {
		t.Fatalf("expected variant A stock 2 after merged decrement, got %d", got)
	}
	if got := loadStock(t, db, variantB); got != 0 {
		t.Fatalf("expected variant B stock 0, got %d", got)
	}
}

func TestReserveShortfallAbortsWholeTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	plenty := seedVariant(t, db, 10)
	scarce := seedVariant(t, db, 1)

	demands := []Demand{
		{VariantID: plenty, Quantity: 3},
		{VariantID: scarce, Quantity: 2},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, terr := Reserve(ctx, tx, demands); terr != nil {
			return terr
		}
		return Commit(ctx, tx, demands)
	})
	if err == nil {
		t.Fatal("expected shortfall error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected structured details, got %T", typed.Details())
	}
	if details["variant_id"] != scarce {
		t.Fatalf("expected shortfall on scarce variant, got %v", details["variant_id"])
	}
	if details["available"] != 1 || details["requested"] != 2 {
		t.Fatalf("unexpected shortfall details: %v", details)
	}

	// Nothing may be decremented, including the variant that had stock.
	if got := loadStock(t, db, plenty); got != 10 {
		t.Fatalf("expected untouched stock 10, got %d", got)
	}
	if got := loadStock(t, db, scarce); got != 1 {
		t.Fatalf("expected untouched stock 1, got %d", got)
	}
}

func TestReserveSequentialDrainNeverGoesNegative(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variant := seedVariant(t, db, 3)

	buy := func(qty int) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if _, err := Reserve(ctx, tx, []Demand{{VariantID: variant, Quantity: qty}}); err != nil {
				return err
			}
			return Commit(ctx, tx, []Demand{{VariantID: variant, Quantity: qty}})
		})
	}

	if err := buy(2); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	err := buy(2)
	if err == nil {
		t.Fatal("expected shortfall on second purchase")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loadStock(t, db, variant); got != 1 {
		t.Fatalf("expected stock 1, got %d", got)
	}
}

func TestReserveConcurrentBuyersNeverOversell(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	variant := seedVariant(t, db, 5)

	const buyers = 10
	results := make(chan error, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- db.Transaction(func(tx *gorm.DB) error {
				if _, err := Reserve(ctx, tx, []Demand{{VariantID: variant, Quantity: 1}}); err != nil {
					return err
				}
				return Commit(ctx, tx, []Demand{{VariantID: variant, Quantity: 1}})
			})
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 5 {
		t.Fatalf("expected exactly 5 winning buyers, got %d", successes)
	}
	if got := loadStock(t, db, variant); got != 0 {
		t.Fatalf("expected stock drained to 0, got %d", got)
	}
}

func TestReserveMissingVariant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	_, err := Reserve(context.Background(), db, []Demand{{VariantID: 9999, Quantity: 1}})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveInactiveVariant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variantID := seedVariant(t, db, 5)
	if err := db.Model(&models.ProductVariant{}).
		Where("variant_id = ?", variantID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate variant: %v", err)
	}

	_, err := Reserve(context.Background(), db, []Demand{{VariantID: variantID, Quantity: 1}})
	if err == nil {
		t.Fatal("expected not found error for inactive variant")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	variantID := seedVariant(t, db, 5)

	_, err := Reserve(context.Background(), db, []Demand{{VariantID: variantID, Quantity: 0}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func seedVariant(t *testing.T, db *gorm.DB, qty int) int64 {
	t.Helper()
	product := models.Product{ProductName: "shirt", BasePrice: decimal.NewFromInt(20), IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{
		ProductID:     product.ID,
		Color:         "black",
		Size:          "M",
		StockQuantity: qty,
		Price:         decimal.NewFromInt(25),
		IsActive:      true,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func loadStock(t *testing.T, db *gorm.DB, variantID int64) int {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "variant_id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return variant.StockQuantity
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductVariant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
