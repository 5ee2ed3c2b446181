// Package checkout turns an active cart into an order in one atomic pass:
// lock stock, price from line snapshots, create the order, decrement stock,
// reattach the lines, then remember the response under the idempotency key.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/victusstore/backend/internal/accounts"
	"github.com/victusstore/backend/internal/cart"
	"github.com/victusstore/backend/internal/idempotency"
	"github.com/victusstore/backend/internal/orders"
	"github.com/victusstore/backend/internal/stock"
	"github.com/victusstore/backend/pkg/db/models"
	"github.com/victusstore/backend/pkg/enums"
	pkgerrors "github.com/victusstore/backend/pkg/errors"
	"github.com/victusstore/backend/pkg/logger"
	"github.com/victusstore/backend/pkg/metrics"
)

const guardScope = "checkout"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type idempotencyStore interface {
	Check(ctx context.Context, key, callerEmail, endpoint, requestHash string) (json.RawMessage, error)
	Store(ctx context.Context, key, callerEmail, endpoint, requestHash string, response []byte) error
}

type inflightGuard interface {
	Acquire(ctx context.Context, scope, key string) (func(context.Context), error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, cartID int64, input Input) (json.RawMessage, bool, error)
}

type service struct {
	tx           txRunner
	cartRepo     cart.Repository
	accountsRepo accounts.Repository
	ordersRepo   orders.Repository
	idem         idempotencyStore
	guard        inflightGuard
	metrics      *metrics.CheckoutMetrics
	logg         *logger.Logger
}

// NewService builds the checkout service. Guard and idem may be nil together
// to run without idempotency (tests); metrics and logg are optional.
func NewService(
	tx txRunner,
	cartRepo cart.Repository,
	accountsRepo accounts.Repository,
	ordersRepo orders.Repository,
	idem idempotencyStore,
	guard inflightGuard,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if accountsRepo == nil {
		return nil, fmt.Errorf("accounts repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:           tx,
		cartRepo:     cartRepo,
		accountsRepo: accountsRepo,
		ordersRepo:   ordersRepo,
		idem:         idem,
		guard:        guard,
		metrics:      checkoutMetrics,
		logg:         logg,
	}, nil
}

// Execute runs the checkout for cartID. The returned payload is the exact
// response body; the bool reports whether it was replayed from a stored
// idempotency record.
func (s *service) Execute(ctx context.Context, cartID int64, input Input) (json.RawMessage, bool, error) {
	started := time.Now()
	payload, replayed, err := s.execute(ctx, cartID, input)
	s.metrics.ObserveDuration(time.Since(started))
	switch {
	case err != nil:
		s.metrics.IncOutcome(outcomeLabel(err))
	case replayed:
		s.metrics.IncOutcome("success")
		s.metrics.IncReplay()
	default:
		s.metrics.IncOutcome("success")
	}
	return payload, replayed, err
}

func (s *service) execute(ctx context.Context, cartID int64, input Input) (json.RawMessage, bool, error) {
	if cartID <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "cart id must be positive")
	}
	if input.Address == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	orderStatus, paymentStatus, err := resolveStatuses(input)
	if err != nil {
		return nil, false, err
	}

	basket, err := s.cartRepo.FindByID(ctx, cartID)
	if err != nil {
		return nil, false, err
	}
	caller := basket.Email
	if s.logg != nil {
		ctx = s.logg.WithCartID(s.logg.WithCallerEmail(ctx, caller), cartID)
	}

	endpoint := fmt.Sprintf("POST /api/v1/checkout/%d", cartID)
	requestHash := hashRequest(input)

	if input.IdempotencyKey != "" && s.idem != nil {
		if s.guard != nil {
			release, err := s.guard.Acquire(ctx, guardScope, input.IdempotencyKey)
			if err != nil {
				return nil, false, err
			}
			defer release(ctx)
		}
		replay, err := s.idem.Check(ctx, input.IdempotencyKey, caller, endpoint, requestHash)
		if err != nil {
			return nil, false, err
		}
		if replay != nil {
			if s.logg != nil {
				s.logg.Info(ctx, "checkout replayed from idempotency record")
			}
			return replay, true, nil
		}
	}

	var response *Response
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		accountsRepo := s.accountsRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		lines, err := cartRepo.FindLines(ctx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart has no purchasable lines").
				WithDetails(map[string]any{"cart_id": cartID})
		}

		account, err := accountsRepo.FindByEmail(ctx, caller)
		if err != nil {
			return err
		}
		phone, err := resolvePhone(input, account)
		if err != nil {
			return err
		}

		demands := make([]stock.Demand, 0, len(lines))
		for _, line := range lines {
			demands = append(demands, stock.Demand{VariantID: line.VariantID, Quantity: line.Quantity})
		}
		locked, err := stock.Reserve(ctx, tx, demands)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range lines {
			total = total.Add(line.PriceAtTime.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}

		order := &models.Order{
			Email:         caller,
			Address:       input.Address,
			PhoneNum:      phone,
			TotalPrice:    total,
			OrderStatus:   orderStatus,
			PaymentStatus: paymentStatus,
			PaymentMethod: input.PaymentMethod,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}

		if err := stock.Commit(ctx, tx, demands); err != nil {
			return err
		}

		moved, err := ordersRepo.AttachLines(ctx, cartID, order.ID)
		if err != nil {
			return err
		}
		if moved != int64(len(lines)) {
			return pkgerrors.New(pkgerrors.CodeInternal, "cart lines changed during checkout")
		}

		if input.clearCart() {
			if err := cartRepo.Deactivate(ctx, cartID); err != nil {
				return err
			}
		}

		response = buildResponse(order, lines, locked)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding checkout response")
	}

	if input.IdempotencyKey != "" && s.idem != nil {
		// Best effort: the order is committed, a failed store only costs replay.
		if err := s.idem.Store(ctx, input.IdempotencyKey, caller, endpoint, requestHash, payload); err != nil && s.logg != nil {
			s.logg.Error(ctx, "storing idempotency record failed", err)
		}
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, response.OrderID), "checkout completed")
	}
	return payload, false, nil
}

func hashRequest(input Input) string {
	return idempotency.HashRequest(input.canonicalJSON())
}

func resolveStatuses(input Input) (enums.OrderStatus, enums.PaymentStatus, error) {
	orderStatus := enums.OrderStatusPending
	if input.OrderStatus != nil {
		orderStatus = enums.OrderStatus(*input.OrderStatus)
		if !orderStatus.IsValid() {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
				WithDetails(map[string]any{"order_status": *input.OrderStatus})
		}
	}
	paymentStatus := enums.PaymentStatusPending
	if input.PaymentStatus != nil {
		paymentStatus = enums.PaymentStatus(*input.PaymentStatus)
		if !paymentStatus.IsValid() {
			return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status").
				WithDetails(map[string]any{"payment_status": *input.PaymentStatus})
		}
	}
	return orderStatus, paymentStatus, nil
}

func resolvePhone(input Input, account *models.Account) (string, error) {
	if input.Phone != nil && *input.Phone != "" {
		return *input.Phone, nil
	}
	if account.PhoneNum != nil && *account.PhoneNum != "" {
		return *account.PhoneNum, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "phone number required: none on request or account")
}

func buildResponse(order *models.Order, lines []models.CartLine, locked map[int64]*models.ProductVariant) *Response {
	items := make([]orders.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := orders.OrderItem{
			VariantID:   line.VariantID,
			Quantity:    line.Quantity,
			PriceAtTime: line.PriceAtTime.StringFixed(2),
		}
		if variant, ok := locked[line.VariantID]; ok {
			item.Color = variant.Color
			item.Size = variant.Size
			if variant.Product != nil {
				item.ProductName = variant.Product.ProductName
			}
		}
		items = append(items, item)
	}
	return &Response{
		OrderID:       order.ID,
		TotalPrice:    order.TotalPrice.StringFixed(2),
		OrderStatus:   string(order.OrderStatus),
		PaymentStatus: string(order.PaymentStatus),
		OrderItems:    items,
	}
}

func outcomeLabel(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "internal_error"
	}
	switch typed.Code() {
	case pkgerrors.CodeInsufficientStock:
		return "insufficient_stock"
	case pkgerrors.CodeEmptyCart:
		return "empty_cart"
	case pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeIdempotency:
		return "idempotency_conflict"
	case pkgerrors.CodeContention:
		return "contention"
	case pkgerrors.CodeValidation:
		return "validation"
	default:
		return "internal_error"
	}
}
