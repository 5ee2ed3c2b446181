package orders

import (
	"context"

	"github.com/victusstore/backend/pkg/db/models"
)

// Service exposes order read operations.
type Service struct {
	repo Repository
}

// NewService wires the order read service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := toResponse(order)
	return &response, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]OrderResponse, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

func (s *Service) ListOrdersByEmail(ctx context.Context, email string) ([]OrderResponse, error) {
	list, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

func toResponses(list []models.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(list))
	for i := range list {
		responses = append(responses, toResponse(&list[i]))
	}
	return responses
}

func toResponse(order *models.Order) OrderResponse {
	items := make([]OrderItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		item := OrderItem{
			VariantID:   line.VariantID,
			Quantity:    line.Quantity,
			PriceAtTime: line.PriceAtTime.StringFixed(2),
		}
		if line.Variant != nil {
			item.Color = line.Variant.Color
			item.Size = line.Variant.Size
			if line.Variant.Product != nil {
				item.ProductName = line.Variant.Product.ProductName
			}
		}
		items = append(items, item)
	}
	return OrderResponse{
		OrderID:       order.ID,
		Email:         order.Email,
		Address:       order.Address,
		PhoneNum:      order.PhoneNum,
		TotalPrice:    order.TotalPrice.StringFixed(2),
		OrderStatus:   string(order.OrderStatus),
		PaymentStatus: string(order.PaymentStatus),
		PaymentMethod: order.PaymentMethod,
		OrderDate:     order.OrderDate,
		Items:         items,
	}
}
