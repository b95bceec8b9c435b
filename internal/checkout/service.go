// Package checkout turns the device cart into a paid order.
package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/skillhunter-backend/internal/cart"
	"github.com/angelmondragon/skillhunter-backend/internal/orders"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

type cartReader interface {
	Items() []cart.Item
	Clear(ctx context.Context) error
}

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateInput) (*models.Order, error)
}

// Service executes checkout for one device.
type Service interface {
	Execute(ctx context.Context) (*models.Order, error)
}

type ServiceParams struct {
	Cart   cartReader
	Orders orderCreator
	Logger *logger.Logger
}

type service struct {
	cart   cartReader
	orders orderCreator
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{cart: params.Cart, orders: params.Orders, logg: params.Logger}, nil
}

// Execute records the cart as a paid order and then empties the cart. Ids and
// total come from one snapshot of the items. The order stands even if clearing
// the cart fails.
func (s *service) Execute(ctx context.Context) (*models.Order, error) {
	items := s.cart.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Course.ID)
	}

	order, err := s.orders.Create(ctx, orders.CreateInput{CourseIDs: ids, Total: cart.Total(items)})
	if err != nil {
		return nil, err
	}

	if err := s.cart.Clear(ctx); err != nil {
		s.logg.WarnErr(s.logg.WithField(ctx, "order_id", order.ID.String()), "checkout.cart_clear_failed", err)
	}
	return order, nil
}
