// Package orders records purchases and lists them with their courses resolved.
package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/skillhunter-backend/pkg/db/types"
	"github.com/angelmondragon/skillhunter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
	"github.com/angelmondragon/skillhunter-backend/pkg/logger"
)

// CreateInput is the purchase being committed.
type CreateInput struct {
	CourseIDs []uuid.UUID
	Total     decimal.Decimal
}

type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
}

type ServiceParams struct {
	Auth   dataservice.Auth
	Tables dataservice.Tables
	Logger *logger.Logger
}

type service struct {
	auth   dataservice.Auth
	tables dataservice.Tables
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Auth == nil {
		return nil, fmt.Errorf("auth client is required")
	}
	if params.Tables == nil {
		return nil, fmt.Errorf("tables client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{auth: params.Auth, tables: params.Tables, logg: params.Logger}, nil
}

// Create writes a paid order owned by the acting user. Payment capture happens
// before this call.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	user, err := dataservice.RequireUser(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	if input.Total.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be non-negative")
	}

	order := &models.Order{
		UserID:    user.ID,
		CourseIDs: dbtypes.UUIDArray(append([]uuid.UUID{}, input.CourseIDs...)),
		Total:     input.Total,
		Status:    enums.OrderStatusPaid,
	}
	if err := s.tables.Insert(ctx, dataservice.TableOrders, order); err != nil {
		return nil, err
	}
	order.Courses = []models.Course{}
	return order, nil
}

// List returns the acting user's orders, newest first. Each order's courses are
// fetched separately; a failed fetch leaves that order with no courses.
func (s *service) List(ctx context.Context) ([]models.Order, error) {
	user, err := dataservice.RequireUser(ctx, s.auth)
	if err != nil {
		return nil, err
	}

	q := dataservice.From(dataservice.TableOrders).
		Where(dataservice.Eq("user_id", user.ID)).
		OrderBy("created_at", true)
	orders := []models.Order{}
	if err := s.tables.Select(ctx, q, &orders); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Courses = s.coursesFor(ctx, &orders[i])
	}
	return orders, nil
}

func (s *service) coursesFor(ctx context.Context, order *models.Order) []models.Course {
	if len(order.CourseIDs) == 0 {
		return []models.Course{}
	}
	courses := []models.Course{}
	q := dataservice.From(dataservice.TableCourses).Where(dataservice.In("id", []uuid.UUID(order.CourseIDs)))
	if err := s.tables.Select(ctx, q, &courses); err != nil {
		logCtx := s.logg.WithField(ctx, "order_id", order.ID.String())
		s.logg.Error(logCtx, "orders.course_fetch_failed", err)
		return []models.Course{}
	}
	return courses
}
