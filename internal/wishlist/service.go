// Package wishlist manages the saved-for-later courses of the acting user.
package wishlist

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

const courseJoin = "Course"

// Service exposes wishlist operations. Every call requires an authenticated user.
type Service interface {
	List(ctx context.Context) ([]models.WishlistItem, error)
	Add(ctx context.Context, courseID uuid.UUID) (*models.WishlistItem, error)
	Remove(ctx context.Context, courseID uuid.UUID) error
}

type ServiceParams struct {
	Auth   dataservice.Auth
	Tables dataservice.Tables
}

type service struct {
	auth   dataservice.Auth
	tables dataservice.Tables
}

func NewService(params ServiceParams) (Service, error) {
	if params.Auth == nil {
		return nil, fmt.Errorf("auth client is required")
	}
	if params.Tables == nil {
		return nil, fmt.Errorf("tables client is required")
	}
	return &service{auth: params.Auth, tables: params.Tables}, nil
}

// List returns the user's wishlist rows with course data joined.
func (s *service) List(ctx context.Context) ([]models.WishlistItem, error) {
	user, err := dataservice.RequireUser(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	q := dataservice.From(dataservice.TableWishlist).
		Where(dataservice.Eq("user_id", user.ID)).
		OrderBy("created_at", true).
		Join(courseJoin)
	items := []models.WishlistItem{}
	if err := s.tables.Select(ctx, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Add saves courseID and returns the new row joined with its course.
func (s *service) Add(ctx context.Context, courseID uuid.UUID) (*models.WishlistItem, error) {
	user, err := dataservice.RequireUser(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	if courseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}

	row := &models.WishlistItem{UserID: user.ID, CourseID: courseID}
	if err := s.tables.Insert(ctx, dataservice.TableWishlist, row); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "course is already in the wishlist")
		}
		return nil, err
	}

	var created models.WishlistItem
	q := dataservice.From(dataservice.TableWishlist).
		Where(dataservice.Eq("id", row.ID)).
		Join(courseJoin).
		One()
	if err := s.tables.Select(ctx, q, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Remove deletes the (user, course) row. Missing rows are not an error.
func (s *service) Remove(ctx context.Context, courseID uuid.UUID) error {
	user, err := dataservice.RequireUser(ctx, s.auth)
	if err != nil {
		return err
	}
	if courseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	return s.tables.Delete(ctx, dataservice.TableWishlist, []dataservice.Filter{
		dataservice.Eq("user_id", user.ID),
		dataservice.Eq("course_id", courseID),
	})
}
