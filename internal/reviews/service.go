// Package reviews lists and records course reviews.
package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

const profileJoin = "Profile"

// CreateInput is what a reviewer submits. The author is always the acting user.
type CreateInput struct {
	CourseID uuid.UUID
	Rating   int
	Comment  string
}

type Service interface {
	List(ctx context.Context, courseID uuid.UUID) ([]models.Review, error)
	Create(ctx context.Context, input CreateInput) (*models.Review, error)
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

// List returns the reviews of a course, newest first, with reviewer names.
func (s *service) List(ctx context.Context, courseID uuid.UUID) ([]models.Review, error) {
	if courseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	q := dataservice.From(dataservice.TableReviews).
		Where(dataservice.Eq("course_id", courseID)).
		OrderBy("created_at", true).
		Join(profileJoin)
	reviews := []models.Review{}
	if err := s.tables.Select(ctx, q, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Create stores a review authored by the acting user and returns it with the
// reviewer's profile joined.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Review, error) {
	user, err := dataservice.RequireUser(ctx, s.auth)
	if err != nil {
		return nil, err
	}
	if input.CourseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}

	row := &models.Review{
		CourseID: input.CourseID,
		UserID:   user.ID,
		Rating:   input.Rating,
		Comment:  input.Comment,
	}
	if err := s.tables.Insert(ctx, dataservice.TableReviews, row); err != nil {
		return nil, err
	}

	var created models.Review
	q := dataservice.From(dataservice.TableReviews).
		Where(dataservice.Eq("id", row.ID)).
		Join(profileJoin).
		One()
	if err := s.tables.Select(ctx, q, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
