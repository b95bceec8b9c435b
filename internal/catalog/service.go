// Package catalog reads and writes course records through the data service.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

const (
	// SuggestLimit caps autocomplete results.
	SuggestLimit = 5
	// MinSuggestLength is the shortest trimmed term that reaches the backend.
	MinSuggestLength = 2

	searchColumn = "search_vector"

	defaultRating   = 4.5
	defaultStudents = 0
)

// Service exposes the course half of the catalog query layer.
type Service interface {
	List(ctx context.Context) ([]models.Course, error)
	Search(ctx context.Context, term string) ([]models.Course, error)
	Suggest(ctx context.Context, term string) ([]models.Course, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Course, error)
	Create(ctx context.Context, input CourseInput) (*models.Course, error)
	Update(ctx context.Context, id uuid.UUID, patch CoursePatch) (*models.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	tables dataservice.Tables
}

func NewService(tables dataservice.Tables) (Service, error) {
	if tables == nil {
		return nil, fmt.Errorf("tables client is required")
	}
	return &service{tables: tables}, nil
}

// List returns every course, most popular first.
func (s *service) List(ctx context.Context) ([]models.Course, error) {
	return s.selectCourses(ctx, popular(dataservice.From(dataservice.TableCourses)))
}

// Search requires every whitespace-separated token to match the full-text index.
func (s *service) Search(ctx context.Context, term string) ([]models.Course, error) {
	tsquery := FormatSearchTerm(term)
	if tsquery == "" {
		return s.List(ctx)
	}
	q := dataservice.From(dataservice.TableCourses).Where(dataservice.FTS(searchColumn, tsquery))
	return s.selectCourses(ctx, popular(q))
}

// Suggest matches term as a case-insensitive title substring. Results keep the
// backend's order.
func (s *service) Suggest(ctx context.Context, term string) ([]models.Course, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinSuggestLength {
		return []models.Course{}, nil
	}
	q := dataservice.From(dataservice.TableCourses).
		Where(dataservice.ILike("title", term)).
		WithLimit(SuggestLimit)
	return s.selectCourses(ctx, q)
}

// Get returns (nil, nil) when no course has id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var course models.Course
	q := dataservice.From(dataservice.TableCourses).Where(dataservice.Eq("id", id)).One()
	err := s.tables.Select(ctx, q, &course)
	if errors.Is(err, dataservice.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (s *service) Create(ctx context.Context, input CourseInput) (*models.Course, error) {
	features := input.Features
	if features == nil {
		features = []string{}
	}
	course := &models.Course{
		Title:           input.Title,
		Description:     input.Description,
		Price:           input.Price,
		Thumbnail:       input.Thumbnail,
		Instructor:      input.Instructor,
		Duration:        input.Duration,
		Lessons:         input.Lessons,
		Level:           input.Level,
		Category:        input.Category,
		Rating:          defaultRating,
		Students:        defaultStudents,
		Features:        pq.StringArray(features),
		PreviewVideoURL: input.PreviewVideoURL,
	}
	if err := s.tables.Insert(ctx, dataservice.TableCourses, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch CoursePatch) (*models.Course, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	columns := patch.columns()
	if len(columns) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no course fields to update")
	}
	var course models.Course
	err := s.tables.Update(ctx, dataservice.TableCourses, []dataservice.Filter{dataservice.Eq("id", id)}, columns, &course)
	if errors.Is(err, dataservice.ErrNoRows) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Delete removes the course permanently. Deleting a missing id succeeds.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}
	return s.tables.Delete(ctx, dataservice.TableCourses, []dataservice.Filter{dataservice.Eq("id", id)})
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	courses, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{TotalCourses: len(courses)}, nil
}

func (s *service) selectCourses(ctx context.Context, q dataservice.Query) ([]models.Course, error) {
	courses := []models.Course{}
	if err := s.tables.Select(ctx, q, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func popular(q dataservice.Query) dataservice.Query {
	return q.OrderBy("students", true)
}
