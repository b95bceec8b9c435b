// Package pgservice serves dataservice.Tables from the relational database
// through gorm.
package pgservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/skillhunter-backend/pkg/dataservice"
	"github.com/angelmondragon/skillhunter-backend/pkg/db"
	"github.com/angelmondragon/skillhunter-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/skillhunter-backend/pkg/errors"
)

// DefaultTextSearchConfig is the Postgres text search configuration used by fts filters.
const DefaultTextSearchConfig = "english"

var registry = map[string]func() any{
	dataservice.TableProfiles: func() any { return &models.Profile{} },
	dataservice.TableCourses:  func() any { return &models.Course{} },
	dataservice.TableOrders:   func() any { return &models.Order{} },
	dataservice.TableReviews:  func() any { return &models.Review{} },
	dataservice.TableWishlist: func() any { return &models.WishlistItem{} },
}

// Tables implements dataservice.Tables over a gorm connection.
type Tables struct {
	db               *gorm.DB
	textSearchConfig string
}

// Option customises Tables.
type Option func(*Tables)

// WithTextSearchConfig overrides the to_tsquery configuration.
func WithTextSearchConfig(name string) Option {
	return func(t *Tables) {
		if strings.TrimSpace(name) != "" {
			t.textSearchConfig = name
		}
	}
}

func NewTables(conn *gorm.DB, opts ...Option) (*Tables, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection is required")
	}
	t := &Tables{db: conn, textSearchConfig: DefaultTextSearchConfig}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Tables) Select(ctx context.Context, q dataservice.Query, dest any) error {
	if _, err := modelFor(q.Table); err != nil {
		return err
	}
	tx := t.db.WithContext(ctx).Table(q.Table)

	where, err := t.whereClause(q.Filters)
	if err != nil {
		return err
	}
	if where != nil {
		tx = tx.Clauses(*where)
	}
	for _, o := range q.Order {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	for _, assoc := range q.Joins {
		tx = tx.Preload(assoc)
	}

	if q.Single {
		err = tx.Take(dest).Error
	} else {
		err = tx.Find(dest).Error
	}
	return mapError(err)
}

func (t *Tables) Insert(ctx context.Context, table string, row any) error {
	if _, err := modelFor(table); err != nil {
		return err
	}
	return mapError(t.db.WithContext(ctx).Table(table).Create(row).Error)
}

// Update applies patch to every matching row and, when dest is non-nil, reloads
// the first matching row into it.
func (t *Tables) Update(ctx context.Context, table string, filters []dataservice.Filter, patch map[string]any, dest any) error {
	if _, err := modelFor(table); err != nil {
		return err
	}
	where, err := t.whereClause(filters)
	if err != nil {
		return err
	}
	if where == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "update requires at least one filter")
	}
	if len(patch) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "update patch is empty")
	}

	res := t.db.WithContext(ctx).Table(table).Clauses(*where).Updates(patch)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return dataservice.ErrNoRows
	}
	if dest == nil {
		return nil
	}
	return mapError(t.db.WithContext(ctx).Table(table).Clauses(*where).Take(dest).Error)
}

func (t *Tables) Delete(ctx context.Context, table string, filters []dataservice.Filter) error {
	model, err := modelFor(table)
	if err != nil {
		return err
	}
	where, err := t.whereClause(filters)
	if err != nil {
		return err
	}
	if where == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "delete requires at least one filter")
	}
	return mapError(t.db.WithContext(ctx).Clauses(*where).Delete(model).Error)
}

func (t *Tables) whereClause(filters []dataservice.Filter) (*clause.Where, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	exprs := make([]clause.Expression, 0, len(filters))
	for _, f := range filters {
		expr, err := t.expression(f)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return &clause.Where{Exprs: exprs}, nil
}

func (t *Tables) expression(f dataservice.Filter) (clause.Expression, error) {
	if strings.TrimSpace(f.Column) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "filter column is required")
	}
	col := clause.Column{Name: f.Column}
	switch f.Op {
	case dataservice.OpEq:
		return clause.Eq{Column: col, Value: f.Value}, nil
	case dataservice.OpIn:
		values, ok := f.Value.([]any)
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "in filter on %s needs a list", f.Column)
		}
		return clause.IN{Column: col, Values: values}, nil
	case dataservice.OpILike:
		substr, ok := f.Value.(string)
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "ilike filter on %s needs a string", f.Column)
		}
		return clause.Expr{
			SQL:  `LOWER(?) LIKE LOWER(?) ESCAPE '\'`,
			Vars: []any{col, "%" + escapeLike(substr) + "%"},
		}, nil
	case dataservice.OpFTS:
		query, ok := f.Value.(string)
		if !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "fts filter on %s needs a string", f.Column)
		}
		return clause.Expr{
			SQL:  "? @@ to_tsquery(?::regconfig, ?)",
			Vars: []any{col, t.textSearchConfig, query},
		}, nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported filter operator %q", f.Op)
	}
}

func modelFor(table string) (any, error) {
	factory, ok := registry[table]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown table %q", table)
	}
	return factory(), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dataservice.ErrNoRows
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "row already exists")
	case db.IsInvalidInput(err):
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "row rejected by the database")
	case db.IsPermissionDenied(err):
		return pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "operation not permitted")
	default:
		return err
	}
}
