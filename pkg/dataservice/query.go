package dataservice

import (
	"context"
	"errors"
	"strings"
)

// ErrNoRows signals that a Single select, an Update or a Delete matched nothing.
var ErrNoRows = errors.New("dataservice: no rows")

// Table names served by the backend.
const (
	TableProfiles = "profiles"
	TableCourses  = "courses"
	TableOrders   = "orders"
	TableReviews  = "reviews"
	TableWishlist = "wishlist"
)

// Operator is the comparison applied by a Filter.
type Operator string

const (
	OpEq    Operator = "eq"
	OpIn    Operator = "in"
	OpILike Operator = "ilike"
	// OpFTS matches a tsvector column against a to_tsquery expression.
	OpFTS Operator = "fts"
)

type Filter struct {
	Column string
	Op     Operator
	Value  any
}

func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// In matches any of values. An empty list matches nothing.
func In[T any](column string, values []T) Filter {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return Filter{Column: column, Op: OpIn, Value: out}
}

// ILike matches a case-insensitive substring; wildcards in substr are literal.
func ILike(column, substr string) Filter {
	return Filter{Column: column, Op: OpILike, Value: substr}
}

// FTS matches column against a prepared tsquery such as "machine & learning".
func FTS(column, tsquery string) Filter {
	return Filter{Column: column, Op: OpFTS, Value: tsquery}
}

type Order struct {
	Column string
	Desc   bool
}

// Query describes a select. Joins name model associations to load with each row.
type Query struct {
	Table   string
	Filters []Filter
	Order   []Order
	Limit   int
	Joins   []string
	Single  bool
}

// From starts a query on table.
func From(table string) Query {
	return Query{Table: table}
}

func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

func (q Query) OrderBy(column string, desc bool) Query {
	q.Order = append(append([]Order(nil), q.Order...), Order{Column: column, Desc: desc})
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

func (q Query) Join(associations ...string) Query {
	q.Joins = append(append([]string(nil), q.Joins...), associations...)
	return q
}

// One marks the query as expecting exactly one row; a miss yields ErrNoRows.
func (q Query) One() Query {
	q.Single = true
	return q
}

// Filter returns the first filter on column, if any.
func (q Query) Filter(column string) (Filter, bool) {
	for _, f := range q.Filters {
		if strings.EqualFold(f.Column, column) {
			return f, true
		}
	}
	return Filter{}, false
}

// Tables is the row-storage half of the data service. dest and row are pointers to
// models (or slices of models) registered for the table.
type Tables interface {
	Select(ctx context.Context, q Query, dest any) error
	Insert(ctx context.Context, table string, row any) error
	Update(ctx context.Context, table string, filters []Filter, patch map[string]any, dest any) error
	Delete(ctx context.Context, table string, filters []Filter) error
}

// Client bundles both halves for a single device.
type Client struct {
	Auth   Auth
	Tables Tables
}
