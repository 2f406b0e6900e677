package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter operators understood by the data API.
const (
	OpEq    = "eq"
	OpNeq   = "neq"
	OpILike = "ilike"
	OpIn    = "in"
	OpIs    = "is"
	OpGte   = "gte"
	OpLte   = "lte"
)

// Filter is one column predicate.
type Filter struct {
	Column string
	Op     string
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Filter { return Filter{Column: column, Op: OpNeq, Value: value} }
func IsNull(column string) Filter         { return Filter{Column: column, Op: OpIs, Value: nil} }

// encode renders the filter value in data API syntax, e.g. "eq.abc" or "in.(a,b)".
func (f Filter) encode() string {
	switch f.Op {
	case OpIs:
		if f.Value == nil {
			return "is.null"
		}
		return "is." + fmt.Sprint(f.Value)
	case OpIn:
		vals, _ := f.Value.([]string)
		quoted := make([]string, len(vals))
		for i, v := range vals {
			quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
		}
		return "in.(" + strings.Join(quoted, ",") + ")"
	default:
		return f.Op + "." + fmt.Sprint(f.Value)
	}
}

// Order is one ordering term.
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a read against a table or view.
type Query struct {
	table   string
	columns string
	filters []Filter
	orders  []Order
	offset  int
	limit   int
	count   bool
}

// From starts a query against table.
func From(table string) *Query {
	return &Query{table: table, columns: "*", limit: -1}
}

func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, Eq(column, value))
	return q
}

func (q *Query) Neq(column string, value any) *Query {
	q.filters = append(q.filters, Neq(column, value))
	return q
}

// ILike matches a case-insensitive pattern using % wildcards.
func (q *Query) ILike(column, pattern string) *Query {
	q.filters = append(q.filters, Filter{Column: column, Op: OpILike, Value: pattern})
	return q
}

func (q *Query) In(column string, values []string) *Query {
	q.filters = append(q.filters, Filter{Column: column, Op: OpIn, Value: values})
	return q
}

func (q *Query) IsNull(column string) *Query {
	q.filters = append(q.filters, IsNull(column))
	return q
}

func (q *Query) Gte(column string, value any) *Query {
	q.filters = append(q.filters, Filter{Column: column, Op: OpGte, Value: value})
	return q
}

func (q *Query) Lte(column string, value any) *Query {
	q.filters = append(q.filters, Filter{Column: column, Op: OpLte, Value: value})
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	q.orders = append(q.orders, Order{Column: column, Ascending: ascending})
	return q
}

// Range limits the result to rows from..to inclusive, zero based.
func (q *Query) Range(from, to int) *Query {
	q.offset = from
	q.limit = to - from + 1
	return q
}

// CountExact asks the backend for the total number of matching rows.
func (q *Query) CountExact() *Query {
	q.count = true
	return q
}

func (q *Query) Table() string      { return q.table }
func (q *Query) Filters() []Filter  { return q.filters }
func (q *Query) Orders() []Order    { return q.orders }
func (q *Query) WantsCount() bool   { return q.count }
func (q *Query) Window() (int, int) { return q.offset, q.limit }

func (q *Query) values() url.Values {
	v := url.Values{}
	v.Set("select", q.columns)
	for _, f := range q.filters {
		v.Add(f.Column, f.encode())
	}
	if len(q.orders) > 0 {
		parts := make([]string, len(q.orders))
		for i, o := range q.orders {
			dir := "asc"
			if !o.Ascending {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.limit >= 0 {
		v.Set("offset", strconv.Itoa(q.offset))
		v.Set("limit", strconv.Itoa(q.limit))
	}
	return v
}

func filterValues(filters []Filter) url.Values {
	v := url.Values{}
	for _, f := range filters {
		v.Add(f.Column, f.encode())
	}
	return v
}

// parseContentRange reads the total from a "0-9/42" or "*/0" header.
func parseContentRange(h string) (int64, bool) {
	idx := strings.LastIndex(h, "/")
	if idx < 0 || idx == len(h)-1 {
		return 0, false
	}
	total := h[idx+1:]
	if total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
