// internal/core/query.go
package core

import (
	"fmt"
	"strings"

	"github.com/tabula-io/tabula-backend/internal/schema"
)

// PageRequest holds the validated pagination bounds for one request. Limit
// is at least 1; the HTTP layer enforces the bounds before building a plan.
type PageRequest struct {
	Limit  int
	Offset int
}

// OwnerScope constrains a collection query to rows owned by the caller. It is
// built from TableConfig, not from request input, so it bypasses the
// filterable whitelist.
type OwnerScope struct {
	Field  string
	UserID string
}

// QueryPlan is the compiled artifact for one list request: a WHERE fragment
// with its ordered bindings, an ORDER BY fragment, and the pagination bounds.
// The same WHERE bindings serve both the COUNT and the SELECT statement; the
// SELECT appends limit and offset bindings only.
type QueryPlan struct {
	table   string
	fields  []string
	where   string
	args    []any
	orderBy string
	Limit   int
	Offset  int
}

// BuildQueryPlan compiles validated conditions, sort keys, search text and
// pagination bounds into a QueryPlan. Only field identifiers drawn from the
// TableConfig ever reach clause text.
func BuildQueryPlan(cfg *schema.TableConfig, filters []FilterCondition, sort []SortKey, search string, page PageRequest, scope *OwnerScope) *QueryPlan {
	var clauses []string
	var args []any

	if scope != nil {
		clauses = append(clauses, fmt.Sprintf("%s = ?", scope.Field))
		args = append(args, scope.UserID)
	}

	for _, cond := range filters {
		clause, condArgs := compileCondition(cond)
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
	}

	if search != "" && len(cfg.Searchable) > 0 {
		var searchClauses []string
		for _, field := range cfg.Searchable {
			searchClauses = append(searchClauses, fmt.Sprintf("%s LIKE ?", field))
			args = append(args, "%"+search+"%")
		}
		clauses = append(clauses, "("+strings.Join(searchClauses, " OR ")+")")
	}

	return &QueryPlan{
		table:   cfg.Name,
		fields:  cfg.Fields,
		where:   strings.Join(clauses, " AND "),
		args:    args,
		orderBy: compileOrderBy(cfg, sort),
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
}

// compileCondition maps one condition to its SQL fragment and bindings. The
// switch is exhaustive over the Operator enum.
func compileCondition(cond FilterCondition) (string, []any) {
	switch cond.Op {
	case OpEq:
		return fmt.Sprintf("%s = ?", cond.Field), []any{cond.Values[0].Arg()}
	case OpNeq:
		return fmt.Sprintf("%s != ?", cond.Field), []any{cond.Values[0].Arg()}
	case OpGt:
		return fmt.Sprintf("%s > ?", cond.Field), []any{cond.Values[0].Arg()}
	case OpGte:
		return fmt.Sprintf("%s >= ?", cond.Field), []any{cond.Values[0].Arg()}
	case OpLt:
		return fmt.Sprintf("%s < ?", cond.Field), []any{cond.Values[0].Arg()}
	case OpLte:
		return fmt.Sprintf("%s <= ?", cond.Field), []any{cond.Values[0].Arg()}
	case OpLike:
		return fmt.Sprintf("%s LIKE ?", cond.Field), []any{"%" + cond.Values[0].Str + "%"}
	case OpIn:
		return compileList(cond, "IN")
	case OpNotIn:
		return compileList(cond, "NOT IN")
	case OpIsNull:
		return fmt.Sprintf("%s IS NULL", cond.Field), nil
	case OpIsNotNull:
		return fmt.Sprintf("%s IS NOT NULL", cond.Field), nil
	}
	return "", nil
}

func compileList(cond FilterCondition, keyword string) (string, []any) {
	if len(cond.Values) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(cond.Values))
	args := make([]any, len(cond.Values))
	for i, val := range cond.Values {
		placeholders[i] = "?"
		args[i] = val.Arg()
	}
	return fmt.Sprintf("%s %s (%s)", cond.Field, keyword, strings.Join(placeholders, ",")), args
}

// compileOrderBy joins the sort keys in parser-supplied order. With no valid
// keys it falls back to primary key ascending so result ordering is always
// deterministic.
func compileOrderBy(cfg *schema.TableConfig, sort []SortKey) string {
	if len(sort) == 0 {
		return fmt.Sprintf("%s ASC", cfg.PrimaryKey)
	}
	parts := make([]string, len(sort))
	for i, key := range sort {
		direction := "ASC"
		if key.Desc {
			direction = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", key.Field, direction)
	}
	return strings.Join(parts, ", ")
}

// CountSQL returns the COUNT statement and its bindings. The statement
// reflects the WHERE clause only, never limit/offset.
func (p *QueryPlan) CountSQL() (string, []any) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", p.table)
	if p.where != "" {
		query += " WHERE " + p.where
	}
	return query, p.args
}

// SelectSQL returns the data statement and its bindings: the WHERE bindings
// in the same order as CountSQL plus trailing integer limit and offset.
func (p *QueryPlan) SelectSQL() (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(p.fields, ", "), p.table)
	if p.where != "" {
		query += " WHERE " + p.where
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT ? OFFSET ?", p.orderBy)

	args := make([]any, 0, len(p.args)+2)
	args = append(args, p.args...)
	args = append(args, p.Limit, p.Offset)
	return query, args
}
