// internal/core/query_test.go
package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestQueryPlan_BindingOrderInvariant(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("status:eq:active,price:gt:10,stock:in:1,2,3", cfg, false)
	plan := BuildQueryPlan(cfg, conditions, nil, "widget", PageRequest{Limit: 25, Offset: 50}, nil)

	_, countArgs := plan.CountSQL()
	_, selectArgs := plan.SelectSQL()

	if len(selectArgs) != len(countArgs)+2 {
		t.Fatalf("select args = %d; want count args (%d) + 2", len(selectArgs), len(countArgs))
	}
	if !reflect.DeepEqual(countArgs, selectArgs[:len(countArgs)]) {
		t.Errorf("count args %v are not a prefix of select args %v", countArgs, selectArgs)
	}

	// The trailing bindings are the integer limit and offset, not strings.
	if limit, ok := selectArgs[len(selectArgs)-2].(int); !ok || limit != 25 {
		t.Errorf("limit binding = %v (%T); want int 25", selectArgs[len(selectArgs)-2], selectArgs[len(selectArgs)-2])
	}
	if offset, ok := selectArgs[len(selectArgs)-1].(int); !ok || offset != 50 {
		t.Errorf("offset binding = %v (%T); want int 50", selectArgs[len(selectArgs)-1], selectArgs[len(selectArgs)-1])
	}
}

func TestQueryPlan_CountNeverPaginates(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("status:eq:active", cfg, false)
	plan := BuildQueryPlan(cfg, conditions, nil, "", PageRequest{Limit: 2, Offset: 4}, nil)

	query, _ := plan.CountSQL()
	if strings.Contains(query, "LIMIT") || strings.Contains(query, "OFFSET") {
		t.Errorf("COUNT statement contains pagination: %s", query)
	}
	if !strings.HasPrefix(query, "SELECT COUNT(*) FROM products") {
		t.Errorf("unexpected COUNT statement: %s", query)
	}
}

func TestQueryPlan_DeterministicFallbackOrdering(t *testing.T) {
	cfg := testTableConfig()

	first := BuildQueryPlan(cfg, nil, nil, "", PageRequest{Limit: 10}, nil)
	second := BuildQueryPlan(cfg, nil, nil, "", PageRequest{Limit: 10}, nil)

	firstSQL, _ := first.SelectSQL()
	secondSQL, _ := second.SelectSQL()
	if firstSQL != secondSQL {
		t.Errorf("repeated builds differ:\n%s\n%s", firstSQL, secondSQL)
	}
	if !strings.Contains(firstSQL, "ORDER BY id ASC") {
		t.Errorf("missing primary key fallback ordering: %s", firstSQL)
	}
}

func TestQueryPlan_SortOrderPreserved(t *testing.T) {
	cfg := testTableConfig()

	keys, _ := ParseSort("price,desc;name,asc", cfg)
	plan := BuildQueryPlan(cfg, nil, keys, "", PageRequest{Limit: 10}, nil)

	query, _ := plan.SelectSQL()
	if !strings.Contains(query, "ORDER BY price DESC, name ASC") {
		t.Errorf("sort keys not preserved in order: %s", query)
	}
}

func TestQueryPlan_SearchExpandsToOrGroup(t *testing.T) {
	cfg := testTableConfig()

	plan := BuildQueryPlan(cfg, nil, nil, "widget", PageRequest{Limit: 10}, nil)

	query, args := plan.CountSQL()
	if !strings.Contains(query, "(name LIKE ? OR description LIKE ?)") {
		t.Errorf("search is not a single parenthesized OR group: %s", query)
	}
	want := []any{"%widget%", "%widget%"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("search args = %v; want %v", args, want)
	}
}

func TestQueryPlan_SearchComposesWithFilters(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("status:eq:active", cfg, false)
	plan := BuildQueryPlan(cfg, conditions, nil, "widget", PageRequest{Limit: 10}, nil)

	query, _ := plan.CountSQL()
	if !strings.Contains(query, "status = ? AND (name LIKE ? OR description LIKE ?)") {
		t.Errorf("search group does not AND-compose with filters: %s", query)
	}
}

func TestQueryPlan_LikeWrapsValue(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("name:like:gadget", cfg, false)
	plan := BuildQueryPlan(cfg, conditions, nil, "", PageRequest{Limit: 10}, nil)

	_, args := plan.CountSQL()
	if len(args) != 1 || args[0] != "%gadget%" {
		t.Errorf("like binding = %v; want %%gadget%%", args)
	}
}

func TestQueryPlan_InPlaceholders(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("stock:in:1,2,3", cfg, false)
	plan := BuildQueryPlan(cfg, conditions, nil, "", PageRequest{Limit: 10}, nil)

	query, args := plan.CountSQL()
	if !strings.Contains(query, "stock IN (?,?,?)") {
		t.Errorf("missing IN placeholders: %s", query)
	}
	if len(args) != 3 {
		t.Errorf("in args = %v; want 3 bindings", args)
	}
}

func TestQueryPlan_NullOperatorsBindNothing(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("status:isnull,name:isnotnull", cfg, false)
	plan := BuildQueryPlan(cfg, conditions, nil, "", PageRequest{Limit: 10}, nil)

	query, args := plan.CountSQL()
	if !strings.Contains(query, "status IS NULL AND name IS NOT NULL") {
		t.Errorf("unexpected null clauses: %s", query)
	}
	if len(args) != 0 {
		t.Errorf("null operators bound values: %v", args)
	}
}

func TestQueryPlan_OwnerScopeLeadsBindings(t *testing.T) {
	cfg := testTableConfig()

	conditions, _ := ParseFilters("status:eq:active", cfg, false)
	scope := &OwnerScope{Field: "user_id", UserID: "u1"}
	plan := BuildQueryPlan(cfg, conditions, nil, "", PageRequest{Limit: 10}, scope)

	query, args := plan.CountSQL()
	if !strings.Contains(query, "WHERE user_id = ? AND status = ?") {
		t.Errorf("owner scope not first in WHERE: %s", query)
	}
	if len(args) == 0 || args[0] != "u1" {
		t.Errorf("owner scope binding not first: %v", args)
	}
}
