// internal/core/parse_test.go
package core

import (
	"strings"
	"testing"

	"github.com/tabula-io/tabula-backend/internal/schema"
)

func testTableConfig() *schema.TableConfig {
	return &schema.TableConfig{
		Name:       "products",
		Fields:     []string{"id", "name", "description", "status", "price", "stock", "user_id"},
		PrimaryKey: "id",
		OwnerField: "user_id",
		Filterable: map[string]bool{"status": true, "price": true, "stock": true, "name": true},
		Sortable:   map[string]bool{"price": true, "name": true, "stock": true},
		Searchable: []string{"name", "description"},
		Types: map[string]schema.FieldType{
			"id":    schema.TypeInteger,
			"price": schema.TypeReal,
			"stock": schema.TypeInteger,
		},
	}
}

func TestParseFilters_OperatorCompleteness(t *testing.T) {
	cfg := testTableConfig()

	testCases := []struct {
		name       string
		raw        string
		wantOp     Operator
		wantValues int
	}{
		{"eq", "status:eq:active", OpEq, 1},
		{"neq", "status:neq:active", OpNeq, 1},
		{"gt", "price:gt:10", OpGt, 1},
		{"gte", "price:gte:10", OpGte, 1},
		{"lt", "price:lt:10", OpLt, 1},
		{"lte", "price:lte:10", OpLte, 1},
		{"like", "name:like:widget", OpLike, 1},
		{"in", "status:in:active,pending", OpIn, 2},
		{"notin", "status:notin:archived,deleted", OpNotIn, 2},
		{"isnull", "status:isnull", OpIsNull, 0},
		{"isnotnull", "status:isnotnull", OpIsNotNull, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conditions, parseErrs := ParseFilters(tc.raw, cfg, false)
			if len(parseErrs) != 0 {
				t.Fatalf("ParseFilters(%q) produced errors: %v", tc.raw, parseErrs)
			}
			if len(conditions) != 1 {
				t.Fatalf("ParseFilters(%q) = %d conditions; want 1", tc.raw, len(conditions))
			}
			if conditions[0].Op != tc.wantOp {
				t.Errorf("ParseFilters(%q) op = %v; want %v", tc.raw, conditions[0].Op, tc.wantOp)
			}
			if len(conditions[0].Values) != tc.wantValues {
				t.Errorf("ParseFilters(%q) values = %d; want %d", tc.raw, len(conditions[0].Values), tc.wantValues)
			}
		})
	}
}

func TestParseFilters_UnsupportedOperatorRejected(t *testing.T) {
	cfg := testTableConfig()

	for _, raw := range []string{"status:between:a", "status:regex:x", "status:EQ OR 1=1:x"} {
		conditions, parseErrs := ParseFilters(raw, cfg, false)
		if len(conditions) != 0 {
			t.Errorf("ParseFilters(%q) = %d conditions; want 0", raw, len(conditions))
		}
		if len(parseErrs) != 1 {
			t.Errorf("ParseFilters(%q) = %d errors; want 1", raw, len(parseErrs))
		}
	}
}

func TestParseFilters_WhitelistSafety(t *testing.T) {
	cfg := testTableConfig()

	// Field names crafted to look like SQL fragments must never survive
	// into the IR, and therefore never into generated SQL.
	hostileFields := []string{
		"id); DROP TABLE x; --",
		"price OR 1=1",
		"name'--",
		"secret_column",
	}

	for _, field := range hostileFields {
		raw := field + ":eq:1"
		conditions, parseErrs := ParseFilters(raw, cfg, false)
		if len(conditions) != 0 {
			t.Errorf("ParseFilters(%q) accepted a non-whitelisted field", raw)
		}
		if len(parseErrs) == 0 {
			t.Errorf("ParseFilters(%q) reported no error", raw)
		}

		plan := BuildQueryPlan(cfg, conditions, nil, "", PageRequest{Limit: 10}, nil)
		query, _ := plan.SelectSQL()
		if strings.Contains(query, "DROP TABLE") || strings.Contains(query, "1=1") {
			t.Errorf("hostile field leaked into SQL: %s", query)
		}
	}
}

func TestParseFilters_InListContinuation(t *testing.T) {
	cfg := testTableConfig()

	conditions, parseErrs := ParseFilters("stock:in:1,2,3,status:eq:active", cfg, false)
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected errors: %v", parseErrs)
	}
	if len(conditions) != 2 {
		t.Fatalf("got %d conditions; want 2", len(conditions))
	}
	if len(conditions[0].Values) != 3 {
		t.Errorf("in-list has %d values; want 3", len(conditions[0].Values))
	}
	for i, want := range []int64{1, 2, 3} {
		if conditions[0].Values[i].Int != want {
			t.Errorf("in-list value %d = %d; want %d", i, conditions[0].Values[i].Int, want)
		}
	}
	if conditions[1].Op != OpEq || conditions[1].Field != "status" {
		t.Errorf("second condition = %+v; want status eq", conditions[1])
	}
}

func TestParseFilters_MalformedSegments(t *testing.T) {
	cfg := testTableConfig()

	testCases := []struct {
		name string
		raw  string
	}{
		{"missing operator", "status"},
		{"empty field", ":eq:x"},
		{"missing value", "price:gt"},
		{"empty value", "price:gt:"},
		{"value on null operator", "status:isnull:x"},
		{"continuation without open list", "status:eq:active,stray"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, parseErrs := ParseFilters(tc.raw, cfg, false)
			if len(parseErrs) == 0 {
				t.Errorf("ParseFilters(%q) reported no error", tc.raw)
			}
		})
	}
}

func TestParseFilters_DroppedSegmentDoesNotAbortParse(t *testing.T) {
	cfg := testTableConfig()

	conditions, parseErrs := ParseFilters("bogus:eq:1,status:eq:active", cfg, false)
	if len(conditions) != 1 || conditions[0].Field != "status" {
		t.Fatalf("valid condition lost alongside invalid one: %+v", conditions)
	}
	if len(parseErrs) != 1 {
		t.Errorf("got %d errors; want 1", len(parseErrs))
	}
}

func TestParseFilters_ContinuationAfterDroppedCondition(t *testing.T) {
	cfg := testTableConfig()

	// A bare segment following a dropped non-list condition is not its
	// continuation; it gets a malformed-condition error of its own.
	conditions, parseErrs := ParseFilters("bogus:eq:1,stray", cfg, false)
	if len(conditions) != 0 {
		t.Fatalf("got %d conditions; want 0", len(conditions))
	}
	if len(parseErrs) != 2 {
		t.Errorf("got %d errors; want 2: %v", len(parseErrs), parseErrs)
	}

	// Continuation values of a dropped in/notin condition belong to it and
	// are swallowed along with the single reported error.
	conditions, parseErrs = ParseFilters("bogus:in:1,2,3,status:eq:active", cfg, false)
	if len(conditions) != 1 || conditions[0].Field != "status" {
		t.Fatalf("conditions = %+v; want only the status condition", conditions)
	}
	if len(parseErrs) != 1 {
		t.Errorf("got %d errors; want 1: %v", len(parseErrs), parseErrs)
	}
}

func TestParseFilters_TypeCoercion(t *testing.T) {
	cfg := testTableConfig()

	conditions, parseErrs := ParseFilters("price:gt:9.5,stock:lte:20", cfg, false)
	if len(parseErrs) != 0 {
		t.Fatalf("unexpected errors: %v", parseErrs)
	}
	if conditions[0].Values[0].Kind != ValueFloat || conditions[0].Values[0].Float != 9.5 {
		t.Errorf("price coerced to %+v; want float 9.5", conditions[0].Values[0])
	}
	if conditions[1].Values[0].Kind != ValueInt || conditions[1].Values[0].Int != 20 {
		t.Errorf("stock coerced to %+v; want int 20", conditions[1].Values[0])
	}
}

func TestParseFilters_LenientTypingBindsRawString(t *testing.T) {
	cfg := testTableConfig()

	conditions, parseErrs := ParseFilters("price:gt:abc", cfg, false)
	if len(parseErrs) != 0 {
		t.Fatalf("lenient mode reported errors: %v", parseErrs)
	}
	if len(conditions) != 1 {
		t.Fatalf("got %d conditions; want 1", len(conditions))
	}
	val := conditions[0].Values[0]
	if val.Kind != ValueString || val.Str != "abc" {
		t.Errorf("lenient value = %+v; want raw string \"abc\"", val)
	}
}

func TestParseFilters_StrictTypingDropsBadValue(t *testing.T) {
	cfg := testTableConfig()

	conditions, parseErrs := ParseFilters("price:gt:abc", cfg, true)
	if len(conditions) != 0 {
		t.Errorf("strict mode kept condition: %+v", conditions)
	}
	if len(parseErrs) != 1 {
		t.Errorf("got %d errors; want 1", len(parseErrs))
	}
}

func TestParseSort(t *testing.T) {
	cfg := testTableConfig()

	testCases := []struct {
		name     string
		raw      string
		wantKeys []SortKey
		wantErrs int
	}{
		{"empty", "", nil, 0},
		{"single default asc", "price", []SortKey{{Field: "price"}}, 0},
		{"explicit desc", "price,desc", []SortKey{{Field: "price", Desc: true}}, 0},
		{"case insensitive direction", "price,DESC", []SortKey{{Field: "price", Desc: true}}, 0},
		{"multiple keys keep order", "price,desc;name,asc", []SortKey{{Field: "price", Desc: true}, {Field: "name"}}, 0},
		{"unsortable field dropped", "user_id,desc;name", []SortKey{{Field: "name"}}, 1},
		{"bad direction dropped", "price,sideways", nil, 1},
		{"empty spec dropped", ";price", []SortKey{{Field: "price"}}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			keys, parseErrs := ParseSort(tc.raw, cfg)
			if len(parseErrs) != tc.wantErrs {
				t.Errorf("ParseSort(%q) = %d errors; want %d", tc.raw, len(parseErrs), tc.wantErrs)
			}
			if len(keys) != len(tc.wantKeys) {
				t.Fatalf("ParseSort(%q) = %d keys; want %d", tc.raw, len(keys), len(tc.wantKeys))
			}
			for i, want := range tc.wantKeys {
				if keys[i] != want {
					t.Errorf("ParseSort(%q) key %d = %+v; want %+v", tc.raw, i, keys[i], want)
				}
			}
		})
	}
}
