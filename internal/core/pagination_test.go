// internal/core/pagination_test.go
package core

import "testing"

func intPtr(n int) *int { return &n }

func TestPaginate(t *testing.T) {
	testCases := []struct {
		name         string
		total        int64
		limit        int
		offset       int
		wantPage     int
		wantPages    int
		wantNext     *int
		wantPrev     *int
	}{
		{"mid-collection page", 1250, 25, 50, 3, 50, intPtr(75), intPtr(25)},
		{"first page", 100, 10, 0, 1, 10, intPtr(10), nil},
		{"last page", 100, 10, 90, 10, 10, nil, intPtr(80)},
		{"single partial page", 3, 10, 0, 1, 1, nil, nil},
		{"empty result set", 0, 10, 0, 1, 1, nil, nil},
		{"offset beyond total", 5, 10, 20, 3, 1, nil, intPtr(10)},
		{"uneven final page", 25, 10, 20, 3, 3, nil, intPtr(10)},
		{"prev clamped to zero", 100, 25, 10, 1, 4, intPtr(35), intPtr(0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			meta := Paginate(tc.total, tc.limit, tc.offset)
			if meta.TotalRecords != tc.total {
				t.Errorf("TotalRecords = %d; want %d", meta.TotalRecords, tc.total)
			}
			if meta.CurrentPage != tc.wantPage {
				t.Errorf("CurrentPage = %d; want %d", meta.CurrentPage, tc.wantPage)
			}
			if meta.TotalPages != tc.wantPages {
				t.Errorf("TotalPages = %d; want %d", meta.TotalPages, tc.wantPages)
			}
			checkOffset(t, "NextOffset", meta.NextOffset, tc.wantNext)
			checkOffset(t, "PrevOffset", meta.PrevOffset, tc.wantPrev)
		})
	}
}

func checkOffset(t *testing.T, name string, got, want *int) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil || want == nil:
		t.Errorf("%s = %v; want %v", name, deref(got), deref(want))
	case *got != *want:
		t.Errorf("%s = %d; want %d", name, *got, *want)
	}
}

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
