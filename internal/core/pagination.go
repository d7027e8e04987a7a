// internal/core/pagination.go
package core

// PageMetadata is the page math derived from a total count and the request's
// pagination bounds.
type PageMetadata struct {
	TotalRecords int64 `json:"total_records"`
	Limit        int   `json:"limit"`
	Offset       int   `json:"offset"`
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	NextOffset   *int  `json:"next_offset,omitempty"`
	PrevOffset   *int  `json:"prev_offset,omitempty"`
}

// Paginate computes page metadata. Limit is guaranteed >= 1 by the request
// validation upstream.
// An empty result set still reports one page.
func Paginate(totalRecords int64, limit, offset int) PageMetadata {
	meta := PageMetadata{
		TotalRecords: totalRecords,
		Limit:        limit,
		Offset:       offset,
		CurrentPage:  offset/limit + 1,
		TotalPages:   1,
	}

	if totalRecords > 0 {
		meta.TotalPages = int((totalRecords + int64(limit) - 1) / int64(limit))
	}

	if int64(offset+limit) < totalRecords {
		next := offset + limit
		meta.NextOffset = &next
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		meta.PrevOffset = &prev
	}

	return meta
}
