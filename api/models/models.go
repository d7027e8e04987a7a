// api/models/models.go
package models

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/tabula-io/tabula-backend/internal/core"
)

// --- JWT Claims ---

// CustomClaims carries the caller identity inside tokens minted by the
// external platform: the user id and the group the user belongs to.
type CustomClaims struct {
	UserID  string `json:"userID"`
	GroupID string `json:"groupID"`
	jwt.RegisteredClaims
}

// --- Request Structs ---

// ListRecordsQuery binds the collection query string. Pagination bounds are
// enforced by the validation tags; filters, order and q carry table-dependent
// grammars and go through their own parsers.
type ListRecordsQuery struct {
	Limit   int    `form:"limit,default=100" binding:"min=1,max=1000"`
	Offset  int    `form:"offset" binding:"min=0"`
	Filters string `form:"filters"`
	Order   string `form:"order"`
	Search  string `form:"q"`
}

// --- Response Structs ---

// ListResponse is the collection envelope: the page of rows, the page math,
// and any query segments that were dropped during parsing.
type ListResponse struct {
	Data       []map[string]any  `json:"data"`
	Pagination core.PageMetadata `json:"pagination"`
	Warnings   []core.ParseError `json:"warnings,omitempty"`
}

// TableResponse is the public shape of one table configuration. Type hints
// and internal knobs stay private.
type TableResponse struct {
	Name       string   `json:"name"`
	Fields     []string `json:"fields"`
	PrimaryKey string   `json:"primary_key"`
	OwnerField string   `json:"owner_field,omitempty"`
	Filterable []string `json:"filterable"`
	Sortable   []string `json:"sortable"`
	Searchable []string `json:"searchable"`
}
