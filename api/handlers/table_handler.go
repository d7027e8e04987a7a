// api/handlers/table_handler.go
package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula-backend/api/models"
	"github.com/tabula-io/tabula-backend/internal/schema"
)

// TableHandler serves the read-only view of the table registry.
type TableHandler struct {
	Registry *schema.Registry
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(registry *schema.Registry) *TableHandler {
	return &TableHandler{Registry: registry}
}

// ListTables returns the names of all registered tables.
func (h *TableHandler) ListTables(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tables": h.Registry.Names()})
}

// GetTable returns the public configuration of one table.
func (h *TableHandler) GetTable(c *gin.Context) {
	tableName := c.Param("table_name")
	if !schema.IsValidIdentifier(tableName) {
		_ = c.Error(schema.ErrUnknownTable)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Table not found."})
		return
	}
	cfg, err := h.Registry.Get(tableName)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Table not found."})
		return
	}

	c.JSON(http.StatusOK, models.TableResponse{
		Name:       cfg.Name,
		Fields:     cfg.Fields,
		PrimaryKey: cfg.PrimaryKey,
		OwnerField: cfg.OwnerField,
		Filterable: sortedKeys(cfg.Filterable),
		Sortable:   sortedKeys(cfg.Sortable),
		Searchable: cfg.Searchable,
	})
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
