// api/handlers/record_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tabula-io/tabula-backend/api/middleware"
	"github.com/tabula-io/tabula-backend/api/models"
	"github.com/tabula-io/tabula-backend/config"
	"github.com/tabula-io/tabula-backend/internal/authz"
	"github.com/tabula-io/tabula-backend/internal/core"
	"github.com/tabula-io/tabula-backend/internal/domain"
	"github.com/tabula-io/tabula-backend/internal/logger"
	"github.com/tabula-io/tabula-backend/internal/schema"
	"github.com/tabula-io/tabula-backend/internal/storage"
)

var customLog = logger.NewLogger()

// RecordHandler holds dependencies for record CRUD handlers.
type RecordHandler struct {
	DB       *sql.DB
	Cfg      *config.Config
	Registry *schema.Registry
	Perms    *authz.Store
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(db *sql.DB, cfg *config.Config, registry *schema.Registry, perms *authz.Store) *RecordHandler {
	return &RecordHandler{
		DB:       db,
		Cfg:      cfg,
		Registry: registry,
		Perms:    perms,
	}
}

// tableConfig resolves the table named in the URL path against the registry.
func (h *RecordHandler) tableConfig(c *gin.Context) (*schema.TableConfig, bool) {
	tableName := c.Param("table_name")
	if !schema.IsValidIdentifier(tableName) {
		_ = c.Error(schema.ErrUnknownTable)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Table not found."})
		return nil, false
	}
	cfg, err := h.Registry.Get(tableName)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Table not found."})
		return nil, false
	}
	return cfg, true
}

// abortAuthz maps an authorization error onto the response.
func abortAuthz(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, authz.ErrForbidden) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify permissions."})
}

// ListRecords handles collection reads with filtering, sorting, search and
// pagination.
func (h *RecordHandler) ListRecords(c *gin.Context) {
	cfg, ok := h.tableConfig(c)
	if !ok {
		return
	}
	ident := middleware.IdentityFromContext(c)

	level := h.Perms.Current().Resolve(ident.GroupID, cfg.Name, domain.ActionView)
	if level == domain.PermissionNone {
		abortAuthz(c, authz.ErrForbidden)
		return
	}

	// Owner-level list access scopes the WHERE clause instead of checking
	// rows one by one, so pagination stays exact. Without an owner field the
	// table cannot enforce owner scoping and the request is denied.
	var scope *core.OwnerScope
	if level == domain.PermissionOwner {
		if cfg.OwnerField == "" {
			abortAuthz(c, authz.ErrForbidden)
			return
		}
		scope = &core.OwnerScope{Field: cfg.OwnerField, UserID: ident.UserID}
	}

	var query models.ListRecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		_ = c.Error(err)
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			// The central error handler renders the field-level 400.
			c.Abort()
		} else {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters."})
		}
		return
	}
	page := core.PageRequest{Limit: query.Limit, Offset: query.Offset}

	filters, filterErrs := core.ParseFilters(query.Filters, cfg, h.Cfg.StrictFilterTypes)
	sortKeys, sortErrs := core.ParseSort(query.Order, cfg)
	warnings := append(filterErrs, sortErrs...)

	if h.Cfg.StrictQuery && len(warnings) > 0 {
		_ = c.Error(warnings[0])
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters.", "details": warnings})
		return
	}

	plan := core.BuildQueryPlan(cfg, filters, sortKeys, core.ParseSearch(query.Search), page, scope)

	total, err := storage.CountRecords(c.Request.Context(), h.DB, plan)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to query records."})
		return
	}
	results, err := storage.ListRecords(c.Request.Context(), h.DB, plan)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to query records."})
		return
	}

	customLog.Printf("Handler: Listed %d/%d records from table '%s' for user %s", len(results), total, cfg.Name, ident.UserID)
	c.JSON(http.StatusOK, models.ListResponse{
		Data:       results,
		Pagination: core.Paginate(total, page.Limit, page.Offset),
		Warnings:   warnings,
	})
}

// GetRecord handles retrieving a single record by ID.
func (h *RecordHandler) GetRecord(c *gin.Context) {
	cfg, ok := h.tableConfig(c)
	if !ok {
		return
	}
	ident := middleware.IdentityFromContext(c)
	recordID := c.Param("record_id")

	if err := authz.Authorize(c.Request.Context(), h.DB, h.Perms.Current(), cfg, ident, domain.ActionView, recordID); err != nil {
		abortAuthz(c, err)
		return
	}

	record, err := storage.GetRecord(c.Request.Context(), h.DB, cfg, recordID)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, storage.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found."})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve record."})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// CreateRecord handles inserting a new record.
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	cfg, ok := h.tableConfig(c)
	if !ok {
		return
	}
	ident := middleware.IdentityFromContext(c)

	// Create has no owner/all distinction: any non-None level allows it.
	if h.Perms.Current().Resolve(ident.GroupID, cfg.Name, domain.ActionCreate) == domain.PermissionNone {
		abortAuthz(c, authz.ErrForbidden)
		return
	}

	var recordData map[string]any
	if err := c.ShouldBindJSON(&recordData); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body."})
		return
	}
	if len(recordData) == 0 {
		_ = c.Error(errors.New("empty request body"))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body cannot be empty."})
		return
	}

	// The creating user owns the record; the owner field cannot be spoofed
	// through the body.
	if cfg.OwnerField != "" {
		recordData[cfg.OwnerField] = ident.UserID
	}

	columns, values, err := buildWriteColumns(cfg, recordData)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lastID, err := storage.InsertRecord(c.Request.Context(), h.DB, cfg, columns, values)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, storage.ErrConstraintViolation) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Constraint violation."})
		} else if errors.Is(err, storage.ErrTypeMismatch) || errors.Is(err, storage.ErrColumnNotFound) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to insert record."})
		}
		return
	}

	customLog.Printf("Handler: Inserted record ID %d into table '%s' for user %s", lastID, cfg.Name, ident.UserID)
	c.JSON(http.StatusCreated, gin.H{
		"message":   "Record created successfully",
		"record_id": lastID,
	})
}

// UpdateRecord handles updating an existing record.
func (h *RecordHandler) UpdateRecord(c *gin.Context) {
	cfg, ok := h.tableConfig(c)
	if !ok {
		return
	}
	ident := middleware.IdentityFromContext(c)
	recordID := c.Param("record_id")

	if err := authz.Authorize(c.Request.Context(), h.DB, h.Perms.Current(), cfg, ident, domain.ActionEdit, recordID); err != nil {
		abortAuthz(c, err)
		return
	}

	var updateData map[string]any
	if err := c.ShouldBindJSON(&updateData); err != nil {
		_ = c.Error(fmt.Errorf("binding error: %w", err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON request body."})
		return
	}
	if len(updateData) == 0 {
		_ = c.Error(errors.New("empty request body for update"))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body cannot be empty for update."})
		return
	}

	// Ownership cannot be reassigned through the API.
	if cfg.OwnerField != "" {
		delete(updateData, cfg.OwnerField)
	}

	columns, values, err := buildWriteColumns(cfg, updateData)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := storage.UpdateRecord(c.Request.Context(), h.DB, cfg, recordID, columns, values); err != nil {
		_ = c.Error(err)
		if errors.Is(err, storage.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found for update."})
		} else if errors.Is(err, storage.ErrConstraintViolation) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Constraint violation."})
		} else if errors.Is(err, storage.ErrTypeMismatch) || errors.Is(err, storage.ErrColumnNotFound) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update record."})
		}
		return
	}

	customLog.Printf("Handler: Updated record ID %s in table '%s' for user %s", recordID, cfg.Name, ident.UserID)
	c.JSON(http.StatusOK, gin.H{
		"message":   "Record updated successfully",
		"record_id": recordID,
	})
}

// DeleteRecord handles deleting a specific record by ID.
func (h *RecordHandler) DeleteRecord(c *gin.Context) {
	cfg, ok := h.tableConfig(c)
	if !ok {
		return
	}
	ident := middleware.IdentityFromContext(c)
	recordID := c.Param("record_id")

	if err := authz.Authorize(c.Request.Context(), h.DB, h.Perms.Current(), cfg, ident, domain.ActionDelete, recordID); err != nil {
		abortAuthz(c, err)
		return
	}

	if err := storage.DeleteRecord(c.Request.Context(), h.DB, cfg, recordID); err != nil {
		_ = c.Error(err)
		if errors.Is(err, storage.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Record not found for deletion."})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record."})
		}
		return
	}

	customLog.Printf("Handler: Deleted record ID %s from table '%s' for user %s", recordID, cfg.Name, ident.UserID)
	c.Status(http.StatusNoContent)
}

// buildWriteColumns validates a write body against the table configuration:
// only declared fields other than the primary key are accepted, and every
// value must match the field's declared type.
func buildWriteColumns(cfg *schema.TableConfig, data map[string]any) ([]string, []any, error) {
	var columns []string
	var values []any

	for _, field := range cfg.Fields {
		if field == cfg.PrimaryKey {
			continue
		}
		val, present := data[field]
		if !present {
			continue
		}
		if !schema.ValidateValue(cfg.FieldType(field), val) {
			return nil, nil, fmt.Errorf("invalid data type for column '%s'. Expected compatible with %s", field, cfg.FieldType(field))
		}
		columns = append(columns, field)
		values = append(values, val)
	}

	for key := range data {
		if key == cfg.PrimaryKey {
			return nil, nil, errors.New("primary key cannot be set through the request body")
		}
		if !cfg.HasField(key) {
			return nil, nil, fmt.Errorf("column %q does not exist", key)
		}
	}

	if len(columns) == 0 {
		return nil, nil, errors.New("no valid columns found in request body")
	}
	return columns, values, nil
}
