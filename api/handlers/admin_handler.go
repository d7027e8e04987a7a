// api/handlers/admin_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tabula-io/tabula-backend/api/middleware"
	"github.com/tabula-io/tabula-backend/config"
	"github.com/tabula-io/tabula-backend/internal/authz"
)

// AdminHandler holds dependencies for administrative operations.
type AdminHandler struct {
	DB    *sql.DB
	Cfg   *config.Config
	Perms *authz.Store
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, cfg *config.Config, perms *authz.Store) *AdminHandler {
	return &AdminHandler{DB: db, Cfg: cfg, Perms: perms}
}

// ReloadPermissions swaps in a fresh permission snapshot. This and process
// start are the only points where permissions change; requests in flight
// keep the snapshot they started with.
func (h *AdminHandler) ReloadPermissions(c *gin.Context) {
	ident := middleware.IdentityFromContext(c)
	if ident.GroupID != h.Cfg.AdminGroup {
		abortAuthz(c, authz.ErrForbidden)
		return
	}

	if err := h.Perms.Reload(c.Request.Context(), h.DB); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload permissions."})
		return
	}

	customLog.Printf("Handler: Permission snapshot reloaded by user %s", ident.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "Permissions reloaded successfully"})
}
