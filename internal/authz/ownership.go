// internal/authz/ownership.go
package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tabula-io/tabula-backend/internal/domain"
	"github.com/tabula-io/tabula-backend/internal/schema"
)

// IsOwner reports whether the caller owns the record. A table without an
// owner field has no row-level ownership concept, so the check is false for
// any identity and record id. A record that does not exist and a record owned
// by someone else are indistinguishable here.
func IsOwner(ctx context.Context, db *sql.DB, cfg *schema.TableConfig, ident domain.Identity, recordID string) (bool, error) {
	if cfg.OwnerField == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrPermissionCheck, err)
	}

	// Field names come from the validated TableConfig, never from the request.
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? AND %s = ? LIMIT 1;", cfg.Name, cfg.PrimaryKey, cfg.OwnerField)

	var one int
	err := db.QueryRowContext(ctx, query, recordID, ident.UserID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrPermissionCheck, err)
	}
	return true, nil
}

// Authorize applies the decision procedure for a single-record action:
// None denies, Group and All allow, Owner allows only when the ownership
// check confirms the caller owns the record.
func Authorize(ctx context.Context, db *sql.DB, snap *Snapshot, cfg *schema.TableConfig, ident domain.Identity, action domain.Action, recordID string) error {
	switch snap.Resolve(ident.GroupID, cfg.Name, action) {
	case domain.PermissionGroup, domain.PermissionAll:
		return nil
	case domain.PermissionOwner:
		owned, err := IsOwner(ctx, db, cfg, ident, recordID)
		if err != nil {
			return err
		}
		if !owned {
			return ErrForbidden
		}
		return nil
	}
	return ErrForbidden
}
