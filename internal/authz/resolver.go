// internal/authz/resolver.go
package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/tabula-io/tabula-backend/internal/domain"
)

var (
	// ErrForbidden denies a request. It carries no detail about why, so the
	// permission matrix never leaks through error bodies.
	ErrForbidden = errors.New("forbidden")
	// ErrPermissionCheck signals a storage failure while resolving or
	// checking permissions, never a policy decision.
	ErrPermissionCheck = errors.New("permission check failed")
)

// permissionRow holds the four per-action levels for one (group, table) pair.
type permissionRow struct {
	view   domain.PermissionLevel
	create domain.PermissionLevel
	edit   domain.PermissionLevel
	delete domain.PermissionLevel
}

// Snapshot is an immutable copy of the permissions table. It is read without
// synchronization; replacing it goes through the Store.
type Snapshot struct {
	rows map[string]permissionRow
}

func snapshotKey(groupID, tableName string) string {
	return groupID + "\x00" + tableName
}

// LoadSnapshot reads the full permissions table.
func LoadSnapshot(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	query := `SELECT group_id, table_name, action_view, action_create, action_edit, action_delete FROM permissions;`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionCheck, err)
	}
	defer rows.Close()

	snapshot := &Snapshot{rows: make(map[string]permissionRow)}
	for rows.Next() {
		var groupID, tableName string
		var view, create, edit, del int
		if err := rows.Scan(&groupID, &tableName, &view, &create, &edit, &del); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPermissionCheck, err)
		}
		snapshot.rows[snapshotKey(groupID, tableName)] = permissionRow{
			view:   clampLevel(view),
			create: clampLevel(create),
			edit:   clampLevel(edit),
			delete: clampLevel(del),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionCheck, err)
	}
	return snapshot, nil
}

// clampLevel maps out-of-range stored values to None (fail closed).
func clampLevel(level int) domain.PermissionLevel {
	if level < int(domain.PermissionNone) || level > int(domain.PermissionAll) {
		return domain.PermissionNone
	}
	return domain.PermissionLevel(level)
}

// Resolve returns the caller group's level for a table action. Missing rows
// resolve to None. Create has no owner/all distinction in practice, since no
// record exists yet to own: any non-None level is group-equivalent.
func (s *Snapshot) Resolve(groupID, tableName string, action domain.Action) domain.PermissionLevel {
	row, ok := s.rows[snapshotKey(groupID, tableName)]
	if !ok {
		return domain.PermissionNone
	}

	var level domain.PermissionLevel
	switch action {
	case domain.ActionView:
		level = row.view
	case domain.ActionCreate:
		level = row.create
	case domain.ActionEdit:
		level = row.edit
	case domain.ActionDelete:
		level = row.delete
	default:
		return domain.PermissionNone
	}

	if action == domain.ActionCreate && level != domain.PermissionNone {
		return domain.PermissionGroup
	}
	return level
}

// Store holds the current permission snapshot. Requests read an immutable
// snapshot; Reload swaps it only at startup or on explicit admin action.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewStore() *Store {
	return &Store{snap: &Snapshot{rows: make(map[string]permissionRow)}}
}

// Current returns the snapshot requests should resolve against.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Reload replaces the snapshot with a fresh read of the permissions table.
// On failure the previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context, db *sql.DB) error {
	snapshot, err := LoadSnapshot(ctx, db)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap = snapshot
	s.mu.Unlock()
	return nil
}
