// internal/storage/record_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/tabula-io/tabula-backend/internal/core"
	"github.com/tabula-io/tabula-backend/internal/schema"
)

// Specific errors for record operations
var (
	ErrRecordNotFound      = errors.New("record not found")
	ErrTableNotFound       = errors.New("table not found")      // Derived from specific error strings
	ErrColumnNotFound      = errors.New("column not found")     // Derived
	ErrTypeMismatch        = errors.New("datatype mismatch")    // Derived
	ErrConstraintViolation = errors.New("constraint violation") // Derived
)

// mapExecError translates driver errors into the storage sentinels.
func mapExecError(err error) error {
	if strings.Contains(err.Error(), "no such table") { // Brittle check
		return ErrTableNotFound
	}
	if strings.Contains(err.Error(), "has no column named") || strings.Contains(err.Error(), "no such column") {
		return ErrColumnNotFound
	}
	if strings.Contains(err.Error(), "datatype mismatch") {
		return ErrTypeMismatch
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrConstraintViolation
	}
	return nil
}

// CountRecords executes the plan's COUNT statement. The total reflects the
// WHERE clause only, never limit/offset.
func CountRecords(ctx context.Context, db *sql.DB, plan *core.QueryPlan) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("request aborted before count: %w", err)
	}

	query, args := plan.CountSQL()
	var total int64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		customLog.Printf("Storage: Failed COUNT: %v\nSQL: %s", err, query)
		if mapped := mapExecError(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("database error counting records: %w", err)
	}
	return total, nil
}

// ListRecords executes the plan's SELECT statement and scans the page of rows.
func ListRecords(ctx context.Context, db *sql.DB, plan *core.QueryPlan) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request aborted before select: %w", err)
	}

	query, args := plan.SelectSQL()
	customLog.Printf("Storage: Executing List Records SQL: %s | Args: %v", query, args)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		customLog.Printf("Storage: Failed filtered SELECT: %v\nSQL: %s", err, query)
		if mapped := mapExecError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("database error listing records: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// GetRecord fetches a single record by primary key.
func GetRecord(ctx context.Context, db *sql.DB, cfg *schema.TableConfig, recordID string) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("request aborted before select: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1;",
		strings.Join(cfg.Fields, ", "), cfg.Name, cfg.PrimaryKey)

	rows, err := db.QueryContext(ctx, query, recordID)
	if err != nil {
		customLog.Printf("Storage: Failed SELECT by ID: %v\nSQL: %s", err, query)
		if mapped := mapExecError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("database error getting record: %w", err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return records[0], nil
}

// InsertRecord inserts a record built from pre-validated columns and values,
// returning the last insert id.
func InsertRecord(ctx context.Context, db *sql.DB, cfg *schema.TableConfig, columns []string, values []any) (int64, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		cfg.Name, strings.Join(columns, ", "), placeholders)

	result, err := db.ExecContext(ctx, insertSQL, values...)
	if err != nil {
		customLog.Printf("Storage: Failed INSERT: %v\nSQL: %s", err, insertSQL)
		if mapped := mapExecError(err); mapped != nil {
			return 0, mapped
		}
		return 0, fmt.Errorf("database error during insert: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		customLog.Printf("Storage: Failed to get LastInsertId after INSERT: %v", err)
		return 0, fmt.Errorf("failed to retrieve ID after insert: %w", err)
	}
	return lastID, nil
}

// UpdateRecord applies pre-validated column updates to one record.
// ErrRecordNotFound when the primary key matched no row.
func UpdateRecord(ctx context.Context, db *sql.DB, cfg *schema.TableConfig, recordID string, columns []string, values []any) error {
	setClauses := make([]string, len(columns))
	for i, column := range columns {
		setClauses[i] = fmt.Sprintf("%s = ?", column)
	}
	updateSQL := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		cfg.Name, strings.Join(setClauses, ", "), cfg.PrimaryKey)

	args := append(append([]any{}, values...), recordID)
	result, err := db.ExecContext(ctx, updateSQL, args...)
	if err != nil {
		customLog.Printf("Storage: Failed UPDATE: %v\nSQL: %s", err, updateSQL)
		if mapped := mapExecError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("database error during update: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		customLog.Printf("Storage: Failed getting RowsAffected after UPDATE: %v", err)
		return fmt.Errorf("failed confirming update: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteRecord removes one record by primary key.
func DeleteRecord(ctx context.Context, db *sql.DB, cfg *schema.TableConfig, recordID string) error {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", cfg.Name, cfg.PrimaryKey)

	result, err := db.ExecContext(ctx, deleteSQL, recordID)
	if err != nil {
		customLog.Printf("Storage: Failed DELETE: %v\nSQL: %s", err, deleteSQL)
		if mapped := mapExecError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("database error during delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		customLog.Printf("Storage: Failed getting RowsAffected after DELETE: %v", err)
		return fmt.Errorf("failed confirming delete: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// scanRows reads every row into a map keyed by column name, normalizing
// []byte values to string for JSON encoding.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed processing results: %w", err)
	}
	numColumns := len(columns)
	results := make([]map[string]any, 0)

	for rows.Next() {
		scanArgs := make([]any, numColumns)
		values := make([]any, numColumns)
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed reading record data: %w", err)
		}

		rowData := make(map[string]any, numColumns)
		for i, colName := range columns {
			if byteSlice, ok := values[i].([]byte); ok {
				rowData[colName] = string(byteSlice)
			} else {
				rowData[colName] = values[i]
			}
		}
		results = append(results, rowData)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed processing all records: %w", err)
	}

	return results, nil
}
