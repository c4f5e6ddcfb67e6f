package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"minetrack/internal/domain"
)

// Keys of the three persisted collections.
const (
	KeySession   = "minetrack_user"
	KeyEquipment = "minetrack_equipment"
	KeyDowntimes = "minetrack_downtimes"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound  = errors.New("not found")
	ErrMalformed = errors.New("malformed blob")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getBlob(ctx context.Context, q querier, key string) ([]byte, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM blobs WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func putBlob(ctx context.Context, q querier, key string, value []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := q.ExecContext(ctx, `INSERT INTO blobs(key,value,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, string(value), now)
	return err
}

func deleteBlob(ctx context.Context, q querier, key string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM blobs WHERE key=?`, key)
	return err
}

// GetBlob returns the raw value stored under key, or ErrNotFound.
func (r Repo) GetBlob(ctx context.Context, key string) ([]byte, error) {
	return getBlob(ctx, r.DB, key)
}

func (r Repo) GetBlobTx(ctx context.Context, tx *sql.Tx, key string) ([]byte, error) {
	return getBlob(ctx, tx, key)
}

// PutBlob replaces the value stored under key.
func (r Repo) PutBlob(ctx context.Context, key string, value []byte) error {
	return putBlob(ctx, r.DB, key, value)
}

func (r Repo) PutBlobTx(ctx context.Context, tx *sql.Tx, key string, value []byte) error {
	return putBlob(ctx, tx, key, value)
}

// DeleteBlob removes key. Deleting a missing key is not an error.
func (r Repo) DeleteBlob(ctx context.Context, key string) error {
	return deleteBlob(ctx, r.DB, key)
}

func (r Repo) DeleteBlobTx(ctx context.Context, tx *sql.Tx, key string) error {
	return deleteBlob(ctx, tx, key)
}

// EventFilter narrows LatestEvents. Zero fields match everything.
type EventFilter struct {
	Type       string
	EntityKind string
	EntityID   string
	Before     int64
}

// LatestEvents returns audit events newest first.
func (r Repo) LatestEvents(ctx context.Context, limit int, f EventFilter) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if f.Before > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Before)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,entity_id,actor,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var entityID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entityID, &e.Actor, &e.Payload); err != nil {
			return nil, err
		}
		e.EntityID = entityID.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// CountEvents returns the number of audit events of the given type, or all when empty.
func (r Repo) CountEvents(ctx context.Context, evtType string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE (?='' OR type=?)`, evtType, evtType).Scan(&n)
	return n, err
}
