package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"minetrack/internal/domain"
)

func loadJSON(ctx context.Context, q querier, key string, dst any) error {
	data, err := getBlob(ctx, q, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%s: %w: %v", key, ErrMalformed, err)
	}
	return nil
}

func saveJSON(ctx context.Context, q querier, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return putBlob(ctx, q, key, data)
}

// Session returns the persisted identity claim. A blob missing any field is
// reported as malformed.
func (r Repo) Session(ctx context.Context) (domain.Session, error) {
	var s domain.Session
	if err := loadJSON(ctx, r.DB, KeySession, &s); err != nil {
		return domain.Session{}, err
	}
	if s.Name == "" || s.ZPNumber == "" || !s.Role.Valid() {
		return domain.Session{}, fmt.Errorf("%s: %w: incomplete session", KeySession, ErrMalformed)
	}
	return s, nil
}

func (r Repo) SaveSessionTx(ctx context.Context, tx *sql.Tx, s domain.Session) error {
	return saveJSON(ctx, tx, KeySession, s)
}

func (r Repo) DeleteSessionTx(ctx context.Context, tx *sql.Tx) error {
	return deleteBlob(ctx, tx, KeySession)
}

// Equipment returns the persisted registry snapshot.
func (r Repo) Equipment(ctx context.Context) ([]domain.Equipment, error) {
	return equipment(ctx, r.DB)
}

func (r Repo) EquipmentTx(ctx context.Context, tx *sql.Tx) ([]domain.Equipment, error) {
	return equipment(ctx, tx)
}

func equipment(ctx context.Context, q querier) ([]domain.Equipment, error) {
	var list []domain.Equipment
	if err := loadJSON(ctx, q, KeyEquipment, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("%s: %w: not a list", KeyEquipment, ErrMalformed)
	}
	return list, nil
}

func (r Repo) SaveEquipment(ctx context.Context, list []domain.Equipment) error {
	return r.saveEquipment(ctx, r.DB, list)
}

func (r Repo) SaveEquipmentTx(ctx context.Context, tx *sql.Tx, list []domain.Equipment) error {
	return r.saveEquipment(ctx, tx, list)
}

func (r Repo) saveEquipment(ctx context.Context, q querier, list []domain.Equipment) error {
	if list == nil {
		list = []domain.Equipment{}
	}
	return saveJSON(ctx, q, KeyEquipment, list)
}

// Downtimes returns the persisted ledger snapshot, newest first.
func (r Repo) Downtimes(ctx context.Context) ([]domain.DowntimeEvent, error) {
	return downtimes(ctx, r.DB)
}

func (r Repo) DowntimesTx(ctx context.Context, tx *sql.Tx) ([]domain.DowntimeEvent, error) {
	return downtimes(ctx, tx)
}

func downtimes(ctx context.Context, q querier) ([]domain.DowntimeEvent, error) {
	var list []domain.DowntimeEvent
	if err := loadJSON(ctx, q, KeyDowntimes, &list); err != nil {
		return nil, err
	}
	if list == nil {
		return nil, fmt.Errorf("%s: %w: not a list", KeyDowntimes, ErrMalformed)
	}
	return list, nil
}

func (r Repo) SaveDowntimes(ctx context.Context, list []domain.DowntimeEvent) error {
	return r.saveDowntimes(ctx, r.DB, list)
}

func (r Repo) SaveDowntimesTx(ctx context.Context, tx *sql.Tx, list []domain.DowntimeEvent) error {
	return r.saveDowntimes(ctx, tx, list)
}

func (r Repo) saveDowntimes(ctx context.Context, q querier, list []domain.DowntimeEvent) error {
	if list == nil {
		list = []domain.DowntimeEvent{}
	}
	return saveJSON(ctx, q, KeyDowntimes, list)
}
