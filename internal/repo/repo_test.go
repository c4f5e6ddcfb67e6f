package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetrack/internal/db"
	"minetrack/internal/domain"
	"minetrack/internal/events"
	"minetrack/internal/migrate"
	"minetrack/internal/repo"
)

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	return repo.Repo{DB: conn}
}

func TestBlobMissing(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	_, err := r.GetBlob(ctx, repo.KeyEquipment)
	assert.True(t, errors.Is(err, repo.ErrNotFound))
	_, err = r.Downtimes(ctx)
	assert.True(t, errors.Is(err, repo.ErrNotFound))
	_, err = r.Session(ctx)
	assert.True(t, errors.Is(err, repo.ErrNotFound))
	require.NoError(t, r.DeleteBlob(ctx, repo.KeySession))
}

func TestLedgerAndRegistryRoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 2, 6, 30, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)
	eq := []domain.Equipment{
		{ID: "1", Name: "LHD 201", MachineType: "LHD", Section: "Canaan", Location: "Canaan", Status: domain.EquipmentDown, SerialNumber: "SN-1"},
		{ID: "2", Name: "Truck 401", MachineType: "Truck", Section: "Eureka", Location: "Eureka", Status: domain.EquipmentIdle},
	}
	dts := []domain.DowntimeEvent{
		{ID: "b", EquipmentID: "lhd-201", EquipmentRef: "1", EquipmentName: "LHD 201", EquipmentType: "LHD", Section: "Canaan",
			ReportedBy: "Thabo", StartTime: start, Description: "hydraulic leak", Cause: domain.CauseHydraulic,
			Status: domain.DowntimeOpen, CreatedAt: start},
		{ID: "a", EquipmentID: "truck-401", EquipmentName: "Truck 401", EquipmentType: "Truck", Section: "Eureka",
			ReportedBy: "Lerato", StartTime: start, EndTime: &end, Description: "flat tyre", Cause: domain.CauseOther,
			Status: domain.DowntimeClosed, RootCause: "puncture", RepairNotes: "replaced", CreatedAt: start},
	}
	require.NoError(t, r.SaveEquipment(ctx, eq))
	require.NoError(t, r.SaveDowntimes(ctx, dts))

	gotEq, err := r.Equipment(ctx)
	require.NoError(t, err)
	assert.Equal(t, eq, gotEq)
	gotDts, err := r.Downtimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, dts, gotDts)
}

func TestEmptyLedgerIsAList(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.SaveDowntimes(ctx, nil))
	got, err := r.Downtimes(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMalformedBlobs(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	require.NoError(t, r.PutBlob(ctx, repo.KeyEquipment, []byte("{not json")))
	require.NoError(t, r.PutBlob(ctx, repo.KeyDowntimes, []byte("null")))
	require.NoError(t, r.PutBlob(ctx, repo.KeySession, []byte(`{"name":"x","role":"janitor","zpNumber":"1"}`)))

	_, err := r.Equipment(ctx)
	assert.True(t, errors.Is(err, repo.ErrMalformed), err)
	_, err = r.Downtimes(ctx)
	assert.True(t, errors.Is(err, repo.ErrMalformed), err)
	_, err = r.Session(ctx)
	assert.True(t, errors.Is(err, repo.ErrMalformed), err)
}

func TestLatestEvents(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	w := events.Writer{DB: r.DB}
	tx, err := r.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, w.Append(ctx, tx, events.DowntimeReported, "downtime", "d1", "Thabo", events.EventPayload{"cause": "mechanical"}))
	require.NoError(t, w.Append(ctx, tx, events.DowntimeRepairStarted, "downtime", "d1", "Sipho", nil))
	require.NoError(t, w.Append(ctx, tx, events.SessionLogout, "session", "", "", nil))
	require.NoError(t, tx.Commit())

	all, err := r.LatestEvents(ctx, 10, repo.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, events.SessionLogout, all[0].Type)
	assert.Equal(t, "anonymous", all[0].Actor)
	assert.Empty(t, all[0].EntityID)

	d1, err := r.LatestEvents(ctx, 10, repo.EventFilter{EntityKind: "downtime", EntityID: "d1"})
	require.NoError(t, err)
	require.Len(t, d1, 2)
	assert.JSONEq(t, `{"cause":"mechanical"}`, d1[1].Payload)

	older, err := r.LatestEvents(ctx, 10, repo.EventFilter{Before: all[0].ID})
	require.NoError(t, err)
	assert.Len(t, older, 2)

	n, err := r.CountEvents(ctx, events.DowntimeReported)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
