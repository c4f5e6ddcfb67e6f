package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetrack/internal/domain"
	"minetrack/internal/engine"
	"minetrack/internal/repo"
)

func TestEquipmentSlug(t *testing.T) {
	assert.Equal(t, "lhd-201", engine.EquipmentSlug("LHD 201"))
	assert.Equal(t, "drill-rig-101", engine.EquipmentSlug("Drill  Rig\t101"))
	assert.Equal(t, "utility-601", engine.EquipmentSlug("Utility 601"))
}

func TestLedgerReportPrepends(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	var led engine.Ledger
	led, first, err := led.Report(engine.NewDowntime{EquipmentName: "LHD 201", Description: "a", Cause: domain.CauseMechanical}, "1", now)
	require.NoError(t, err)
	led, second, err := led.Report(engine.NewDowntime{EquipmentName: "LHD 201", Description: "b", Cause: domain.CauseOther}, "2", now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, led, 2)
	assert.Equal(t, second.ID, led[0].ID)
	assert.Equal(t, first.ID, led[1].ID)
	assert.Equal(t, now, first.StartTime)
	assert.Equal(t, now, first.CreatedAt)
	assert.Len(t, led.Active(), 2)

	got, ok := led.FindActiveForEquipment("lhd 201")
	require.True(t, ok)
	assert.Equal(t, "2", got.ID, "most recent insertion wins")
}

func TestLedgerReportValidates(t *testing.T) {
	var led engine.Ledger
	_, _, err := led.Report(engine.NewDowntime{EquipmentName: "LHD 201", Description: "a"}, "1", time.Now())
	var ve engine.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "cause", ve.Field)
}

func TestLedgerReportRejectsBlankText(t *testing.T) {
	var led engine.Ledger
	_, _, err := led.Report(engine.NewDowntime{EquipmentName: "   ", Description: "conveyor stalled", Cause: domain.CauseOther}, "1", time.Now())
	var ve engine.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "equipment_name", ve.Field)

	_, _, err = led.Report(engine.NewDowntime{EquipmentName: "LHD 201", Description: " \t ", Cause: domain.CauseOther}, "1", time.Now())
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "description", ve.Field)

	led, ev, err := led.Report(engine.NewDowntime{EquipmentName: "  LHD 201 ", Description: " hose burst ", Cause: domain.CauseHydraulic}, "1", time.Now())
	require.NoError(t, err)
	require.Len(t, led, 1)
	assert.Equal(t, "LHD 201", ev.EquipmentName)
	assert.Equal(t, "lhd-201", ev.EquipmentID)
	assert.Equal(t, "hose burst", ev.Description)
}

func TestLedgerTransitions(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	led := engine.Ledger{{ID: "x", EquipmentName: "LHD 201", Status: domain.DowntimeOpen, StartTime: start}}

	_, err := led.StartRepair("missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = led.Close("missing", "rc", "", start)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, err = led.Close("x", "rc", "", start)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.DowntimeOpen, led[0].Status)

	_, err = led.StartRepair("x")
	require.NoError(t, err)
	_, err = led.Close("x", "", "", start)
	var ve engine.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Nil(t, led[0].EndTime)

	closed, err := led.Close("x", "rc", "", start.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, start, *closed.EndTime, "end never precedes start")
	assert.Empty(t, closed.RepairNotes)
	assert.Empty(t, led.Active())
	_, ok := led.FindActiveForEquipment("LHD 201")
	assert.False(t, ok)
}

func TestFindActiveForEquipmentID(t *testing.T) {
	led := engine.Ledger{
		{ID: "3", EquipmentRef: "7", Status: domain.DowntimeClosed},
		{ID: "2", EquipmentRef: "7", Status: domain.DowntimeInProgress},
		{ID: "1", EquipmentRef: "", EquipmentName: "x", Status: domain.DowntimeOpen},
	}
	got, ok := led.FindActiveForEquipmentID("7")
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)
	_, ok = led.FindActiveForEquipmentID("")
	assert.False(t, ok)
}

func TestNavigationFor(t *testing.T) {
	nav := engine.NavigationFor(domain.RoleAdmin)
	assert.Equal(t, engine.DestDashboard, nav.Landing)
	assert.Len(t, nav.Items, 4)

	nav = engine.NavigationFor(domain.RoleOperator)
	assert.Equal(t, engine.DestEquipment, nav.Landing)
	keys := []string{}
	for _, it := range nav.Items {
		keys = append(keys, it.Key)
	}
	assert.Equal(t, []string{engine.DestEquipment, engine.DestReportDowntime}, keys)

	assert.Empty(t, engine.NavigationFor("janitor").Items)
}
