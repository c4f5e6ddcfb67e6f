package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minetrack/internal/domain"
)

func TestDowntimeTransitionTable(t *testing.T) {
	statuses := []domain.DowntimeStatus{domain.DowntimeOpen, domain.DowntimeInProgress, domain.DowntimeClosed}
	allowed := map[[2]domain.DowntimeStatus]bool{
		{domain.DowntimeOpen, domain.DowntimeInProgress}:   true,
		{domain.DowntimeInProgress, domain.DowntimeClosed}: true,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			err := domain.EnsureDowntimeTransition(from, to)
			if allowed[[2]domain.DowntimeStatus{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
			var te domain.TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
		}
	}
}

func TestEnumsValid(t *testing.T) {
	assert.Len(t, domain.Roles, 10)
	for _, r := range domain.Roles {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, domain.Role("janitor").Valid())
	assert.Len(t, domain.Causes, 7)
	assert.Equal(t, "Scheduled Maintenance", domain.CauseScheduled.Label())
	assert.False(t, domain.Cause("gremlins").Valid())
	assert.True(t, domain.EquipmentUnderRepair.OutOfService())
	assert.False(t, domain.EquipmentIdle.OutOfService())
}

func TestDowntimeDuration(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	d := domain.DowntimeEvent{Status: domain.DowntimeClosed, StartTime: start, EndTime: &end}
	got, ok := d.Duration()
	require.True(t, ok)
	assert.Equal(t, 90*time.Minute, got)

	d.Status = domain.DowntimeInProgress
	_, ok = d.Duration()
	assert.False(t, ok)
}
