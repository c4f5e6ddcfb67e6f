package engine

import (
	"context"
	"io"

	"minetrack/internal/dashboard"
	"minetrack/internal/domain"
	"minetrack/internal/engine/auth"
	"minetrack/internal/export"
	"minetrack/internal/repo"
)

func (e Engine) ListEquipment(ctx context.Context, actor domain.Session) ([]domain.Equipment, error) {
	if err := authorize(actor, auth.ViewEquipment); err != nil {
		return nil, err
	}
	reg, err := e.registry(ctx, nil)
	if err != nil {
		return nil, err
	}
	return reg.List(), nil
}

// ListDowntimes returns the whole ledger, newest first.
func (e Engine) ListDowntimes(ctx context.Context, actor domain.Session) ([]domain.DowntimeEvent, error) {
	if err := authorize(actor, auth.ViewDowntimeList); err != nil {
		return nil, err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return nil, err
	}
	return []domain.DowntimeEvent(led), nil
}

func (e Engine) ListActive(ctx context.Context, actor domain.Session) ([]domain.DowntimeEvent, error) {
	if err := authorize(actor, auth.ViewDowntimeList); err != nil {
		return nil, err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return nil, err
	}
	return led.Active(), nil
}

// FindActiveForEquipment looks up the newest active downtime by equipment
// name. found is false when there is none, including for equipment marked
// down by hand.
func (e Engine) FindActiveForEquipment(ctx context.Context, actor domain.Session, name string) (domain.DowntimeEvent, bool, error) {
	if err := authorize(actor, auth.ViewEquipment); err != nil {
		return domain.DowntimeEvent{}, false, err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return domain.DowntimeEvent{}, false, err
	}
	ev, found := led.FindActiveForEquipment(name)
	return ev, found, nil
}

func (e Engine) FindActiveForEquipmentID(ctx context.Context, actor domain.Session, id string) (domain.DowntimeEvent, bool, error) {
	if err := authorize(actor, auth.ViewEquipment); err != nil {
		return domain.DowntimeEvent{}, false, err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return domain.DowntimeEvent{}, false, err
	}
	ev, found := led.FindActiveForEquipmentID(id)
	return ev, found, nil
}

func (e Engine) Dashboard(ctx context.Context, actor domain.Session) (dashboard.Metrics, error) {
	if err := authorize(actor, auth.ViewDashboard); err != nil {
		return dashboard.Metrics{}, err
	}
	reg, err := e.registry(ctx, nil)
	if err != nil {
		return dashboard.Metrics{}, err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return dashboard.Metrics{}, err
	}
	return dashboard.Compute(reg, led, e.now()), nil
}

// DriftEntry is an equipment whose status disagrees with the ledger.
type DriftEntry struct {
	Equipment      domain.Equipment `json:"equipment"`
	ActiveDowntime []string         `json:"active_downtimes"`
	Reason         string           `json:"reason"`
}

const (
	DriftDownWithoutEvent = "out of service without an active downtime"
	DriftRunningWithEvent = "in service with an active downtime"
)

// Drift reports registry entries inconsistent with ledger state. It never
// writes.
func (e Engine) Drift(ctx context.Context, actor domain.Session) ([]DriftEntry, error) {
	if err := authorize(actor, auth.ViewDashboard); err != nil {
		return nil, err
	}
	reg, err := e.registry(ctx, nil)
	if err != nil {
		return nil, err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := []DriftEntry{}
	for _, eq := range reg {
		active := led.activeFor(eq)
		ids := make([]string, 0, len(active))
		for _, ev := range active {
			ids = append(ids, ev.ID)
		}
		switch {
		case eq.Status.OutOfService() && len(active) == 0:
			out = append(out, DriftEntry{Equipment: eq, ActiveDowntime: ids, Reason: DriftDownWithoutEvent})
		case !eq.Status.OutOfService() && len(active) > 0:
			out = append(out, DriftEntry{Equipment: eq, ActiveDowntime: ids, Reason: DriftRunningWithEvent})
		}
	}
	return out, nil
}

// ExportDowntimes writes the ledger to w.
func (e Engine) ExportDowntimes(ctx context.Context, actor domain.Session, w io.Writer, format export.Format) error {
	if err := authorize(actor, auth.ViewDashboard); err != nil {
		return err
	}
	led, err := e.ledger(ctx, nil)
	if err != nil {
		return err
	}
	return export.Downtimes(w, led, format)
}

// AuditLog returns audit events newest first.
func (e Engine) AuditLog(ctx context.Context, actor domain.Session, limit int, f repo.EventFilter) ([]domain.Event, error) {
	if err := authorize(actor, auth.ViewDowntimeList); err != nil {
		return nil, err
	}
	return e.Repo.LatestEvents(ctx, limit, f)
}
