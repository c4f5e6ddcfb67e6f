package engine

import (
	"regexp"
	"strings"
	"time"

	"minetrack/internal/domain"
	"minetrack/internal/repo"
)

// Ledger is the downtime history, newest first. StartRepair and Close mutate
// it in place; Report returns the extended ledger.
type Ledger []domain.DowntimeEvent

// NewDowntime is the validated input of Ledger.Report.
type NewDowntime struct {
	EquipmentName string       `json:"equipment_name" validate:"required,max=120"`
	EquipmentRef  string       `json:"equipment_ref"`
	EquipmentType string       `json:"equipment_type"`
	Section       string       `json:"section"`
	ReportedBy    string       `json:"reported_by"`
	Description   string       `json:"description" validate:"required,max=2000"`
	Cause         domain.Cause `json:"cause" validate:"required,oneof=mechanical electrical hydraulic structural operator_error scheduled other"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// EquipmentSlug derives the secondary key stored as equipment_id.
func EquipmentSlug(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// Report prepends a new open event. It accepts a second open event for the
// same equipment. Text fields are trimmed before validation.
func (l Ledger) Report(in NewDowntime, id string, now time.Time) (Ledger, domain.DowntimeEvent, error) {
	in.EquipmentName = strings.TrimSpace(in.EquipmentName)
	in.EquipmentType = strings.TrimSpace(in.EquipmentType)
	in.Section = strings.TrimSpace(in.Section)
	in.ReportedBy = strings.TrimSpace(in.ReportedBy)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return l, domain.DowntimeEvent{}, err
	}
	ev := domain.DowntimeEvent{
		ID:            id,
		EquipmentID:   EquipmentSlug(in.EquipmentName),
		EquipmentRef:  in.EquipmentRef,
		EquipmentName: in.EquipmentName,
		EquipmentType: in.EquipmentType,
		Section:       in.Section,
		ReportedBy:    in.ReportedBy,
		StartTime:     now,
		Description:   in.Description,
		Cause:         in.Cause,
		Status:        domain.DowntimeOpen,
		CreatedAt:     now,
	}
	out := make(Ledger, 0, len(l)+1)
	out = append(out, ev)
	out = append(out, l...)
	return out, ev, nil
}

func (l Ledger) index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the event with identifier id.
func (l Ledger) Get(id string) (domain.DowntimeEvent, bool) {
	if i := l.index(id); i >= 0 {
		return l[i], true
	}
	return domain.DowntimeEvent{}, false
}

// StartRepair moves an open event to in_progress.
func (l Ledger) StartRepair(id string) (domain.DowntimeEvent, error) {
	i := l.index(id)
	if i < 0 {
		return domain.DowntimeEvent{}, repo.ErrNotFound
	}
	if err := domain.EnsureDowntimeTransition(l[i].Status, domain.DowntimeInProgress); err != nil {
		return l[i], err
	}
	l[i].Status = domain.DowntimeInProgress
	return l[i], nil
}

// Close moves an in_progress event to closed, stamping end time and repair
// details. rootCause must be non-blank; repairNotes may be empty.
func (l Ledger) Close(id, rootCause, repairNotes string, now time.Time) (domain.DowntimeEvent, error) {
	i := l.index(id)
	if i < 0 {
		return domain.DowntimeEvent{}, repo.ErrNotFound
	}
	if strings.TrimSpace(rootCause) == "" {
		return l[i], ValidationError{Field: "root_cause", Reason: "is required"}
	}
	if err := domain.EnsureDowntimeTransition(l[i].Status, domain.DowntimeClosed); err != nil {
		return l[i], err
	}
	if now.Before(l[i].StartTime) {
		now = l[i].StartTime
	}
	end := now
	l[i].Status = domain.DowntimeClosed
	l[i].EndTime = &end
	l[i].RootCause = rootCause
	l[i].RepairNotes = repairNotes
	return l[i], nil
}

// Active returns every non-closed event in ledger order.
func (l Ledger) Active() []domain.DowntimeEvent {
	out := []domain.DowntimeEvent{}
	for _, ev := range l {
		if ev.Status.Active() {
			out = append(out, ev)
		}
	}
	return out
}

// FindActiveForEquipment returns the newest non-closed event whose equipment
// name matches case-insensitively.
func (l Ledger) FindActiveForEquipment(name string) (domain.DowntimeEvent, bool) {
	for _, ev := range l {
		if ev.Status.Active() && strings.EqualFold(ev.EquipmentName, name) {
			return ev, true
		}
	}
	return domain.DowntimeEvent{}, false
}

// FindActiveForEquipmentID is the rename-safe lookup by registry id.
func (l Ledger) FindActiveForEquipmentID(ref string) (domain.DowntimeEvent, bool) {
	if ref == "" {
		return domain.DowntimeEvent{}, false
	}
	for _, ev := range l {
		if ev.Status.Active() && ev.EquipmentRef == ref {
			return ev, true
		}
	}
	return domain.DowntimeEvent{}, false
}

// activeFor returns every non-closed event referencing eq, by ref or, for
// events without a ref, by name.
func (l Ledger) activeFor(eq domain.Equipment) []domain.DowntimeEvent {
	var out []domain.DowntimeEvent
	for _, ev := range l {
		if !ev.Status.Active() {
			continue
		}
		if ev.EquipmentRef == eq.ID || (ev.EquipmentRef == "" && strings.EqualFold(ev.EquipmentName, eq.Name)) {
			out = append(out, ev)
		}
	}
	return out
}
