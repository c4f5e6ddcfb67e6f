package domain

import (
	"errors"
	"fmt"
	"time"
)

type EquipmentStatus string

const (
	EquipmentRunning     EquipmentStatus = "running"
	EquipmentDown        EquipmentStatus = "down"
	EquipmentUnderRepair EquipmentStatus = "under_repair"
	EquipmentIdle        EquipmentStatus = "idle"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentRunning, EquipmentDown, EquipmentUnderRepair, EquipmentIdle:
		return true
	}
	return false
}

// OutOfService reports whether the status counts as "currently down" on the dashboard.
func (s EquipmentStatus) OutOfService() bool {
	return s == EquipmentDown || s == EquipmentUnderRepair
}

type Cause string

const (
	CauseMechanical    Cause = "mechanical"
	CauseElectrical    Cause = "electrical"
	CauseHydraulic     Cause = "hydraulic"
	CauseStructural    Cause = "structural"
	CauseOperatorError Cause = "operator_error"
	CauseScheduled     Cause = "scheduled"
	CauseOther         Cause = "other"
)

// Causes lists every cause in display order.
var Causes = []Cause{
	CauseMechanical,
	CauseElectrical,
	CauseHydraulic,
	CauseStructural,
	CauseOperatorError,
	CauseScheduled,
	CauseOther,
}

var causeLabels = map[Cause]string{
	CauseMechanical:    "Mechanical",
	CauseElectrical:    "Electrical",
	CauseHydraulic:     "Hydraulic",
	CauseStructural:    "Structural",
	CauseOperatorError: "Operator Error",
	CauseScheduled:     "Scheduled Maintenance",
	CauseOther:         "Other",
}

func (c Cause) Valid() bool {
	_, ok := causeLabels[c]
	return ok
}

func (c Cause) Label() string {
	if l, ok := causeLabels[c]; ok {
		return l
	}
	return string(c)
}

type DowntimeStatus string

const (
	DowntimeOpen       DowntimeStatus = "open"
	DowntimeInProgress DowntimeStatus = "in_progress"
	DowntimeClosed     DowntimeStatus = "closed"
)

func (s DowntimeStatus) Valid() bool {
	switch s {
	case DowntimeOpen, DowntimeInProgress, DowntimeClosed:
		return true
	}
	return false
}

// Active reports whether the event still counts against its equipment.
func (s DowntimeStatus) Active() bool {
	return s != DowntimeClosed
}

var ErrInvalidTransition = errors.New("invalid downtime transition")

// TransitionError describes a rejected edge of the downtime state machine.
type TransitionError struct {
	From DowntimeStatus
	To   DowntimeStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid downtime transition %s -> %s", e.From, e.To)
}

func (e TransitionError) Unwrap() error { return ErrInvalidTransition }

// EnsureDowntimeTransition accepts open -> in_progress and in_progress -> closed only.
func EnsureDowntimeTransition(from, to DowntimeStatus) error {
	switch from {
	case DowntimeOpen:
		if to == DowntimeInProgress {
			return nil
		}
	case DowntimeInProgress:
		if to == DowntimeClosed {
			return nil
		}
	}
	return TransitionError{From: from, To: to}
}

type Equipment struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	MachineType      string          `json:"machine_type"`
	Section          string          `json:"section"`
	Location         string          `json:"location,omitempty"`
	Status           EquipmentStatus `json:"status" enum:"running,down,under_repair,idle"`
	SerialNumber     string          `json:"serial_number,omitempty"`
	InstallationDate string          `json:"installation_date,omitempty"`
	LastMaintenance  string          `json:"last_maintenance,omitempty"`
}

// DowntimeEvent is one breakdown record. EquipmentID is the name slug;
// EquipmentRef is the registry id used to resolve the equipment on close.
type DowntimeEvent struct {
	ID            string         `json:"id"`
	EquipmentID   string         `json:"equipment_id"`
	EquipmentRef  string         `json:"equipment_ref,omitempty"`
	EquipmentName string         `json:"equipment_name"`
	EquipmentType string         `json:"equipment_type"`
	Section       string         `json:"section"`
	ReportedBy    string         `json:"reported_by"`
	StartTime     time.Time      `json:"start_time" format:"date-time"`
	EndTime       *time.Time     `json:"end_time,omitempty" format:"date-time"`
	Description   string         `json:"description"`
	Cause         Cause          `json:"cause" enum:"mechanical,electrical,hydraulic,structural,operator_error,scheduled,other"`
	Status        DowntimeStatus `json:"status" enum:"open,in_progress,closed"`
	RootCause     string         `json:"root_cause,omitempty"`
	RepairNotes   string         `json:"repair_notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at" format:"date-time"`
}

// Duration returns end - start for closed events.
func (d DowntimeEvent) Duration() (time.Duration, bool) {
	if d.Status != DowntimeClosed || d.EndTime == nil {
		return 0, false
	}
	return d.EndTime.Sub(d.StartTime), true
}

type Session struct {
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	ZPNumber string `json:"zpNumber"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Actor      string `json:"actor"`
	Payload    string `json:"payload_json"`
}
