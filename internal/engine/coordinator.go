package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"minetrack/internal/domain"
	"minetrack/internal/engine/auth"
	"minetrack/internal/events"
	"minetrack/internal/repo"
)

const unknown = "Unknown"

// ReportInput is a breakdown report. Type and section default to the matched
// registry record, or "Unknown".
type ReportInput struct {
	EquipmentName string       `json:"equipment_name"`
	EquipmentType string       `json:"equipment_type,omitempty"`
	Section       string       `json:"section,omitempty"`
	Description   string       `json:"description"`
	Cause         domain.Cause `json:"cause"`
}

type ReportResult struct {
	Event     domain.DowntimeEvent `json:"event"`
	Equipment *StatusChange        `json:"equipment,omitempty"`
	// ConcurrentOpen lists other active events for the same equipment.
	ConcurrentOpen []string `json:"concurrent_open,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// ReportBreakdown records a new open downtime and marks the equipment down.
// Both writes commit together. An equipment name missing from the registry
// still records the event and returns a warning.
func (e Engine) ReportBreakdown(ctx context.Context, actor domain.Session, in ReportInput) (ReportResult, error) {
	if err := authorize(actor, auth.ReportDowntime); err != nil {
		return ReportResult{}, err
	}
	nd := NewDowntime{
		EquipmentName: strings.TrimSpace(in.EquipmentName),
		EquipmentType: strings.TrimSpace(in.EquipmentType),
		Section:       strings.TrimSpace(in.Section),
		ReportedBy:    strings.TrimSpace(actor.Name),
		Description:   strings.TrimSpace(in.Description),
		Cause:         in.Cause,
	}
	if err := validateStruct(nd); err != nil {
		return ReportResult{}, err
	}
	if nd.ReportedBy == "" {
		nd.ReportedBy = unknown
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return ReportResult{}, err
	}
	defer tx.Rollback()
	reg, err := e.registry(ctx, tx)
	if err != nil {
		return ReportResult{}, err
	}
	led, err := e.ledger(ctx, tx)
	if err != nil {
		return ReportResult{}, err
	}

	var res ReportResult
	eq, matched := reg.FindByName(nd.EquipmentName)
	if matched {
		nd.EquipmentRef = eq.ID
		if nd.EquipmentType == "" {
			nd.EquipmentType = eq.MachineType
		}
		if nd.Section == "" {
			nd.Section = eq.Section
		}
		for _, open := range led.activeFor(eq) {
			res.ConcurrentOpen = append(res.ConcurrentOpen, open.ID)
		}
	} else {
		for _, open := range led {
			if open.Status.Active() && strings.EqualFold(open.EquipmentName, nd.EquipmentName) {
				res.ConcurrentOpen = append(res.ConcurrentOpen, open.ID)
			}
		}
	}
	if nd.EquipmentType == "" {
		nd.EquipmentType = unknown
	}
	if nd.Section == "" {
		nd.Section = unknown
	}
	if len(res.ConcurrentOpen) > 0 {
		if e.config().Ledger.SingleOpenPerEquipment {
			return ReportResult{}, fmt.Errorf("%s: %w (%s)", nd.EquipmentName, ErrDuplicateOpen, strings.Join(res.ConcurrentOpen, ", "))
		}
		e.log().Warn("concurrent open downtime", zap.String("equipment", nd.EquipmentName), zap.Strings("open", res.ConcurrentOpen))
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s already has %d active downtime(s)", nd.EquipmentName, len(res.ConcurrentOpen)))
	}

	now := e.now()
	led, res.Event, err = led.Report(nd, e.newID(), now)
	if err != nil {
		return ReportResult{}, err
	}
	if matched {
		change, _ := reg.SetStatus(eq.ID, domain.EquipmentDown)
		res.Equipment = &change
	} else {
		e.log().Warn("reported equipment not in registry", zap.String("equipment", nd.EquipmentName), zap.String("downtime", res.Event.ID))
		res.Warnings = append(res.Warnings, fmt.Sprintf("equipment %q not in registry; status not updated", nd.EquipmentName))
	}

	if err := e.Repo.SaveDowntimesTx(ctx, tx, led); err != nil {
		return ReportResult{}, fmt.Errorf("save downtimes: %w", err)
	}
	if matched {
		if err := e.Repo.SaveEquipmentTx(ctx, tx, reg); err != nil {
			return ReportResult{}, fmt.Errorf("save equipment: %w", err)
		}
	}
	if err := e.events().Append(ctx, tx, events.DowntimeReported, "downtime", res.Event.ID, actor.Name, events.EventPayload{
		"equipment": res.Event.EquipmentName,
		"ref":       res.Event.EquipmentRef,
		"cause":     res.Event.Cause,
	}); err != nil {
		return ReportResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ReportResult{}, err
	}
	e.log().Info("downtime reported", zap.String("downtime", res.Event.ID), zap.String("equipment", res.Event.EquipmentName), zap.String("cause", string(res.Event.Cause)))
	return res, nil
}

// StartRepair moves an open downtime to in_progress. Equipment status is not touched.
func (e Engine) StartRepair(ctx context.Context, actor domain.Session, id string) (domain.DowntimeEvent, error) {
	if err := authorize(actor, auth.StartRepair); err != nil {
		return domain.DowntimeEvent{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.DowntimeEvent{}, err
	}
	defer tx.Rollback()
	led, err := e.ledger(ctx, tx)
	if err != nil {
		return domain.DowntimeEvent{}, err
	}
	ev, err := led.StartRepair(id)
	if err != nil {
		return ev, wrapLookup(err, "downtime", id)
	}
	if err := e.Repo.SaveDowntimesTx(ctx, tx, led); err != nil {
		return domain.DowntimeEvent{}, fmt.Errorf("save downtimes: %w", err)
	}
	if err := e.events().Append(ctx, tx, events.DowntimeRepairStarted, "downtime", id, actor.Name, events.EventPayload{
		"from": domain.DowntimeOpen, "to": domain.DowntimeInProgress,
	}); err != nil {
		return domain.DowntimeEvent{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DowntimeEvent{}, err
	}
	e.log().Info("repair started", zap.String("downtime", id), zap.String("equipment", ev.EquipmentName))
	return ev, nil
}

type CloseInput struct {
	ID          string `json:"id" validate:"required"`
	RootCause   string `json:"root_cause" validate:"required,max=2000"`
	RepairNotes string `json:"repair_notes" validate:"max=4000"`
}

type CloseResult struct {
	Event     domain.DowntimeEvent `json:"event"`
	Equipment *StatusChange        `json:"equipment,omitempty"`
	Warnings  []string             `json:"warnings,omitempty"`
}

// CloseDowntime closes an in_progress downtime and returns its equipment to
// running. The equipment is resolved by registry id, or by name for events
// recorded without one.
func (e Engine) CloseDowntime(ctx context.Context, actor domain.Session, in CloseInput) (CloseResult, error) {
	if err := authorize(actor, auth.CloseDowntime); err != nil {
		return CloseResult{}, err
	}
	in.ID = strings.TrimSpace(in.ID)
	in.RootCause = strings.TrimSpace(in.RootCause)
	in.RepairNotes = strings.TrimSpace(in.RepairNotes)
	if err := validateStruct(in); err != nil {
		return CloseResult{}, err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return CloseResult{}, err
	}
	defer tx.Rollback()
	reg, err := e.registry(ctx, tx)
	if err != nil {
		return CloseResult{}, err
	}
	led, err := e.ledger(ctx, tx)
	if err != nil {
		return CloseResult{}, err
	}
	var res CloseResult
	res.Event, err = led.Close(in.ID, in.RootCause, in.RepairNotes, e.now())
	if err != nil {
		return CloseResult{}, wrapLookup(err, "downtime", in.ID)
	}

	var change StatusChange
	var matched bool
	if res.Event.EquipmentRef != "" {
		change, matched = reg.SetStatus(res.Event.EquipmentRef, domain.EquipmentRunning)
	} else {
		change, matched = reg.SetRunning(res.Event.EquipmentName)
	}
	if matched {
		res.Equipment = &change
		eq, _ := reg.FindByID(change.EquipmentID)
		if rest := led.activeFor(eq); len(rest) > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s still has %d active downtime(s)", eq.Name, len(rest)))
		}
	} else {
		e.log().Warn("closed downtime equipment not in registry",
			zap.String("downtime", res.Event.ID), zap.String("equipment", res.Event.EquipmentName), zap.String("ref", res.Event.EquipmentRef))
		res.Warnings = append(res.Warnings, fmt.Sprintf("equipment %q not in registry; status not updated", res.Event.EquipmentName))
	}

	if err := e.Repo.SaveDowntimesTx(ctx, tx, led); err != nil {
		return CloseResult{}, fmt.Errorf("save downtimes: %w", err)
	}
	if matched {
		if err := e.Repo.SaveEquipmentTx(ctx, tx, reg); err != nil {
			return CloseResult{}, fmt.Errorf("save equipment: %w", err)
		}
	}
	if err := e.events().Append(ctx, tx, events.DowntimeClosed, "downtime", res.Event.ID, actor.Name, events.EventPayload{
		"root_cause": res.Event.RootCause,
		"equipment":  res.Event.EquipmentName,
	}); err != nil {
		return CloseResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return CloseResult{}, err
	}
	e.log().Info("downtime closed", zap.String("downtime", res.Event.ID), zap.String("equipment", res.Event.EquipmentName))
	return res, nil
}

// SetEquipmentStatus sets the status of one equipment by exact id. It never
// touches the ledger; resulting mismatches show up in Drift.
func (e Engine) SetEquipmentStatus(ctx context.Context, actor domain.Session, id string, status domain.EquipmentStatus) (StatusChange, error) {
	if err := authorize(actor, auth.ManageEquipment); err != nil {
		return StatusChange{}, err
	}
	if !status.Valid() {
		return StatusChange{}, ValidationError{Field: "status", Reason: "must be one of running down under_repair idle"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return StatusChange{}, err
	}
	defer tx.Rollback()
	reg, err := e.registry(ctx, tx)
	if err != nil {
		return StatusChange{}, err
	}
	change, ok := reg.SetStatus(id, status)
	if !ok {
		return StatusChange{}, fmt.Errorf("equipment %s: %w", id, repo.ErrNotFound)
	}
	if err := e.Repo.SaveEquipmentTx(ctx, tx, reg); err != nil {
		return StatusChange{}, fmt.Errorf("save equipment: %w", err)
	}
	if change.Changed() {
		if err := e.events().Append(ctx, tx, events.EquipmentStatus, "equipment", id, actor.Name, events.EventPayload{
			"from": change.From, "to": change.To,
		}); err != nil {
			return StatusChange{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return StatusChange{}, err
	}
	e.log().Info("equipment status set", zap.String("equipment", change.Name), zap.String("from", string(change.From)), zap.String("to", string(change.To)))
	return change, nil
}

func wrapLookup(err error, kind, id string) error {
	if err == repo.ErrNotFound {
		return fmt.Errorf("%s %s: %w", kind, id, repo.ErrNotFound)
	}
	return err
}
