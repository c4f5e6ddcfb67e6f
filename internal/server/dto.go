package server

import (
	"encoding/json"
	"time"

	"minetrack/internal/domain"
	"minetrack/internal/engine"
	"minetrack/internal/engine/auth"
)

// Request payloads

type LoginRequest struct {
	Name     string      `json:"name" minLength:"1"`
	Role     domain.Role `json:"role" enum:"operator,team_leader,supervisor,maintenance,engineer,overseer_miner,shift_boss,mine_captain,mine_manager,admin"`
	ZPNumber string      `json:"zpNumber" minLength:"1"`
}

type ReportRequest struct {
	EquipmentName string       `json:"equipment_name" minLength:"1"`
	EquipmentType string       `json:"equipment_type,omitempty" required:"false"`
	Section       string       `json:"section,omitempty" required:"false"`
	Description   string       `json:"description" minLength:"1"`
	Cause         domain.Cause `json:"cause" enum:"mechanical,electrical,hydraulic,structural,operator_error,scheduled,other"`
}

type CloseRequest struct {
	RootCause   string `json:"root_cause" minLength:"1"`
	RepairNotes string `json:"repair_notes,omitempty" required:"false"`
}

type StatusRequest struct {
	Status domain.EquipmentStatus `json:"status" enum:"running,down,under_repair,idle"`
}

// Responses

type SessionResponse struct {
	Token        string            `json:"token"`
	ExpiresAt    time.Time         `json:"expires_at" format:"date-time"`
	Session      domain.Session    `json:"session"`
	Capabilities auth.Capabilities `json:"capabilities"`
	Navigation   engine.Navigation `json:"navigation"`
}

type MeResponse struct {
	Session      domain.Session    `json:"session"`
	RoleLabel    string            `json:"role_label"`
	Capabilities auth.Capabilities `json:"capabilities"`
	Granted      []auth.Capability `json:"granted"`
}

type ActiveDowntimeResponse struct {
	Found    bool                  `json:"found"`
	Downtime *domain.DowntimeEvent `json:"downtime,omitempty"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Actor      string         `json:"actor"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func meResponse(s domain.Session) MeResponse {
	caps := auth.CapabilitiesFor(s.Role)
	return MeResponse{
		Session:      s,
		RoleLabel:    s.Role.Label(),
		Capabilities: caps,
		Granted:      caps.Granted(),
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Actor:      e.Actor,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
