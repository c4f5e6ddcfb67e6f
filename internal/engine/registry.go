package engine

import (
	"strings"

	"minetrack/internal/domain"
)

// Registry is an ordered equipment snapshot. Setters mutate it in place.
type Registry []domain.Equipment

// StatusChange describes one registry status write.
type StatusChange struct {
	EquipmentID string                 `json:"equipment_id"`
	Name        string                 `json:"name"`
	From        domain.EquipmentStatus `json:"from"`
	To          domain.EquipmentStatus `json:"to"`
}

func (c StatusChange) Changed() bool { return c.From != c.To }

// List returns a copy of the registry.
func (r Registry) List() []domain.Equipment {
	out := make([]domain.Equipment, len(r))
	copy(out, r)
	return out
}

func (r Registry) indexByID(id string) int {
	for i := range r {
		if r[i].ID == id {
			return i
		}
	}
	return -1
}

// first case-insensitive exact name match
func (r Registry) indexByName(name string) int {
	for i := range r {
		if strings.EqualFold(r[i].Name, name) {
			return i
		}
	}
	return -1
}

func (r Registry) FindByID(id string) (domain.Equipment, bool) {
	if i := r.indexByID(id); i >= 0 {
		return r[i], true
	}
	return domain.Equipment{}, false
}

func (r Registry) FindByName(name string) (domain.Equipment, bool) {
	if i := r.indexByName(name); i >= 0 {
		return r[i], true
	}
	return domain.Equipment{}, false
}

func (r Registry) set(i int, status domain.EquipmentStatus) StatusChange {
	c := StatusChange{EquipmentID: r[i].ID, Name: r[i].Name, From: r[i].Status, To: status}
	r[i].Status = status
	return c
}

// SetStatus sets the status of the equipment with identifier id. The bool is
// false when nothing matched and the registry is untouched.
func (r Registry) SetStatus(id string, status domain.EquipmentStatus) (StatusChange, bool) {
	i := r.indexByID(id)
	if i < 0 {
		return StatusChange{}, false
	}
	return r.set(i, status), true
}

// SetStatusByName is SetStatus keyed by case-insensitive name.
func (r Registry) SetStatusByName(name string, status domain.EquipmentStatus) (StatusChange, bool) {
	i := r.indexByName(name)
	if i < 0 {
		return StatusChange{}, false
	}
	return r.set(i, status), true
}

func (r Registry) SetDown(name string) (StatusChange, bool) {
	return r.SetStatusByName(name, domain.EquipmentDown)
}

func (r Registry) SetRunning(name string) (StatusChange, bool) {
	return r.SetStatusByName(name, domain.EquipmentRunning)
}
