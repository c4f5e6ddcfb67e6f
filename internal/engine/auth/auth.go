package auth

import (
	"fmt"

	"minetrack/internal/domain"
)

// Capability names one flag of the capability set.
type Capability string

const (
	ViewDashboard    Capability = "view-dashboard"
	ViewEquipment    Capability = "view-equipment"
	ReportDowntime   Capability = "report-downtime"
	ViewDowntimeList Capability = "view-downtime-list"
	StartRepair      Capability = "start-repair"
	CloseDowntime    Capability = "close-downtime"
	ManageEquipment  Capability = "manage-equipment"
	ManageUsers      Capability = "manage-users"
)

// AllCapabilities lists the eight flags in table order.
var AllCapabilities = []Capability{
	ViewDashboard,
	ViewEquipment,
	ReportDowntime,
	ViewDowntimeList,
	StartRepair,
	CloseDowntime,
	ManageEquipment,
	ManageUsers,
}

// ForbiddenError indicates a missing capability.
type ForbiddenError struct {
	Capability Capability
	Role       domain.Role
}

func (e ForbiddenError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("capability %s required", e.Capability)
	}
	return fmt.Sprintf("capability %s required (role %s)", e.Capability, e.Role)
}

// Capabilities is the fixed permission record derived from a role.
type Capabilities struct {
	ViewDashboard    bool `json:"view_dashboard"`
	ViewEquipment    bool `json:"view_equipment"`
	ReportDowntime   bool `json:"report_downtime"`
	ViewDowntimeList bool `json:"view_downtime_list"`
	StartRepair      bool `json:"start_repair"`
	CloseDowntime    bool `json:"close_downtime"`
	ManageEquipment  bool `json:"manage_equipment"`
	ManageUsers      bool `json:"manage_users"`
}

// Has reports whether want is granted. Unknown capabilities are never granted.
func (c Capabilities) Has(want Capability) bool {
	switch want {
	case ViewDashboard:
		return c.ViewDashboard
	case ViewEquipment:
		return c.ViewEquipment
	case ReportDowntime:
		return c.ReportDowntime
	case ViewDowntimeList:
		return c.ViewDowntimeList
	case StartRepair:
		return c.StartRepair
	case CloseDowntime:
		return c.CloseDowntime
	case ManageEquipment:
		return c.ManageEquipment
	case ManageUsers:
		return c.ManageUsers
	}
	return false
}

// Granted lists the granted flags in table order.
func (c Capabilities) Granted() []Capability {
	out := []Capability{}
	for _, want := range AllCapabilities {
		if c.Has(want) {
			out = append(out, want)
		}
	}
	return out
}

// Each role is listed independently; there is no inheritance between rows.
var policy = map[domain.Role]Capabilities{
	domain.RoleOperator: {
		ViewEquipment:  true,
		ReportDowntime: true,
	},
	domain.RoleTeamLeader: {
		ViewDashboard:  true,
		ViewEquipment:  true,
		ReportDowntime: true,
	},
	domain.RoleSupervisor: {
		ViewDashboard:  true,
		ViewEquipment:  true,
		ReportDowntime: true,
	},
	domain.RoleMaintenance: {
		ViewDashboard:    true,
		ViewEquipment:    true,
		ReportDowntime:   true,
		ViewDowntimeList: true,
		StartRepair:      true,
		CloseDowntime:    true,
	},
	domain.RoleEngineer: {
		ViewDashboard:    true,
		ViewEquipment:    true,
		ReportDowntime:   true,
		ViewDowntimeList: true,
		StartRepair:      true,
		CloseDowntime:    true,
	},
	domain.RoleOverseerMiner: {
		ViewDashboard:    true,
		ViewEquipment:    true,
		ReportDowntime:   true,
		ViewDowntimeList: true,
	},
	domain.RoleShiftBoss: {
		ViewDashboard:  true,
		ViewEquipment:  true,
		ReportDowntime: true,
	},
	domain.RoleMineCaptain: {
		ViewDashboard:    true,
		ViewEquipment:    true,
		ReportDowntime:   true,
		ViewDowntimeList: true,
		ManageEquipment:  true,
	},
	domain.RoleMineManager: {
		ViewDashboard:    true,
		ViewEquipment:    true,
		ReportDowntime:   true,
		ViewDowntimeList: true,
		ManageEquipment:  true,
		ManageUsers:      true,
	},
	domain.RoleAdmin: {
		ViewDashboard:    true,
		ViewEquipment:    true,
		ReportDowntime:   true,
		ViewDowntimeList: true,
		StartRepair:      true,
		CloseDowntime:    true,
		ManageEquipment:  true,
		ManageUsers:      true,
	},
}

// CapabilitiesFor returns the fixed capability set of role. Unknown or empty
// roles get the all-false set.
func CapabilitiesFor(role domain.Role) Capabilities {
	return policy[role]
}

// Require returns ForbiddenError when role lacks want.
func Require(role domain.Role, want Capability) error {
	if CapabilitiesFor(role).Has(want) {
		return nil
	}
	return ForbiddenError{Capability: want, Role: role}
}
