package engine

import (
	"minetrack/internal/domain"
	"minetrack/internal/engine/auth"
)

const (
	DestLogin          = "login"
	DestDashboard      = "dashboard"
	DestEquipment      = "equipment"
	DestReportDowntime = "report-downtime"
	DestDowntimes      = "downtimes"
)

type NavItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Path  string `json:"path"`
}

type Navigation struct {
	Items   []NavItem `json:"items"`
	Landing string    `json:"landing"`
}

var destinations = []struct {
	item NavItem
	need auth.Capability
}{
	{NavItem{Key: DestDashboard, Label: "Dashboard", Path: "/"}, auth.ViewDashboard},
	{NavItem{Key: DestEquipment, Label: "Equipment", Path: "/equipment"}, auth.ViewEquipment},
	{NavItem{Key: DestReportDowntime, Label: "Report Downtime", Path: "/report-downtime"}, auth.ReportDowntime},
	{NavItem{Key: DestDowntimes, Label: "Downtimes", Path: "/downtimes"}, auth.ViewDowntimeList},
}

// NavigationFor lists the destinations role may open, in menu order. The
// landing page is the dashboard when allowed, otherwise the equipment list.
func NavigationFor(role domain.Role) Navigation {
	caps := auth.CapabilitiesFor(role)
	nav := Navigation{Items: []NavItem{}, Landing: DestEquipment}
	for _, d := range destinations {
		if caps.Has(d.need) {
			nav.Items = append(nav.Items, d.item)
		}
	}
	if caps.ViewDashboard {
		nav.Landing = DestDashboard
	}
	return nav
}
