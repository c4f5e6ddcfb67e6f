// Package dashboard derives the dashboard figures from registry and ledger
// snapshots. Nothing is cached; every call rescans both.
package dashboard

import (
	"time"

	"minetrack/internal/domain"
)

const (
	trendMonths = 6
	week        = 7 * 24 * time.Hour
)

type CauseCount struct {
	Cause domain.Cause `json:"cause"`
	Label string       `json:"label"`
	Count int          `json:"count"`
}

type MonthCount struct {
	Month string    `json:"month"`
	Start time.Time `json:"start" format:"date-time"`
	Count int       `json:"count"`
}

type Metrics struct {
	TotalEquipment  int          `json:"total_equipment"`
	CurrentlyDown   int          `json:"currently_down"`
	ActiveDowntimes int          `json:"active_downtimes"`
	TotalDowntimes  int          `json:"total_downtimes"`
	WeekDowntimes   int          `json:"week_downtimes"`
	MTTRHours       float64      `json:"mttr_hours"`
	WeekMTTRHours   float64      `json:"week_mttr_hours"`
	DowntimeByCause []CauseCount `json:"downtime_by_cause"`
	MonthlyTrends   []MonthCount `json:"monthly_trends"`
}

// Compute returns the metrics as of now. Monthly buckets are calendar months
// in now's location, oldest first, ending with the current month.
func Compute(equipment []domain.Equipment, downtimes []domain.DowntimeEvent, now time.Time) Metrics {
	m := Metrics{
		TotalEquipment:  len(equipment),
		TotalDowntimes:  len(downtimes),
		DowntimeByCause: []CauseCount{},
		MonthlyTrends:   make([]MonthCount, 0, trendMonths),
	}
	for _, eq := range equipment {
		if eq.Status.OutOfService() {
			m.CurrentlyDown++
		}
	}

	weekAgo := now.Add(-week)
	causes := map[domain.Cause]int{}
	var repair, weekRepair time.Duration
	var closed, weekClosed int
	for _, d := range downtimes {
		causes[d.Cause]++
		if d.Status.Active() {
			m.ActiveDowntimes++
		}
		if !d.StartTime.Before(weekAgo) && !d.StartTime.After(now) {
			m.WeekDowntimes++
		}
		dur, ok := d.Duration()
		if !ok {
			continue
		}
		repair += dur
		closed++
		if !d.EndTime.Before(weekAgo) && !d.EndTime.After(now) {
			weekRepair += dur
			weekClosed++
		}
	}
	m.MTTRHours = meanHours(repair, closed)
	m.WeekMTTRHours = meanHours(weekRepair, weekClosed)

	for _, c := range domain.Causes {
		if n := causes[c]; n > 0 {
			m.DowntimeByCause = append(m.DowntimeByCause, CauseCount{Cause: c, Label: c.Label(), Count: n})
		}
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := trendMonths - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		b := MonthCount{Month: start.Format("Jan 06"), Start: start}
		for _, d := range downtimes {
			t := d.StartTime.In(now.Location())
			if !t.Before(start) && t.Before(end) {
				b.Count++
			}
		}
		m.MonthlyTrends = append(m.MonthlyTrends, b)
	}
	return m
}

func meanHours(total time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	return total.Hours() / float64(n)
}
