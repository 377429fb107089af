package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

// dateLayout keys daily breakdowns
const dateLayout = "2006-01-02"

// Summary groups activities by action and by UTC day
type Summary struct {
	TotalActivities int            `json:"total_activities"`
	PeriodDays      int            `json:"period_days"`
	ActionBreakdown map[string]int `json:"action_breakdown"`
	DailyBreakdown  map[string]int `json:"daily_breakdown"`
}

// Summarize builds a Summary over acts
func Summarize(acts []types.StoredActivity, days int) Summary {
	s := Summary{
		TotalActivities: len(acts),
		PeriodDays:      days,
		ActionBreakdown: CountByAction(acts),
		DailyBreakdown:  CountByDay(acts),
	}
	return s
}

// CountByAction counts activities per action
func CountByAction(acts []types.StoredActivity) map[string]int {
	out := make(map[string]int)
	for _, a := range acts {
		out[a.Action]++
	}
	return out
}

// CountByDay counts activities per UTC date
func CountByDay(acts []types.StoredActivity) map[string]int {
	out := make(map[string]int)
	for _, a := range acts {
		out[a.Timestamp.UTC().Format(dateLayout)]++
	}
	return out
}

// DayCount is one day of a breakdown
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// MostActiveDay returns the busiest day, earliest on ties
func MostActiveDay(daily map[string]int) (DayCount, bool) {
	if len(daily) == 0 {
		return DayCount{}, false
	}
	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	best := DayCount{Date: dates[0], Count: daily[dates[0]]}
	for _, d := range dates[1:] {
		if daily[d] > best.Count {
			best = DayCount{Date: d, Count: daily[d]}
		}
	}
	return best, true
}

// Performance is a staff member's success and failure rates
type Performance struct {
	TotalActivities      int            `json:"total_activities"`
	SuccessfulActivities int            `json:"successful_activities"`
	FailedActivities     int            `json:"failed_activities"`
	SuccessRate          float64        `json:"success_rate"`
	DailyActivities      map[string]int `json:"daily_activities"`
	PeriodDays           int            `json:"period_days"`
}

// Measure computes performance over acts. An action counts as successful
// when it mentions success or completed, failed when it mentions failed or
// error. The rate is a percentage rounded to two decimals.
func Measure(acts []types.StoredActivity, days int) Performance {
	p := Performance{
		TotalActivities: len(acts),
		DailyActivities: CountByDay(acts),
		PeriodDays:      days,
	}
	for _, a := range acts {
		action := strings.ToLower(a.Action)
		if strings.Contains(action, "success") || strings.Contains(action, "completed") {
			p.SuccessfulActivities++
		}
		if strings.Contains(action, "failed") || strings.Contains(action, "error") {
			p.FailedActivities++
		}
	}
	if p.TotalActivities > 0 {
		p.SuccessRate = round2(float64(p.SuccessfulActivities) / float64(p.TotalActivities) * 100)
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Categories counts login, file and system activities the way the user
// statistics page groups them
type Categories struct {
	Login  int `json:"login_activities"`
	File   int `json:"file_activities"`
	System int `json:"system_activities"`
}

// Categorize counts activities whose action mentions login, file or system
func Categorize(acts []types.StoredActivity) Categories {
	var c Categories
	for _, a := range acts {
		action := strings.ToLower(a.Action)
		if strings.Contains(action, "login") {
			c.Login++
		}
		if strings.Contains(action, "file") {
			c.File++
		}
		if strings.Contains(action, "system") {
			c.System++
		}
	}
	return c
}
