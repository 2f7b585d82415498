package domain

// PublicStats is the anonymous overview shown next to the submission form.
type PublicStats struct {
	Total      int64          `json:"totalSuggestions"`
	Categories []CategoryStat `json:"categoryBreakdown"`
	Statuses   []StatusCount  `json:"statusBreakdown"`
}

type DashboardStats struct {
	Total        int64           `json:"totalSuggestions"`
	Statuses     []StatusCount   `json:"statusBreakdown"`
	Priorities   []PriorityCount `json:"priorityBreakdown"`
	Categories   []CategoryCount `json:"categoryBreakdown"`
	Replied      int64           `json:"repliedSuggestions"`
	ResponseRate float64         `json:"responseRate"`
	MonthlyTrend []MonthlyCount  `json:"monthlyTrend"`
	Recent       []*Suggestion   `json:"recentSuggestions"`
}

// ResponseRatePercent is the share of replied suggestions, rounded to one decimal.
func ResponseRatePercent(replied, total int64) float64 {
	if total <= 0 {
		return 0
	}
	tenths := (replied*1000 + total/2) / total
	return float64(tenths) / 10
}
