package service

import (
	"sort"
	"time"

	"rostra/internal/domain"
	"rostra/internal/models"
)

// DeriveStatus maps elapsed time since start onto the template's status
// rules. Rules are evaluated highest threshold first; ties keep template
// order, so the first-declared rule wins. Before start, or when no rule
// matches, the sentinel "Open" is returned.
//
// The result is a function of wall-clock time and must be recomputed on
// every read; callers never persist or cache it.
func DeriveStatus(start time.Time, rules []models.StatusRule, now time.Time) string {
	elapsed := now.Sub(start).Minutes()
	if elapsed < 0 {
		return domain.StatusOpen
	}
	sorted := make([]models.StatusRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinutesAfterStart > sorted[j].MinutesAfterStart
	})
	for _, rule := range sorted {
		if elapsed >= float64(rule.MinutesAfterStart) {
			return rule.Label
		}
	}
	return domain.StatusOpen
}
