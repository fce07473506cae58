package engine

import (
	"math"
	"time"

	"github.com/kcarante/thinktasker/internal/models"
)

// AssignPriority maps a relevance score and the days remaining until
// the extracted deadline to a priority label. daysLeft is nil when no
// deadline was found; nil never satisfies a day-based band, only the
// score bands apply.
func AssignPriority(score float64, daysLeft *int) models.TaskPriority {
	if score >= 0.75 || (daysLeft != nil && *daysLeft <= 3) {
		return models.TaskPriorityUrgent
	}
	if score >= 0.5 || (daysLeft != nil && *daysLeft >= 4 && *daysLeft <= 5) {
		return models.TaskPriorityImportant
	}
	if score > 0.25 {
		return models.TaskPriorityMedium
	}
	return models.TaskPriorityLow
}

// DaysUntil returns the whole calendar days from ref to the deadline,
// or nil when deadline is nil. Past deadlines yield negative values,
// which the Urgent band absorbs.
func DaysUntil(deadline *time.Time, ref time.Time) *int {
	if deadline == nil {
		return nil
	}
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	dlDay := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, deadline.Location())
	days := int(math.Round(dlDay.Sub(refDay).Hours() / 24))
	return &days
}
