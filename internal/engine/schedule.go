package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/kcarante/thinktasker/internal/models"
)

// ErrCapacityExceeded is returned when the pending backlog cannot be
// placed within the scheduler's lookahead window. The batch is
// rejected rather than scheduled into the indefinite future.
var ErrCapacityExceeded = errors.New("scheduling capacity exceeded: backlog extends beyond lookahead window")

// DefaultWorkHours is the fixed ordered set of permissible deadline
// hours. The lunch hour is excluded.
var DefaultWorkHours = []int{9, 10, 11, 13, 14, 15, 16, 17, 18}

// DefaultMaxLookaheadDays bounds how many business days ahead overflow
// may cascade before the batch is rejected.
const DefaultMaxLookaheadDays = 30

// Candidate is a newly actionable message awaiting its first slot
// assignment.
type Candidate struct {
	Subject         string
	Description     string
	Priority        models.TaskPriority
	Deadline        *time.Time
	SourceMessageID string
	Score           float64
}

// ScheduledCandidate is a candidate with its assigned work slot.
type ScheduledCandidate struct {
	Candidate
	Slot time.Time
}

// Reassignment records an existing task whose deadline moved to a new
// slot. Unchanged tasks are omitted so a stable schedule is a no-op
// bulk update.
type Reassignment struct {
	Task *models.ExtractedTask
	Slot time.Time
}

// ScheduleResult is the conflict-free slot assignment for one batch.
type ScheduleResult struct {
	New        []ScheduledCandidate
	Reassigned []Reassignment
}

// Scheduler allocates tasks into bounded daily work-hour slots,
// overflowing excess tasks to subsequent business days.
type Scheduler struct {
	hours        []int
	maxLookahead int
	now          func() time.Time
}

// NewScheduler creates a scheduler. Zero-value arguments select the
// default work hours and lookahead bound.
func NewScheduler(hours []int, maxLookaheadDays int) *Scheduler {
	if len(hours) == 0 {
		hours = DefaultWorkHours
	}
	if maxLookaheadDays <= 0 {
		maxLookaheadDays = DefaultMaxLookaheadDays
	}
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	return &Scheduler{hours: sorted, maxLookahead: maxLookaheadDays, now: time.Now}
}

// slotItem unifies new candidates and existing tasks for ordering.
type slotItem struct {
	cand *Candidate
	task *models.ExtractedTask
}

func (it slotItem) priority() models.TaskPriority {
	if it.task != nil {
		return it.task.Priority
	}
	return it.cand.Priority
}

func (it slotItem) due() *time.Time {
	if it.task != nil {
		return it.task.Deadline
	}
	return it.cand.Deadline
}

// Schedule merges new candidates with the user's already-open tasks
// and produces a conflict-free assignment of tasks to work-hour
// slots. The walk is iterative per calendar day: each day is filled
// in priority order and excess items overflow to the next business
// day, bounded by the lookahead window.
func (s *Scheduler) Schedule(candidates []Candidate, existing []*models.ExtractedTask) (*ScheduleResult, error) {
	now := s.now()
	loc := now.Location()
	today := dayOf(now, loc)
	limit := AddBusinessDays(today, s.maxLookahead)

	byDay := make(map[time.Time][]slotItem)
	add := func(it slotItem) {
		day := s.targetDay(it.due(), today, loc)
		byDay[day] = append(byDay[day], it)
	}
	for _, t := range existing {
		if t.Status != models.TaskStatusOpen && t.Status != models.TaskStatusOngoing {
			continue
		}
		add(slotItem{task: t})
	}
	for i := range candidates {
		add(slotItem{cand: &candidates[i]})
	}

	result := &ScheduleResult{}
	for len(byDay) > 0 {
		day := earliestDay(byDay)
		items := byDay[day]
		delete(byDay, day)

		sort.SliceStable(items, func(i, j int) bool {
			ri, rj := models.PriorityRank(items[i].priority()), models.PriorityRank(items[j].priority())
			if ri != rj {
				return ri > rj
			}
			return earlierDue(items[i].due(), items[j].due())
		})

		slots := s.slotsFor(day, now, today)
		assigned := len(items)
		if len(slots) < assigned {
			assigned = len(slots)
		}
		for i := 0; i < assigned; i++ {
			it := items[i]
			slot := slots[i]
			if it.task != nil {
				if it.task.Deadline == nil || !it.task.Deadline.Equal(slot) {
					result.Reassigned = append(result.Reassigned, Reassignment{Task: it.task, Slot: slot})
				}
				continue
			}
			result.New = append(result.New, ScheduledCandidate{Candidate: *it.cand, Slot: slot})
		}

		if overflow := items[assigned:]; len(overflow) > 0 {
			next := NextBusinessDay(day)
			if next.After(limit) {
				return nil, ErrCapacityExceeded
			}
			byDay[next] = append(byDay[next], overflow...)
		}
	}
	return result, nil
}

// targetDay clamps a due date to today-or-future and skips weekends.
// Overdue and undated items land on the nearest schedulable day.
func (s *Scheduler) targetDay(due *time.Time, today time.Time, loc *time.Location) time.Time {
	day := today
	if due != nil {
		if d := dayOf(*due, loc); d.After(today) {
			day = d
		}
	}
	if !IsBusinessDay(day) {
		day = NextBusinessDay(day)
	}
	return day
}

// slotsFor returns the remaining slot timestamps for a day. On the
// current day hours at or before the current hour are already gone.
func (s *Scheduler) slotsFor(day, now, today time.Time) []time.Time {
	var slots []time.Time
	for _, h := range s.hours {
		if day.Equal(today) && h <= now.Hour() {
			continue
		}
		slots = append(slots, time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, day.Location()))
	}
	return slots
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func earliestDay(byDay map[time.Time][]slotItem) time.Time {
	var min time.Time
	first := true
	for d := range byDay {
		if first || d.Before(min) {
			min = d
			first = false
		}
	}
	return min
}

// earlierDue orders by due date ascending with missing dates last.
func earlierDue(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}
