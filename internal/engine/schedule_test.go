package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kcarante/thinktasker/internal/models"
)

func testScheduler(now time.Time) *Scheduler {
	s := NewScheduler(nil, 0)
	s.now = func() time.Time { return now }
	return s
}

func newCandidates(n int, priority models.TaskPriority) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{Subject: "task", Priority: priority}
	}
	return out
}

func openTask(priority models.TaskPriority, deadline time.Time) *models.ExtractedTask {
	return &models.ExtractedTask{
		ID:       uuid.New(),
		Priority: priority,
		Status:   models.TaskStatusOpen,
		Deadline: &deadline,
	}
}

func TestScheduler_OverflowToNextBusinessDay(t *testing.T) {
	t.Parallel()

	// Friday before work hours: all 9 slots are still free.
	friday := time.Date(2025, time.June, 6, 8, 0, 0, 0, time.UTC)
	s := testScheduler(friday)

	result, err := s.Schedule(newCandidates(10, models.TaskPriorityUrgent), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(result.New) != 10 {
		t.Fatalf("expected 10 scheduled candidates, got %d", len(result.New))
	}

	fridayCount, mondayCount := 0, 0
	for _, sc := range result.New {
		switch sc.Slot.Day() {
		case 6:
			fridayCount++
		case 9:
			mondayCount++
		default:
			t.Errorf("unexpected slot day %v", sc.Slot)
		}
	}
	if fridayCount != 9 || mondayCount != 1 {
		t.Errorf("got %d on Friday and %d on Monday, want 9 and 1 (weekend skipped)", fridayCount, mondayCount)
	}
}

func TestScheduler_NoSlotSharing(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	existing := []*models.ExtractedTask{
		openTask(models.TaskPriorityMedium, time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)),
		openTask(models.TaskPriorityLow, time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC)),
	}
	result, err := s.Schedule(newCandidates(12, models.TaskPriorityImportant), existing)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	seen := make(map[time.Time]bool)
	record := func(slot time.Time) {
		if seen[slot] {
			t.Errorf("slot %v assigned twice", slot)
		}
		seen[slot] = true
	}
	for _, sc := range result.New {
		record(sc.Slot)
	}
	for _, r := range result.Reassigned {
		record(r.Slot)
	}
	// Reassignments only cover moved tasks; tasks that kept their slot
	// still occupy it.
	for _, task := range existing {
		moved := false
		for _, r := range result.Reassigned {
			if r.Task.ID == task.ID {
				moved = true
			}
		}
		if !moved {
			record(*task.Deadline)
		}
	}
}

func TestScheduler_Idempotence(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	candidates := []Candidate{
		{Subject: "a", Priority: models.TaskPriorityUrgent},
		{Subject: "b", Priority: models.TaskPriorityImportant},
		{Subject: "c", Priority: models.TaskPriorityMedium},
		{Subject: "d", Priority: models.TaskPriorityLow},
		{Subject: "e", Priority: models.TaskPriorityUrgent},
	}
	first, err := s.Schedule(candidates, nil)
	if err != nil {
		t.Fatalf("first Schedule failed: %v", err)
	}

	var tasks []*models.ExtractedTask
	for _, sc := range first.New {
		tasks = append(tasks, openTask(sc.Priority, sc.Slot))
	}

	second, err := s.Schedule(nil, tasks)
	if err != nil {
		t.Fatalf("second Schedule failed: %v", err)
	}
	if len(second.Reassigned) != 0 {
		t.Errorf("rescheduling an unchanged task set moved %d tasks, want 0", len(second.Reassigned))
	}
}

func TestScheduler_PriorityOrder(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	candidates := []Candidate{
		{Subject: "low", Priority: models.TaskPriorityLow},
		{Subject: "urgent", Priority: models.TaskPriorityUrgent},
		{Subject: "medium", Priority: models.TaskPriorityMedium},
	}
	result, err := s.Schedule(candidates, nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	slots := make(map[string]time.Time)
	for _, sc := range result.New {
		slots[sc.Subject] = sc.Slot
	}
	if !slots["urgent"].Before(slots["medium"]) || !slots["medium"].Before(slots["low"]) {
		t.Errorf("slot order does not follow priority: %v", slots)
	}
}

func TestScheduler_SkipsPastHoursToday(t *testing.T) {
	t.Parallel()

	lateAfternoon := time.Date(2025, time.June, 2, 16, 30, 0, 0, time.UTC)
	s := testScheduler(lateAfternoon)

	result, err := s.Schedule(newCandidates(3, models.TaskPriorityUrgent), nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	today, tomorrow := 0, 0
	for _, sc := range result.New {
		switch sc.Slot.Day() {
		case 2:
			if sc.Slot.Hour() <= 16 {
				t.Errorf("slot %v is at or before the current hour", sc.Slot)
			}
			today++
		case 3:
			tomorrow++
		}
	}
	if today != 2 || tomorrow != 1 {
		t.Errorf("got %d today / %d tomorrow, want 2 / 1 (only 17:00 and 18:00 remain)", today, tomorrow)
	}
}

func TestScheduler_OverdueTaskClampedToToday(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	overdue := openTask(models.TaskPriorityMedium, time.Date(2025, time.May, 26, 9, 0, 0, 0, time.UTC))
	result, err := s.Schedule(nil, []*models.ExtractedTask{overdue})
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(result.Reassigned) != 1 {
		t.Fatalf("expected overdue task to be reassigned, got %d reassignments", len(result.Reassigned))
	}
	slot := result.Reassigned[0].Slot
	if slot.Year() != 2025 || slot.Month() != time.June || slot.Day() != 2 {
		t.Errorf("overdue task rescheduled to %v, want today", slot)
	}
}

func TestScheduler_WeekendDeadlineMovesToBusinessDay(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	saturday := time.Date(2025, time.June, 7, 9, 0, 0, 0, time.UTC)
	candidates := []Candidate{{Subject: "weekend", Priority: models.TaskPriorityMedium, Deadline: &saturday}}

	result, err := s.Schedule(candidates, nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(result.New) != 1 {
		t.Fatalf("expected one scheduled candidate, got %d", len(result.New))
	}
	if got := result.New[0].Slot; got.Day() != 9 {
		t.Errorf("weekend-dated candidate scheduled on %v, want Monday June 9", got)
	}
}

func TestScheduler_CompletedTasksIgnored(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	done := openTask(models.TaskPriorityUrgent, time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC))
	done.Status = models.TaskStatusCompleted

	result, err := s.Schedule(nil, []*models.ExtractedTask{done})
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(result.Reassigned) != 0 {
		t.Errorf("completed task was rescheduled: %v", result.Reassigned)
	}
}

func TestScheduler_CapacityExceeded(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := NewScheduler([]int{9}, 2)
	s.now = func() time.Time { return monday }

	_, err := s.Schedule(newCandidates(5, models.TaskPriorityUrgent), nil)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Schedule error = %v, want ErrCapacityExceeded", err)
	}
}

func TestScheduler_FutureDeadlineKeepsItsDay(t *testing.T) {
	t.Parallel()

	monday := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)
	s := testScheduler(monday)

	wednesday := time.Date(2025, time.June, 4, 14, 0, 0, 0, time.UTC)
	candidates := []Candidate{{Subject: "midweek", Priority: models.TaskPriorityMedium, Deadline: &wednesday}}

	result, err := s.Schedule(candidates, nil)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if got := result.New[0].Slot; got.Day() != 4 || got.Hour() != 9 {
		t.Errorf("future-dated candidate scheduled at %v, want Wednesday 09:00", got)
	}
}
