package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultDeadlineHour is the baseline time-of-day assigned when a
// deadline phrase carries no explicit time.
const DefaultDeadlineHour = 9

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var ordinalRe = regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)\b`)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// recognizer pairs a trigger expression with a fallible resolver. The
// extractor walks recognizers in declared order; a resolver error
// falls through to the next recognizer instead of failing extraction.
type recognizer struct {
	re      *regexp.Regexp
	resolve func(m []string, ref time.Time) (time.Time, error)
}

// DeadlineExtractor parses a natural-language deadline out of free
// text. Extraction is total: any text either yields a concrete
// date-time or reports absence, never an error.
type DeadlineExtractor struct {
	recognizers []recognizer
}

// NewDeadlineExtractor builds the ordered recognizer chain. Order is
// priority order, not match-position order: explicit date phrases win
// over relative offsets, which win over bare numeric forms.
func NewDeadlineExtractor() *DeadlineExtractor {
	e := &DeadlineExtractor{}
	e.recognizers = []recognizer{
		{
			// "by June 5, 2025" / "on June 5"
			re: regexp.MustCompile(`(?i)\b(?:by|on)\s+((?:` + monthNames + `)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				return e.parseFuzzy(m[1], ref)
			},
		},
		{
			// "in 3 days"
			re: regexp.MustCompile(`(?i)\bin\s+(\d{1,3})\s+days?\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return time.Time{}, err
				}
				return atBaselineHour(AddBusinessDays(ref, n)), nil
			},
		},
		{
			re: regexp.MustCompile(`(?i)\btomorrow\b`),
			resolve: func(_ []string, ref time.Time) (time.Time, error) {
				return atBaselineHour(AddBusinessDays(ref, 1)), nil
			},
		},
		{
			re: regexp.MustCompile(`(?i)\b(?:today|now)\b`),
			resolve: func(_ []string, ref time.Time) (time.Time, error) {
				return atBaselineHour(ref), nil
			},
		},
		{
			// first day of the following week
			re: regexp.MustCompile(`(?i)\bnext\s+week\b`),
			resolve: func(_ []string, ref time.Time) (time.Time, error) {
				offset := 7 - mondayIndex(ref.Weekday())
				return atBaselineHour(ref.AddDate(0, 0, offset)), nil
			},
		},
		{
			// first calendar day of the following month
			re: regexp.MustCompile(`(?i)\bnext\s+month\b`),
			resolve: func(_ []string, ref time.Time) (time.Time, error) {
				first := time.Date(ref.Year(), ref.Month()+1, 1, DefaultDeadlineHour, 0, 0, 0, ref.Location())
				return first, nil
			},
		},
		{
			// "next Friday": offset 0 means a week out, never today
			re: regexp.MustCompile(`(?i)\bnext\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				target, ok := weekdays[strings.ToLower(m[1])]
				if !ok {
					return time.Time{}, fmt.Errorf("unknown weekday %q", m[1])
				}
				offset := (int(target) - int(ref.Weekday()) + 7) % 7
				if offset == 0 {
					offset = 7
				}
				return atBaselineHour(ref.AddDate(0, 0, offset)), nil
			},
		},
		{
			// YYYY/MM/DD with slash, dot or dash separators
			re: regexp.MustCompile(`\b(\d{4}[/.-]\d{1,2}[/.-]\d{1,2})\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				return e.parseFuzzy(m[1], ref)
			},
		},
		{
			// MM/DD/YYYY, month-before-day for ambiguous forms
			re: regexp.MustCompile(`\b(\d{1,2}[/.-]\d{1,2}[/.-]\d{4})\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				return e.parseFuzzy(m[1], ref)
			},
		},
		{
			// bare clock time resolves on the reference date
			re: regexp.MustCompile(`(?i)\b(\d{1,2}):(\d{2})\s*(am|pm)?\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				return clockOnDate(m[1], m[2], m[3], ref)
			},
		},
		{
			// "5 June 2025"
			re: regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:` + monthNames + `)[a-z]*\s+\d{4})\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				return e.parseFuzzy(m[1], ref)
			},
		},
		{
			// "June 5 2025" / "June 5, 2025"
			re: regexp.MustCompile(`(?i)\b((?:` + monthNames + `)[a-z]*\s+\d{1,2},?\s+\d{4})\b`),
			resolve: func(m []string, ref time.Time) (time.Time, error) {
				return e.parseFuzzy(m[1], ref)
			},
		},
	}
	return e
}

// Extract scans the text with each recognizer in priority order and
// returns the first successfully resolved deadline. The second return
// is false when no recognizer produced a date.
func (e *DeadlineExtractor) Extract(text string, ref time.Time) (time.Time, bool) {
	if ref.IsZero() {
		ref = time.Now()
	}
	for _, r := range e.recognizers {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		t, err := r.resolve(m, ref)
		if err != nil {
			continue
		}
		return t, true
	}
	return time.Time{}, false
}

var yearRe = regexp.MustCompile(`\b\d{4}\b`)

// parseFuzzy parses an explicit date phrase leniently, borrowing the
// year from the reference timestamp when the phrase omits it and
// defaulting a missing time-of-day to the baseline hour.
func (e *DeadlineExtractor) parseFuzzy(s string, ref time.Time) (time.Time, error) {
	s = ordinalRe.ReplaceAllString(s, "$1")
	if !yearRe.MatchString(s) {
		s = fmt.Sprintf("%s %d", strings.TrimRight(s, ", "), ref.Year())
	}
	t, err := dateparse.ParseIn(s, ref.Location())
	if err != nil {
		return time.Time{}, err
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		t = atBaselineHour(t)
	}
	return t, nil
}

func clockOnDate(hourStr, minStr, meridiem string, ref time.Time) (time.Time, error) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := strconv.Atoi(minStr)
	if err != nil {
		return time.Time{}, err
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid clock time %s:%s", hourStr, minStr)
	}
	switch strings.ToLower(meridiem) {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, ref.Location()), nil
}

// atBaselineHour pins a timestamp to the baseline deadline hour on the
// same calendar day.
func atBaselineHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), DefaultDeadlineHour, 0, 0, 0, t.Location())
}

// mondayIndex maps a weekday to its Monday-based index (Mon=0..Sun=6).
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	return t.Weekday() != time.Saturday && t.Weekday() != time.Sunday
}

// AddBusinessDays advances t by n business days, skipping Saturdays
// and Sundays.
func AddBusinessDays(t time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		t = t.AddDate(0, 0, 1)
		for !IsBusinessDay(t) {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}

// NextBusinessDay returns the first business day after t.
func NextBusinessDay(t time.Time) time.Time {
	return AddBusinessDays(t, 1)
}
