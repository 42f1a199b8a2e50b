package logbook

import (
	"fmt"
	"time"

	"hifztracker/internal/apperr"
)

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// ValidateDate returns a validation error unless s is an ISO calendar date.
func ValidateDate(field, s string) error {
	if _, err := ParseDate(s); err != nil {
		return apperr.Validation("invalid date", apperr.Problem{Row: -1, Field: field, Message: err.Error()})
	}
	return nil
}

// ValidateRange checks that start and end are ISO dates with start <= end.
func ValidateRange(start, end string) error {
	var problems []apperr.Problem
	if _, err := ParseDate(start); err != nil {
		problems = append(problems, apperr.Problem{Row: -1, Field: "start_date", Message: err.Error()})
	}
	if _, err := ParseDate(end); err != nil {
		problems = append(problems, apperr.Problem{Row: -1, Field: "end_date", Message: err.Error()})
	}
	if len(problems) > 0 {
		return apperr.Validation("invalid date range", problems...)
	}
	if start > end {
		return apperr.Validation("invalid date range",
			apperr.Problem{Row: -1, Field: "start_date", Message: fmt.Sprintf("%s is after %s", start, end)})
	}
	return nil
}

// ValidateBatch checks a batch without touching storage. Every offending row
// and field is reported, not just the first.
func ValidateBatch(logDate string, rows []Row) error {
	var problems []apperr.Problem
	if _, err := ParseDate(logDate); err != nil {
		problems = append(problems, apperr.Problem{Row: -1, Field: "log_date", Message: err.Error()})
	}
	if len(rows) == 0 {
		problems = append(problems, apperr.Problem{Row: -1, Message: "batch has no rows"})
	}

	seen := make(map[int64]int, len(rows))
	for i, r := range rows {
		add := func(field, msg string) {
			problems = append(problems, apperr.Problem{Row: i, Field: field, Message: msg})
		}
		if r.StudentID <= 0 {
			add("student_id", "must be a positive id")
		} else if first, dup := seen[r.StudentID]; dup {
			add("student_id", fmt.Sprintf("student already in row %d", first))
		} else {
			seen[r.StudentID] = i
		}
		if !IsSurah(r.Surah) {
			add("surah", fmt.Sprintf("unknown surah %q", r.Surah))
		}
		if r.StartAyah < 1 {
			add("start_ayah", "must be >= 1")
		}
		if r.EndAyah < r.StartAyah {
			add("end_ayah", fmt.Sprintf("%d is before start_ayah %d", r.EndAyah, r.StartAyah))
		}
		if r.NumLines < 0 {
			add("num_lines", "must be >= 0")
		}
		if !r.PassFail.Valid() {
			add("pass_fail", fmt.Sprintf("%q is not Pass or Fail", r.PassFail))
		}
	}
	if len(problems) > 0 {
		return apperr.Validation("invalid batch", problems...)
	}
	return nil
}
