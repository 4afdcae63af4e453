package main

import "time"

const dateLayout = "2006-01-02"

// nextThursday returns the upcoming Thursday strictly after the reference
// date. When the reference itself falls on a Thursday the result is the
// Thursday one week later.
func nextThursday(ref time.Time) time.Time {
	ref = ref.UTC()
	offset := (int(time.Thursday) - int(ref.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	day := ref.AddDate(0, 0, offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
