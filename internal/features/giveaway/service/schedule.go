package service

import "time"

const (
	drawHour     = 19
	drawMinute   = 30
	cutoffHour   = 17
	cutoffMinute = 0
)

// computeDrawSchedule finds the next non-weekend day after now in the
// reference zone and places the entry cutoff at 17:00 and the draw at 19:30
// on that day. The anchor is always "tomorrow" relative to now, so repeated
// recomputation on different days lands on different dates.
func computeDrawSchedule(now time.Time, loc *time.Location) (drawDate, entryCutoff time.Time) {
	day := now.In(loc).AddDate(0, 0, 1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, 1)
	}

	drawDate = time.Date(day.Year(), day.Month(), day.Day(), drawHour, drawMinute, 0, 0, loc)
	entryCutoff = time.Date(day.Year(), day.Month(), day.Day(), cutoffHour, cutoffMinute, 0, 0, loc)
	return drawDate, entryCutoff
}
