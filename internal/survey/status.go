package survey

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date wire format for deadlines.
const DateLayout = "2006-01-02"

// truncateToDate drops the time-of-day component so deadline math is a pure
// calendar-date comparison, regardless of the hour the request arrives.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsClosed reports whether the deadline has passed relative to now. A survey
// closes the day after its deadline, so deadline == today is still open.
func IsClosed(deadline time.Time, now time.Time) bool {
	return truncateToDate(deadline).Before(truncateToDate(now))
}

// DDayLabel renders the remaining-time badge for a deadline: "Closed" once the
// deadline has passed, "D-Day" on the deadline itself, and "D-k" with k whole
// days remaining otherwise.
func DDayLabel(deadline time.Time, now time.Time) string {
	d := truncateToDate(deadline)
	t := truncateToDate(now)

	if d.Before(t) {
		return "Closed"
	}
	if d.Equal(t) {
		return "D-Day"
	}

	days := int(d.Sub(t).Hours() / 24)
	return fmt.Sprintf("D-%d", days)
}
