package survey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		now      time.Time
		expected bool
	}{
		{
			name:     "Should stay open when deadline is in the future",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.March, 1),
			expected: false,
		},
		{
			name:     "Should stay open on the deadline day itself",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.March, 10),
			expected: false,
		},
		{
			name:     "Should close the day after the deadline",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.March, 11),
			expected: true,
		},
		{
			name:     "Should ignore the time of day on the deadline",
			deadline: date(2026, time.March, 10),
			now:      time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC),
			expected: false,
		},
		{
			name:     "Should ignore the time of day on the deadline row",
			deadline: time.Date(2026, time.March, 10, 23, 59, 59, 0, time.UTC),
			now:      date(2026, time.March, 11),
			expected: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsClosed(tc.deadline, tc.now))
		})
	}
}

func TestDDayLabel(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		now      time.Time
		expected string
	}{
		{
			name:     "Should render Closed after the deadline",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.March, 11),
			expected: "Closed",
		},
		{
			name:     "Should render D-Day on the deadline",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.March, 10),
			expected: "D-Day",
		},
		{
			name:     "Should render D-1 one day before",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.March, 9),
			expected: "D-1",
		},
		{
			name:     "Should count whole days remaining",
			deadline: date(2026, time.March, 10),
			now:      date(2026, time.February, 28),
			expected: "D-10",
		},
		{
			name:     "Should not round partial days up",
			deadline: date(2026, time.March, 10),
			now:      time.Date(2026, time.March, 9, 23, 0, 0, 0, time.UTC),
			expected: "D-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DDayLabel(tc.deadline, tc.now))
		})
	}
}
