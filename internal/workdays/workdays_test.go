package workdays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsHoliday(t *testing.T) {
	assert.True(t, IsHoliday(date(2026, time.May, 1)))
	assert.True(t, IsHoliday(date(2026, time.July, 9)))
	assert.True(t, IsHoliday(date(2026, time.December, 25)))
	assert.False(t, IsHoliday(date(2026, time.May, 2)))
}

func TestIsBusinessDay(t *testing.T) {
	// 2026-05-04 is a Monday.
	assert.True(t, IsBusinessDay(date(2026, time.May, 4)))
	// Weekend.
	assert.False(t, IsBusinessDay(date(2026, time.May, 2)))
	assert.False(t, IsBusinessDay(date(2026, time.May, 3)))
	// Holiday on a weekday: 2026-05-01 is a Friday.
	assert.False(t, IsBusinessDay(date(2026, time.May, 1)))
}

func TestISOWeekday(t *testing.T) {
	// 2026-05-04 Monday through 2026-05-10 Sunday.
	for i := 0; i < 7; i++ {
		assert.Equal(t, i+1, ISOWeekday(date(2026, time.May, 4+i)))
	}
}

func TestBusinessDaysUntil(t *testing.T) {
	monday := date(2026, time.May, 4)
	assert.Equal(t, 0, BusinessDaysUntil(monday, monday))
	assert.Equal(t, 0, BusinessDaysUntil(monday, monday.AddDate(0, 0, -1)))
	// Monday to Friday: Tue, Wed, Thu, Fri.
	assert.Equal(t, 4, BusinessDaysUntil(monday, date(2026, time.May, 8)))
	// Crossing a weekend adds nothing.
	assert.Equal(t, 5, BusinessDaysUntil(monday, date(2026, time.May, 11)))
	// Crossing a holiday skips it: Apr 30 Thu to May 4 Mon skips May 1.
	assert.Equal(t, 1, BusinessDaysUntil(date(2026, time.April, 30), date(2026, time.May, 4)))
}

func TestTruncateKeepsLocation(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)
	truncated := Truncate(time.Date(2026, time.May, 4, 17, 45, 12, 99, loc))
	assert.Equal(t, time.Date(2026, time.May, 4, 0, 0, 0, 0, loc), truncated)
}
