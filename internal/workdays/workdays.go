// Package workdays answers business-day questions for the recurring task
// materializer. The holiday table covers Argentine national holidays with a
// fixed calendar date; movable holidays (bridge days, Carnival, Easter) vary
// year to year and are not tracked.
package workdays

import "time"

type monthDay struct {
	month time.Month
	day   int
}

var nationalHolidays = map[monthDay]string{
	{time.January, 1}:   "Año Nuevo",
	{time.March, 24}:    "Día de la Memoria",
	{time.April, 2}:     "Día del Veterano y de los Caídos en Malvinas",
	{time.May, 1}:       "Día del Trabajador",
	{time.May, 25}:      "Día de la Revolución de Mayo",
	{time.June, 20}:     "Paso a la Inmortalidad del Gral. Belgrano",
	{time.July, 9}:      "Día de la Independencia",
	{time.December, 8}:  "Inmaculada Concepción de María",
	{time.December, 25}: "Navidad",
}

// IsHoliday reports whether date falls on a national holiday.
func IsHoliday(date time.Time) bool {
	_, ok := nationalHolidays[monthDay{date.Month(), date.Day()}]
	return ok
}

// IsBusinessDay reports whether date is a weekday that is not a holiday.
func IsBusinessDay(date time.Time) bool {
	wd := date.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsHoliday(date)
}

// ISOWeekday returns the ISO weekday number for date (1=Monday .. 7=Sunday).
func ISOWeekday(date time.Time) int {
	wd := int(date.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// BusinessDaysUntil counts the business days from today until target,
// exclusive of today. Returns 0 when target is today or in the past.
func BusinessDaysUntil(today, target time.Time) int {
	today = Truncate(today)
	target = Truncate(target)
	if !target.After(today) {
		return 0
	}

	days := 0
	for d := today.AddDate(0, 0, 1); !d.After(target); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			days++
		}
	}
	return days
}

// Truncate drops the time-of-day component, keeping the location.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
