package model

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the English, locale-invariant name of a day of the week.
type Weekday string

// Weekday constants.
const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

// AllWeekdays lists every weekday in calendar order starting on Sunday.
var AllWeekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf returns the weekday name for t.
func WeekdayOf(t time.Time) Weekday {
	return AllWeekdays[int(t.Weekday())]
}

// Index returns the position of d within AllWeekdays, or -1 if d is not a weekday.
func (d Weekday) Index() int {
	for i, w := range AllWeekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// ParseWeekday parses a weekday name, accepting any casing and three-letter abbreviations.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, w := range AllWeekdays {
		name := strings.ToLower(string(w))
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", s)
}

// JoinWeekdays renders weekdays as a human-readable list ("Sunday, Friday").
func JoinWeekdays(days []Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}
