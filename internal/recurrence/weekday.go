package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Weekday indices run Monday=0 through Sunday=6.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

var dayFromName = map[string]int{
	"monday": Monday, "mon": Monday, "mo": Monday,
	"tuesday": Tuesday, "tue": Tuesday, "tu": Tuesday,
	"wednesday": Wednesday, "wed": Wednesday, "we": Wednesday,
	"thursday": Thursday, "thu": Thursday, "th": Thursday,
	"friday": Friday, "fri": Friday, "fr": Friday,
	"saturday": Saturday, "sat": Saturday, "sa": Saturday,
	"sunday": Sunday, "sun": Sunday, "su": Sunday,
}

// Index returns the Monday-based weekday index of t.
func Index(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DayName returns the English name for a weekday index.
func DayName(i int) string {
	if i < Monday || i > Sunday {
		return ""
	}
	return dayNames[i]
}

// ParseWeekday accepts an English day name, a short form like "Wed" or
// "WE", or an index "0".."6".
func ParseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := dayFromName[s]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < Monday || n > Sunday {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return n, nil
}

// ParseDays converts raw day values to a sorted set of weekday indices.
func ParseDays(raw []string) ([]int, error) {
	days := make([]int, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		d, err := ParseWeekday(r)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return Normalize(days), nil
}

// Normalize sorts days, drops duplicates and anything outside [0,6].
func Normalize(days []int) []int {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d >= Monday && d <= Sunday {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
