// Package timeparse turns loosely phrased reminder times into absolute instants.
//
// Every wall-clock value is read in one fixed regional offset (UTC+5:30). There is
// no per-user timezone.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IST is the offset all parsed wall-clock times are interpreted in.
var IST = time.FixedZone("IST", 5*60*60+30*60)

const (
	defaultHour   = 9
	defaultMinute = 0
)

var (
	meridiemRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s*m\b\.?`)
	bareRe     = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\b`)
)

// Checked in order, first substring match wins.
var partsOfDay = []struct {
	phrase string
	hour   int
}{
	{"after dinner", 19},
	{"morning", 9},
	{"evening", 18},
	{"night", 21},
}

// Clock extracts the local hour and minute named by expr. ok is false when
// nothing was recognised, in which case 09:00 is returned.
func Clock(expr string) (hour, minute int, ok bool) {
	if h, m, found := meridiemClock(expr); found {
		return h, m, true
	}

	lower := strings.ToLower(expr)
	for _, p := range partsOfDay {
		if strings.Contains(lower, p.phrase) {
			return p.hour, 0, true
		}
	}

	if h, m, found := bareClock(expr); found {
		return h, m, true
	}

	return defaultHour, defaultMinute, false
}

func meridiemClock(expr string) (int, int, bool) {
	for _, sub := range meridiemRe.FindAllStringSubmatch(expr, -1) {
		hour, _ := strconv.Atoi(sub[1])
		minute, ok := parseMinute(sub[2])
		if !ok || hour < 1 || hour > 12 {
			continue
		}
		pm := strings.EqualFold(sub[3], "p")
		switch {
		case pm && hour != 12:
			hour += 12
		case !pm && hour == 12:
			hour = 0
		}
		return hour, minute, true
	}
	return 0, 0, false
}

func bareClock(expr string) (int, int, bool) {
	for _, loc := range bareRe.FindAllStringSubmatchIndex(expr, -1) {
		if inDate(expr, loc[0], loc[1]) {
			continue
		}
		hour, _ := strconv.Atoi(expr[loc[2]:loc[3]])
		minute := ""
		if loc[4] >= 0 {
			minute = expr[loc[4]:loc[5]]
		}
		m, ok := parseMinute(minute)
		if !ok || hour > 23 {
			continue
		}
		return hour, m, true
	}
	return 0, 0, false
}

// inDate reports whether expr[start:end] is one field of a date such as
// 2024-01-05 or 05/01.
func inDate(expr string, start, end int) bool {
	isSep := func(c byte) bool { return c == '-' || c == '/' }
	return (start > 0 && isSep(expr[start-1])) || (end < len(expr) && isSep(expr[end]))
}

func parseMinute(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	m, err := strconv.Atoi(s)
	if err != nil || m > 59 {
		return 0, false
	}
	return m, true
}

// Normalize returns the next UTC instant strictly after ref at the wall-clock
// time named by expr. It never fails: unrecognised input means 09:00.
//
// The candidate is built on ref's IST calendar date; if that has already passed
// it moves forward exactly 24 hours.
func Normalize(expr string, ref time.Time) time.Time {
	hour, minute, _ := Clock(expr)

	local := ref.In(IST)
	at := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, IST)
	if !at.After(ref) {
		at = at.Add(24 * time.Hour)
	}

	if !at.After(ref) {
		return TomorrowMorning(ref)
	}
	return at.UTC()
}

// TomorrowMorning is 09:00 IST on the day after ref's IST date.
func TomorrowMorning(ref time.Time) time.Time {
	local := ref.In(IST)
	return time.Date(local.Year(), local.Month(), local.Day()+1, defaultHour, defaultMinute, 0, 0, IST).UTC()
}
