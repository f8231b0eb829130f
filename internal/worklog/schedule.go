package worklog

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses an "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// SendAt computes when the notification e-mail for a work log should go out.
//
// The target is the work log's due date combined with its end time (or the
// standard end of the working day when the log has none) in the business
// timezone. A target that is not strictly in the future rolls forward exactly
// one day; if even the rolled target is behind the clock the mail is due
// immediately.
func SendAt(dueDate time.Time, endTime string, now time.Time, loc *time.Location) (at time.Time, immediate bool, err error) {
	hour, minute, err := ParseClock(endTime)
	if err != nil {
		return time.Time{}, false, err
	}
	target := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), hour, minute, 0, 0, loc)
	if target.After(now) {
		return target, false, nil
	}
	target = target.AddDate(0, 0, 1)
	if target.After(now) {
		return target, false, nil
	}
	return target, true, nil
}
