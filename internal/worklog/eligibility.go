package worklog

import "time"

// Edit eligibility failures carry distinct reasons so handlers can tell the
// user why a work log is locked, not just that it is.
type EditDenial string

const (
	DenialNone          EditDenial = ""
	DenialNotLatest     EditDenial = "only the most recent work log can be edited"
	DenialWindowExpired EditDenial = "the editing time window for this work log has expired"
)

// CheckEditable evaluates the edit rules against a single work log. The rules
// are re-read on every call so changes to the edit condition settings take
// effect immediately.
//
// onlyLastEditable restricts edits to the author's newest work log.
// windowHours, when nonzero, rejects edits once that many hours have passed
// since the work log was created.
func CheckEditable(onlyLastEditable bool, windowHours int32, isLatestByAuthor bool, createdAt, now time.Time) EditDenial {
	if onlyLastEditable && !isLatestByAuthor {
		return DenialNotLatest
	}
	if windowHours > 0 {
		deadline := createdAt.Add(time.Duration(windowHours) * time.Hour)
		if now.After(deadline) {
			return DenialWindowExpired
		}
	}
	return DenialNone
}
