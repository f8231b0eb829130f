package worklog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAuthorSegment(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		last     string
		username string
		want     string
	}{
		{"first and last", "john", "doe", "jdoe", "John-Doe"},
		{"multi word names collapse", "mary jane", "van der berg", "mj", "MaryJane-VanDerBerg"},
		{"first only", "John", "", "jdoe", "John"},
		{"fallback to username", "", "", "workshop lead", "workshop_lead"},
		{"nothing at all", "", "", "", "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAuthorSegment(tt.first, tt.last, tt.username))
		})
	}
}

func TestNumber(t *testing.T) {
	due := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "WL-250307-John-Doe", Number(due, "John-Doe"))
}
