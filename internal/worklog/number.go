package worklog

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// titleNoSpaces title-cases every word and strips the spaces between them,
// so "mary jane" becomes "MaryJane".
func titleNoSpaces(s string) string {
	var b strings.Builder
	for _, word := range strings.Fields(s) {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// FormatAuthorSegment builds the author part of a work log number from the
// author's names, falling back to the username when no names are set.
func FormatAuthorSegment(firstName, lastName, username string) string {
	var parts []string
	if s := titleNoSpaces(firstName); s != "" {
		parts = append(parts, s)
	}
	if s := titleNoSpaces(lastName); s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		if username == "" {
			return "UNKNOWN"
		}
		parts = append(parts, strings.ReplaceAll(username, " ", "_"))
	}
	return strings.Join(parts, "-")
}

// Number derives the WL-YYMMDD-AuthorSegments document number. Assigned once
// at first save and never regenerated, even when the due date changes later.
func Number(dueDate time.Time, authorSegment string) string {
	return fmt.Sprintf("WL-%s-%s", dueDate.Format("060102"), authorSegment)
}
