package mailer

import (
	"fmt"
	"strings"
	"time"
)

// Document is a fully resolved work log ready for rendering, with the
// vehicle/location and job state references already flattened to their
// display names.
type Document struct {
	WLNumber   string
	AuthorName string
	DueDate    time.Time
	StartTime  string
	EndTime    string
	Notes      string
	Edited     bool
	Entries    []DocumentEntry
}

type DocumentEntry struct {
	Location        string
	JobDescription  string
	State           string
	PartLocation    string
	PartDescription string
	Quantity        string
	Unit            string
	TimeHours       string
	Notes           string
}

// Subject builds the notification subject line.
func (d Document) Subject() string {
	action := "New work log"
	if d.Edited {
		action = "Work log updated"
	}
	return fmt.Sprintf("%s: %s (%s)", action, d.WLNumber, d.AuthorName)
}

// Body renders the work log as a plain text document, one block per entry.
func (d Document) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Work log %s\n", d.WLNumber)
	fmt.Fprintf(&b, "Author:   %s\n", d.AuthorName)
	fmt.Fprintf(&b, "Due date: %s\n", d.DueDate.Format("2006-01-02"))
	if d.StartTime != "" || d.EndTime != "" {
		fmt.Fprintf(&b, "Hours:    %s - %s\n", d.StartTime, d.EndTime)
	}
	if d.Notes != "" {
		fmt.Fprintf(&b, "Notes:    %s\n", d.Notes)
	}
	for i, e := range d.Entries {
		fmt.Fprintf(&b, "\nEntry %d\n", i+1)
		fmt.Fprintf(&b, "  Vehicle/Location: %s\n", e.Location)
		fmt.Fprintf(&b, "  Job:              %s\n", e.JobDescription)
		fmt.Fprintf(&b, "  State:            %s\n", e.State)
		if e.PartLocation != "" || e.PartDescription != "" {
			fmt.Fprintf(&b, "  Part:             %s %s\n", e.PartLocation, e.PartDescription)
		}
		if e.Quantity != "" {
			fmt.Fprintf(&b, "  Quantity:         %s %s\n", e.Quantity, e.Unit)
		}
		if e.TimeHours != "" {
			fmt.Fprintf(&b, "  Time spent:       %s h\n", e.TimeHours)
		}
		if e.Notes != "" {
			fmt.Fprintf(&b, "  Notes:            %s\n", e.Notes)
		}
	}
	return b.String()
}
