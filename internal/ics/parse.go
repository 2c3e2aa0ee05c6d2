package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "revisit/internal/log"
)

var ErrNoEvent = errors.New("calendar contains no VEVENT")

// ParsedReminder is a reminder read back from a calendar document.
type ParsedReminder struct {
	ProductID string
	Method    string

	UID         string
	Summary     string
	Description string

	// Start / End are floating values and come back in time.Local.
	Start time.Time
	End   time.Time
	// Stamp is the DTSTAMP in UTC.
	Stamp time.Time
}

// String renders p for terminal output.
func (p ParsedReminder) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "uid:         %s\n", p.UID)
	fmt.Fprintf(&b, "title:       %s\n", p.Summary)
	fmt.Fprintf(&b, "start:       %s\n", p.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "end:         %s\n", p.End.Format(time.RFC3339))
	fmt.Fprintf(&b, "stamp:       %s\n", p.Stamp.Format(time.RFC3339))
	if p.Description != "" {
		fmt.Fprintf(&b, "description: %s\n", p.Description)
	}
	return b.String()
}

// Parse reads the first VEVENT of a calendar document. It is the inverse of
// Renderer.Render and is also used to sanity-check foreign files.
func Parse(body []byte) (ParsedReminder, error) {
	var out ParsedReminder
	if len(body) == 0 {
		return out, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "bytes", len(body))
		return out, err
	}

	for _, p := range cal.CalendarProperties {
		switch ical.Property(p.IANAToken) {
		case ical.PropertyProductId:
			out.ProductID = p.Value
		case ical.PropertyMethod:
			out.Method = p.Value
		}
	}

	events := cal.Events()
	if len(events) == 0 {
		return out, ErrNoEvent
	}
	if len(events) > 1 {
		appLog.Warn("ics document has more than one event; reading the first", "event_count", len(events))
	}

	if err := parseVEvent(events[0], &out); err != nil {
		return ParsedReminder{}, err
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent, out *ParsedReminder) error {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return fmt.Errorf("DTEND: %w", err)
	}
	out.Start = start
	out.End = end

	if stamp, err := ve.GetDtStampTime(); err == nil {
		out.Stamp = stamp
	}
	return nil
}
