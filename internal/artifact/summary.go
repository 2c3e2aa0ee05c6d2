package artifact

import (
	"strings"

	"revisit/internal/model"
)

const (
	whenLayout    = "Monday, January 2, 2006 at 3:04 PM"
	durationLabel = "30 minutes"
)

// Summary renders a short plain-text description for the clipboard. The
// date is printed in the reminder's own (local) zone.
func Summary(r model.Reminder) string {
	var b strings.Builder
	b.WriteString("Reminder: " + r.Title + "\n")
	b.WriteString("When: " + r.Start.Format(whenLayout) + "\n")
	b.WriteString("Duration: " + durationLabel + "\n")
	if r.Content != "" {
		b.WriteString("\nNotes:\n" + r.Content + "\n")
	}
	return b.String()
}
