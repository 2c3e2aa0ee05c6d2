package model

import (
	"errors"
	"strings"
	"time"

	"revisit/internal/offset"
)

var ErrEmptyTitle = errors.New("reminder title is empty")

// Request is what the form hands over: a title, an optional body and the
// offset token picked by the user.
type Request struct {
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	TimeDelay string `json:"timeDelay"`
}

// Reminder is a resolved event ready to be rendered into any artifact.
// End is always Start plus offset.Duration.
type Reminder struct {
	Title   string
	Content string

	// Start / End carry the local wall-clock interpretation of the process.
	Start time.Time
	End   time.Time
}

// Validate reports whether r can be rendered.
func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// NewReminder resolves req against now. The resolution is returned alongside
// so callers can log or surface a fallback.
func NewReminder(req Request, now time.Time) (Reminder, offset.Resolution, error) {
	res := offset.Resolve(req.TimeDelay, now)
	r := Reminder{
		Title:   req.Title,
		Content: req.Content,
		Start:   res.Start,
		End:     res.End,
	}
	if err := r.Validate(); err != nil {
		return Reminder{}, res, err
	}
	return r, res, nil
}
