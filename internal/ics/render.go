package ics

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"revisit/internal/clock"
	"revisit/internal/model"
)

const (
	DefaultProductID = "-//Revisit//Reminder//EN"
	DefaultUIDDomain = "revisit.app"

	// ContentType is the media type a rendered Document should be served with.
	ContentType = "text/calendar; charset=utf-8"

	crlf = "\r\n"

	// floatingLayout has no zone designator: consumers read it in their own
	// local zone. utcLayout is only used for DTSTAMP.
	floatingLayout = "20060102T150405"
	utcLayout      = "20060102T150405Z"
)

// Document is a rendered calendar file together with the name it should be
// saved under.
type Document struct {
	Filename string
	UID      string
	Body     string
}

// Renderer serializes reminders into single-event VCALENDAR documents.
type Renderer struct {
	productID string
	uidDomain string
	randomUID bool
	clock     clock.Clock
}

type Option func(*Renderer)

func WithProductID(id string) Option {
	return func(r *Renderer) {
		if id != "" {
			r.productID = id
		}
	}
}

func WithUIDDomain(domain string) Option {
	return func(r *Renderer) {
		if domain != "" {
			r.uidDomain = domain
		}
	}
}

// WithRandomUID appends a random segment to every UID so documents generated
// within the same millisecond stay distinct.
func WithRandomUID() Option {
	return func(r *Renderer) {
		r.randomUID = true
	}
}

func WithClock(c clock.Clock) Option {
	return func(r *Renderer) {
		if c != nil {
			r.clock = c
		}
	}
}

// NewRenderer constructs a Renderer with defaults overridden by opts.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		productID: DefaultProductID,
		uidDomain: DefaultUIDDomain,
		clock:     clock.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render builds the calendar document for rem. The caller is expected to
// have validated rem (non-empty title).
//
// DTSTART/DTEND are written as floating local time while DTSTAMP is absolute
// UTC; the two conventions are intentional and must not be unified.
func (r *Renderer) Render(rem model.Reminder) Document {
	now := r.clock.Now()
	uid := r.uid(now)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + r.productID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + formatUTC(now),
		"DTSTART:" + formatFloating(rem.Start),
		"DTEND:" + formatFloating(rem.End),
		"SUMMARY:" + escapeText(rem.Title),
	}
	if rem.Content != "" {
		lines = append(lines, "DESCRIPTION:"+escapeText(rem.Content))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	return Document{
		Filename: Filename(rem.Title),
		UID:      uid,
		Body:     strings.Join(lines, crlf) + crlf,
	}
}

func (r *Renderer) uid(now time.Time) string {
	id := strconv.FormatInt(now.UnixMilli(), 10)
	if r.randomUID {
		id += "-" + uuid.NewString()
	}
	return id + "@" + r.uidDomain
}

func formatFloating(t time.Time) string {
	return t.Format(floatingLayout)
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(utcLayout)
}

// escapeText turns line breaks (CRLF, LF or a lone CR) into the
// two-character sequence `\n`. No other characters are escaped.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", `\n`)
}
