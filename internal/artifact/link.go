package artifact

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"revisit/internal/model"
)

const (
	ProviderGoogle  = "google"
	ProviderOutlook = "outlook"

	googleBaseURL  = "https://calendar.google.com/calendar/render"
	outlookBaseURL = "https://outlook.live.com/calendar/0/deeplink/compose"

	googleLayout  = "20060102T150405Z"
	outlookLayout = "2006-01-02T15:04:05"
)

var ErrUnknownProvider = errors.New("unknown calendar provider")

var linkBuilders = map[string]func(model.Reminder) string{
	ProviderGoogle:  GoogleURL,
	ProviderOutlook: OutlookURL,
}

// Providers lists the supported deep-link providers, sorted.
func Providers() []string {
	out := make([]string, 0, len(linkBuilders))
	for name := range linkBuilders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Link builds the deep link for the named provider.
func Link(provider string, r model.Reminder) (string, error) {
	build, ok := linkBuilders[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	return build(r), nil
}

// GoogleURL builds a create-from-template link. Times are absolute UTC in
// basic format; the provider shows them in the viewer's own zone.
func GoogleURL(r model.Reminder) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", r.Title)
	q.Set("details", r.Content)
	q.Set("dates", r.Start.UTC().Format(googleLayout)+"/"+r.End.UTC().Format(googleLayout))
	q.Set("trp", "false")
	return googleBaseURL + "?" + q.Encode()
}

// OutlookURL builds a compose link. Times are UTC truncated to seconds in
// extended format without a zone designator.
func OutlookURL(r model.Reminder) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", r.Title)
	q.Set("body", r.Content)
	q.Set("startdt", formatOutlook(r.Start))
	q.Set("enddt", formatOutlook(r.End))
	return outlookBaseURL + "?" + q.Encode()
}

func formatOutlook(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(outlookLayout)
}
