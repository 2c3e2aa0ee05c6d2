package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revisit/internal/clock"
	"revisit/internal/config"
	"revisit/internal/ics"
	"revisit/internal/offset"
	"revisit/internal/prefs"
	"revisit/internal/store"
)

var testNow = time.Date(2024, time.January, 31, 10, 0, 0, 0, time.Local)

type testEnv struct {
	handler http.Handler
	store   *store.MemoryStore
	prefs   *prefs.Service
}

func setupServer(t *testing.T, mutate ...func(*config.Config)) testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	st := store.NewMemoryStore()
	svc := prefs.NewService(st, cfg.Default())
	c := &clock.MockClock{FixedNow: testNow}
	srv := NewServer(cfg, svc, ics.NewRenderer(ics.WithClock(c)), c)
	return testEnv{handler: srv.Handler(), store: st, prefs: svc}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	env := setupServer(t)
	w := do(t, env.handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestUnits(t *testing.T) {
	env := setupServer(t, func(c *config.Config) { c.DefaultToken = "2months" })
	w := do(t, env.handler, http.MethodGet, "/api/units", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got unitsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, []string{"weeks", "months", "years"}, got.Units)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, got.Counts)
	assert.Equal(t, "2months", got.Default)
}

func TestReminderICS(t *testing.T) {
	env := setupServer(t)
	w := do(t, env.handler, http.MethodPost, "/api/reminders/ics", map[string]string{
		"title":     "Revisit: My Decision!!",
		"content":   "first\nsecond",
		"timeDelay": "2months",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ics.ContentType, w.Header().Get("Content-Type"))
	assert.Empty(t, w.Header().Get(FallbackHeader))

	_, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "revisit-my-decision.ics", params["filename"])

	parsed, err := ics.Parse(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Revisit: My Decision!!", parsed.Summary)
	assert.Equal(t, "first\nsecond", parsed.Description)
	assert.True(t, time.Date(2024, time.March, 31, 10, 0, 0, 0, time.Local).Equal(parsed.Start))

	recent, err := env.prefs.Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []offset.Token{{Count: 2, Unit: offset.UnitMonths}}, recent)
}

func TestReminderLinks(t *testing.T) {
	env := setupServer(t)
	for _, provider := range []string{"google", "outlook"} {
		t.Run(provider, func(t *testing.T) {
			w := do(t, env.handler, http.MethodPost, "/api/reminders/"+provider, map[string]string{
				"title":     "Check in",
				"timeDelay": "1weeks",
			})
			require.Equal(t, http.StatusOK, w.Code)

			var got linkResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, provider, got.Provider)
			u, err := url.Parse(got.URL)
			require.NoError(t, err)
			assert.Equal(t, "https", u.Scheme)
		})
	}
}

func TestReminderSummary(t *testing.T) {
	env := setupServer(t)
	w := do(t, env.handler, http.MethodPost, "/api/reminders/summary", map[string]string{
		"title":     "Check in",
		"timeDelay": "1weeks",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Reminder: Check in\nWhen: Wednesday, February 7, 2024 at 10:00 AM\n"))
}

func TestReminderFallback(t *testing.T) {
	env := setupServer(t)
	w := do(t, env.handler, http.MethodPost, "/api/reminders/ics", map[string]string{
		"title":     "x",
		"timeDelay": "garbage",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get(FallbackHeader), "malformed offset token")

	parsed, err := ics.Parse(w.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, testNow.AddDate(0, 0, 7).Equal(parsed.Start))

	recent, err := env.prefs.Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []offset.Token{offset.Default}, recent)
}

func TestReminderFallbackHeaderIsASCII(t *testing.T) {
	env := setupServer(t)
	w := do(t, env.handler, http.MethodPost, "/api/reminders/summary", map[string]string{
		"title":     "x",
		"timeDelay": "2 семестра\u00e9",
	})
	require.Equal(t, http.StatusOK, w.Code)

	reason := w.Header().Get(FallbackHeader)
	require.NotEmpty(t, reason)
	for i := 0; i < len(reason); i++ {
		assert.Less(t, reason[i], byte(0x80), reason)
	}
	assert.Contains(t, reason, `\u0441`)
}

func TestReminderOverflowingCountFallsBack(t *testing.T) {
	env := setupServer(t)
	w := do(t, env.handler, http.MethodPost, "/api/reminders/ics", map[string]string{
		"title":     "x",
		"timeDelay": "1317624576693539401weeks",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get(FallbackHeader), "malformed offset token")

	parsed, err := ics.Parse(w.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, testNow.AddDate(0, 0, 7).Equal(parsed.Start))
}

func TestReminderErrors(t *testing.T) {
	env := setupServer(t)

	w := do(t, env.handler, http.MethodPost, "/api/reminders/ics", map[string]string{"title": "  ", "timeDelay": "1weeks"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, env.handler, http.MethodPost, "/api/reminders/ics", "{broken")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, env.handler, http.MethodPost, "/api/reminders/pdf", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, env.handler, http.MethodGet, "/api/reminders/ics", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	recent, err := env.prefs.Recent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recent, "failed requests must not touch recent selections")
}

func TestPreferences(t *testing.T) {
	env := setupServer(t)

	w := do(t, env.handler, http.MethodGet, "/api/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"last":"1weeks","recent":[]}`, w.Body.String())

	w = do(t, env.handler, http.MethodPut, "/api/preferences/last", map[string]string{"token": "3years"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, env.handler, http.MethodPut, "/api/preferences/last", map[string]string{"token": "3days"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, tok := range []string{"1weeks", "2weeks", "3weeks", "1weeks"} {
		w = do(t, env.handler, http.MethodPost, "/api/reminders/summary", map[string]string{"title": "x", "timeDelay": tok})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = do(t, env.handler, http.MethodGet, "/api/preferences", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"last":"3years","recent":["1weeks","3weeks","2weeks"]}`, w.Body.String())
}

func TestBasicAuth(t *testing.T) {
	env := setupServer(t, func(c *config.Config) {
		c.BasicAuth = config.BasicAuthConfig{Username: "me", Password: "secret"}
	})

	w := do(t, env.handler, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, env.handler, http.MethodGet, "/api/units", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.SetBasicAuth("me", "secret")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/units", nil)
	req.SetBasicAuth("me", "wrong")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	srv := NewServer(cfg, prefs.NewService(store.NewMemoryStore(), offset.Default), ics.NewRenderer(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
