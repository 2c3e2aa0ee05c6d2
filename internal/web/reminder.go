package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"revisit/internal/artifact"
	"revisit/internal/ics"
	appLog "revisit/internal/log"
	"revisit/internal/model"
	"revisit/internal/offset"
)

const (
	// FallbackHeader carries the reason when the requested token was replaced
	// by the default.
	FallbackHeader = "X-Revisit-Fallback"

	formatICS     = "ics"
	formatSummary = "summary"

	// maxPickerCount is the largest count offered by the picker.
	maxPickerCount = 9

	maxRequestBytes = 64 << 10
)

type unitsResponse struct {
	Units   []string `json:"units"`
	Counts  []int    `json:"counts"`
	Default string   `json:"default"`
}

type preferencesResponse struct {
	Last   string   `json:"last"`
	Recent []string `json:"recent"`
}

type setLastRequest struct {
	Token string `json:"token"`
}

type linkResponse struct {
	Provider string `json:"provider"`
	URL      string `json:"url"`
}

func (s *Server) handleUnits(w http.ResponseWriter, _ *http.Request) {
	counts := make([]int, 0, maxPickerCount)
	for i := 1; i <= maxPickerCount; i++ {
		counts = append(counts, i)
	}
	writeJSON(w, http.StatusOK, unitsResponse{
		Units:   offset.Units(),
		Counts:  counts,
		Default: s.cfg.Default().String(),
	})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	snap, err := s.prefs.Snapshot(r.Context())
	if err != nil {
		appLog.Error("api preferences: read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read preferences")
		return
	}
	recent := make([]string, 0, len(snap.Recent))
	for _, t := range snap.Recent {
		recent = append(recent, t.String())
	}
	writeJSON(w, http.StatusOK, preferencesResponse{Last: snap.Last.String(), Recent: recent})
}

// handleSetLast persists the picker state. Unlike artifact generation this is
// strict: an invalid token is rejected instead of replaced.
func (s *Server) handleSetLast(w http.ResponseWriter, r *http.Request) {
	var req setLastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	t, err := offset.Parse(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.prefs.SetLast(r.Context(), t); err != nil {
		appLog.Error("api preferences: save last failed", err, "token", t.String())
		writeError(w, http.StatusInternalServerError, "failed to save preference")
		return
	}
	writeJSON(w, http.StatusOK, setLastRequest{Token: t.String()})
}

// handleReminder resolves the request and renders the artifact named by the
// {format} path segment: ics, summary or a provider name.
func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(mux.Vars(r)["format"])
	if !knownFormat(format) {
		writeError(w, http.StatusNotFound, "unknown format "+format)
		return
	}

	var req model.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rem, res, err := model.NewReminder(req, s.clock.Now())
	if err != nil {
		if errors.Is(err, model.ErrEmptyTitle) {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.Fallback {
		appLog.Warn("offset token fell back to default", "token", req.TimeDelay, "reason", res.Reason)
		w.Header().Set(FallbackHeader, res.Reason)
	}

	switch format {
	case formatICS:
		doc := s.renderer.Render(rem)
		w.Header().Set("Content-Type", ics.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc.Body))
	case formatSummary:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(artifact.Summary(rem)))
	default:
		link, err := artifact.Link(format, rem)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, linkResponse{Provider: format, URL: link})
	}

	// The artifact is already on the wire; a failed save only loses history.
	if _, err := s.prefs.Record(r.Context(), res.Token); err != nil {
		appLog.Error("api reminders: record recent selection failed", err, "token", res.Token.String())
	}
}

func knownFormat(format string) bool {
	if format == formatICS || format == formatSummary {
		return true
	}
	for _, p := range artifact.Providers() {
		if p == format {
			return true
		}
	}
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	return dec.Decode(v)
}
