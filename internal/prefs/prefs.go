package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	appLog "revisit/internal/log"
	"revisit/internal/offset"
	"revisit/internal/store"
)

const (
	KeyLast   = "lastSelection"
	KeyRecent = "recentSelections"

	// MaxRecent bounds the recent-selections list.
	MaxRecent = 3
)

// Push returns a new list with t at the front. An existing equal token is
// moved rather than duplicated, and the oldest entries beyond MaxRecent are
// dropped. list is never modified.
func Push(list []offset.Token, t offset.Token) []offset.Token {
	out := make([]offset.Token, 0, MaxRecent)
	out = append(out, t)
	for _, existing := range list {
		if len(out) == MaxRecent {
			break
		}
		if existing == t {
			continue
		}
		out = append(out, existing)
	}
	return out
}

// Snapshot is the persisted picker state.
type Snapshot struct {
	Last   offset.Token
	Recent []offset.Token
}

// Service reads and writes picker state through a store.Store. Reads never
// fail on corrupt data: bad values decode to defaults and are logged.
type Service struct {
	// mu serializes the read-modify-write in Record.
	mu       sync.Mutex
	store    store.Store
	fallback offset.Token
}

// NewService builds a Service. def is returned by Last when nothing usable is
// stored.
func NewService(s store.Store, def offset.Token) *Service {
	return &Service{store: s, fallback: def}
}

func (s *Service) Last(ctx context.Context) (offset.Token, error) {
	raw, ok, err := s.store.Get(ctx, KeyLast)
	if err != nil {
		return s.fallback, err
	}
	if !ok {
		return s.fallback, nil
	}
	t, perr := offset.Parse(raw)
	if perr != nil {
		appLog.Warn("stored last selection unusable; using default", "value", raw, "reason", perr.Error())
		return s.fallback, nil
	}
	return t, nil
}

func (s *Service) SetLast(ctx context.Context, t offset.Token) error {
	if err := s.store.Set(ctx, KeyLast, t.String()); err != nil {
		return fmt.Errorf("save last selection: %w", err)
	}
	return nil
}

func (s *Service) Recent(ctx context.Context) ([]offset.Token, error) {
	raw, ok, err := s.store.Get(ctx, KeyRecent)
	if err != nil {
		return []offset.Token{}, err
	}
	if !ok {
		return []offset.Token{}, nil
	}
	return decodeRecent(raw), nil
}

// Record pushes t onto the recent list and persists it. Call it only after an
// artifact was generated successfully.
func (s *Service) Record(ctx context.Context, t offset.Token) ([]offset.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.Recent(ctx)
	if err != nil {
		return nil, err
	}
	next := Push(current, t)
	raw, err := encodeRecent(next)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, KeyRecent, raw); err != nil {
		return nil, fmt.Errorf("save recent selections: %w", err)
	}
	return next, nil
}

func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	last, err := s.Last(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	recent, err := s.Recent(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Last: last, Recent: recent}, nil
}

func encodeRecent(list []offset.Token) (string, error) {
	strs := make([]string, 0, len(list))
	for _, t := range list {
		strs = append(strs, t.String())
	}
	data, err := json.Marshal(strs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeRecent parses the stored JSON array, skipping invalid or duplicate
// entries and capping the result at MaxRecent.
func decodeRecent(raw string) []offset.Token {
	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err != nil {
		appLog.Warn("stored recent selections unreadable; starting empty", "reason", err.Error())
		return []offset.Token{}
	}

	out := make([]offset.Token, 0, MaxRecent)
	seen := map[offset.Token]bool{}
	for _, s := range strs {
		t, err := offset.Parse(s)
		if err != nil {
			appLog.Debug("dropping invalid recent selection", "value", s)
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == MaxRecent {
			break
		}
	}
	return out
}
