// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

// MemoryStore keeps all records in process memory. Reads return copies so
// callers can never mutate shared state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	signals  map[string][]model.Signal
	analyses map[string]*model.FraudAnalysis
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*model.Session),
		signals:  make(map[string][]model.Signal),
		analyses: make(map[string]*model.FraudAnalysis),
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("create session %q: %w", s.ID, ErrDuplicateSession)
	}
	cp := cloneSession(s)
	m.sessions[s.ID] = cp
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("get session %q: %w", id, ErrSessionNotFound)
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) SessionExists(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[id]
	return ok, nil
}

func (m *MemoryStore) SessionsByClient(_ context.Context, clientID string, limit int) ([]model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Session
	for _, s := range m.sessions {
		if s.ClientID == clientID {
			out = append(out, *cloneSession(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CompleteSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("complete session %q: %w", id, ErrSessionNotFound)
	}
	now := time.Now().UTC()
	s.CompletedAt = &now
	return cloneSession(s), nil
}

func (m *MemoryStore) AppendSignals(_ context.Context, sessionID string, signals []model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("append signals for %q: %w", sessionID, ErrSessionNotFound)
	}
	m.signals[sessionID] = append(m.signals[sessionID], signals...)
	return nil
}

func (m *MemoryStore) SignalsBySession(_ context.Context, sessionID string) ([]model.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("signals for %q: %w", sessionID, ErrSessionNotFound)
	}
	out := make([]model.Signal, len(m.signals[sessionID]))
	copy(out, m.signals[sessionID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *MemoryStore) SignalsBySessionAndType(ctx context.Context, sessionID string, t model.SignalType) ([]model.Signal, error) {
	all, err := m.SignalsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []model.Signal
	for _, s := range all {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) SignalsInRange(ctx context.Context, sessionID string, start, end time.Time) ([]model.Signal, error) {
	all, err := m.SignalsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []model.Signal
	for _, s := range all {
		if !s.Timestamp.Before(start) && !s.Timestamp.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) SignalCount(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return 0, fmt.Errorf("signal count for %q: %w", sessionID, ErrSessionNotFound)
	}
	return len(m.signals[sessionID]), nil
}

func (m *MemoryStore) PutAnalysis(_ context.Context, a *model.FraudAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	cp.RiskFactors = append([]model.RiskFactor(nil), a.RiskFactors...)
	m.analyses[a.SessionID] = &cp
	return nil
}

func (m *MemoryStore) GetAnalysis(_ context.Context, sessionID string) (*model.FraudAnalysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.analyses[sessionID]
	if !ok {
		return nil, fmt.Errorf("analysis for %q: %w", sessionID, ErrAnalysisNotFound)
	}
	cp := *a
	cp.RiskFactors = append([]model.RiskFactor(nil), a.RiskFactors...)
	return &cp, nil
}

func (m *MemoryStore) AnalysisExists(_ context.Context, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.analyses[sessionID]
	return ok, nil
}

func (m *MemoryStore) Close() error { return nil }

func cloneSession(s *model.Session) *model.Session {
	cp := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	if s.Metadata != nil {
		cp.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
