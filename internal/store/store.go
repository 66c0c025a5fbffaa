// SPDX-License-Identifier: MIT

// Package store persists sessions, signals and fraud analyses. Two
// backends exist: an in-memory store for development and tests, and a
// SQLite store for single-node deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Ch0c0l4tE/fraud/internal/model"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAnalysisNotFound is returned when no analysis exists for a session.
	ErrAnalysisNotFound = errors.New("analysis not found")
	// ErrDuplicateSession is returned when a session id is already taken.
	ErrDuplicateSession = errors.New("session already exists")
)

// SessionStore manages session lifecycle records.
type SessionStore interface {
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	SessionExists(ctx context.Context, id string) (bool, error)
	// CompleteSession is idempotent; a repeat call refreshes the timestamp.
	CompleteSession(ctx context.Context, id string) (*model.Session, error)
	// SessionsByClient returns up to limit sessions, newest first.
	SessionsByClient(ctx context.Context, clientID string, limit int) ([]model.Session, error)
}

// SignalStore appends and reads the signals recorded for a session.
// All reads return signals sorted ascending by timestamp.
type SignalStore interface {
	AppendSignals(ctx context.Context, sessionID string, signals []model.Signal) error
	SignalsBySession(ctx context.Context, sessionID string) ([]model.Signal, error)
	SignalsBySessionAndType(ctx context.Context, sessionID string, t model.SignalType) ([]model.Signal, error)
	// SignalsInRange bounds are inclusive.
	SignalsInRange(ctx context.Context, sessionID string, start, end time.Time) ([]model.Signal, error)
	SignalCount(ctx context.Context, sessionID string) (int, error)
}

// AnalysisStore persists the evaluation outcome for completed sessions.
type AnalysisStore interface {
	PutAnalysis(ctx context.Context, a *model.FraudAnalysis) error
	GetAnalysis(ctx context.Context, sessionID string) (*model.FraudAnalysis, error)
	AnalysisExists(ctx context.Context, sessionID string) (bool, error)
}

// Store bundles all persistence concerns behind one handle.
type Store interface {
	SessionStore
	SignalStore
	AnalysisStore
	Close() error
}
