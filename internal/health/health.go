// SPDX-License-Identifier: MIT

// Package health aggregates component probes into one service status.
package health

import (
	"context"
	"sync"
	"time"
)

// Status is the aggregate service state.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Check probes one dependency. It must return quickly; callers pass a
// deadline-bound context.
type Check func(ctx context.Context) error

// Report is the health snapshot served by the health endpoint.
type Report struct {
	Status    Status            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Manager holds registered checks and the service version.
type Manager struct {
	mu      sync.RWMutex
	version string
	checks  map[string]Check
}

func NewManager(version string) *Manager {
	return &Manager{
		version: version,
		checks:  make(map[string]Check),
	}
}

// Register adds a named probe. Registering the same name twice replaces
// the previous probe.
func (m *Manager) Register(name string, check Check) {
	m.mu.Lock()
	m.checks[name] = check
	m.mu.Unlock()
}

// Report runs all probes and aggregates the outcome. Any failing probe
// degrades the overall status; the report stays serveable either way.
func (m *Manager) Report(ctx context.Context) Report {
	m.mu.RLock()
	checks := make(map[string]Check, len(m.checks))
	for name, c := range m.checks {
		checks[name] = c
	}
	version := m.version
	m.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	report := Report{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Version:   version,
	}
	if len(checks) > 0 {
		report.Checks = make(map[string]string, len(checks))
	}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			report.Status = StatusDegraded
			report.Checks[name] = err.Error()
		} else {
			report.Checks[name] = "ok"
		}
	}
	return report
}
