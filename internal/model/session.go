// SPDX-License-Identifier: MIT

package model

import "time"

// Session groups all signals from one user interaction window.
// A session is mutated exactly once, when CompletedAt is set.
type Session struct {
	ID                string         `json:"id"`
	ClientID          string         `json:"clientId"`
	DeviceFingerprint string         `json:"deviceFingerprint"`
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// Completed reports whether the session has been marked complete.
func (s *Session) Completed() bool {
	return s.CompletedAt != nil
}
