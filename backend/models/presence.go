// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// PresenceLease records one user's activity in one conversation. It is a
// soft lease: liveness is derived from the renewal timestamp, never from an
// explicit "leave" signal, so crashes and dropped connections self-heal
// within one activity window.
type PresenceLease struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Active         bool      `json:"active"`
	LastRenewedAt  time.Time `json:"last_renewed_at"`
}

// Live reports whether the lease counts as presence at the given instant.
func (l PresenceLease) Live(now time.Time, activityWindow time.Duration) bool {
	return l.Active && now.Sub(l.LastRenewedAt) <= activityWindow
}
