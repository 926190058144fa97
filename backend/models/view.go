// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// ViewRecord is one viewer's acknowledgment of one message. The composite
// key (message_id, viewer_id) is unique; repeated view events are no-ops.
type ViewRecord struct {
	MessageID string    `json:"message_id" db:"message_id"`
	ViewerID  string    `json:"viewer_id" db:"viewer_id"`
	ViewedAt  time.Time `json:"viewed_at" db:"viewed_at"`
}
