// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// DeletionEvent notifies observers that a message was physically removed.
// Clients must treat an event for an already-removed message as a no-op;
// the fallback log makes duplicates routine, not exceptional.
type DeletionEvent struct {
	Type           string    `json:"type"` // always "message_deleted"
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	DeletedAt      time.Time `json:"deleted_at"`
}

const EventMessageDeleted = "message_deleted"
