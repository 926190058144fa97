// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

// Message is the unit the lifecycle engine drives to disappearance. The
// messaging layer owns the row generally; ViewedByRecipient and
// PendingRemoval are written exclusively by this engine.
type Message struct {
	MessageID      string    `json:"message_id" db:"message_id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	SenderID       string    `json:"sender_id" db:"sender_id"`
	Body           string    `json:"body" db:"body"`
	IsEphemeral    bool      `json:"is_ephemeral" db:"is_ephemeral"`
	// ViewedByRecipient is the direct-conversation fast path: true once the
	// single non-sender participant has viewed the message.
	ViewedByRecipient bool `json:"viewed_by_recipient" db:"viewed_by_recipient"`
	// PendingRemoval is a one-way transition. Once true the message is
	// decided and only physical deletion remains.
	PendingRemoval bool      `json:"pending_removal" db:"pending_removal"`
	SentAt         time.Time `json:"sent_at" db:"sent_at"`
}
