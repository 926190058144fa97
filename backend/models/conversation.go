// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "time"

type ConversationKind string

const (
	// KindDirect disappears on recipient view plus absence of live presence.
	KindDirect ConversationKind = "direct"
	// KindGroup disappears on all-member acknowledgment, presence ignored.
	KindGroup ConversationKind = "group"
	// KindBroadcast is representable but never swept by this engine.
	KindBroadcast ConversationKind = "broadcast"
)

// Ephemeral reports whether the kind participates in disappearance at all.
func (k ConversationKind) Ephemeral() bool {
	return k == KindDirect || k == KindGroup
}

type Conversation struct {
	ConversationID string           `json:"conversation_id" db:"conversation_id"`
	Kind           ConversationKind `json:"kind" db:"kind"`
	CreatedBy      string           `json:"created_by" db:"created_by"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

type ConversationMember struct {
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	JoinedAt       time.Time `json:"joined_at" db:"joined_at"`
}
