// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package storage

import (
	"context"

	"github.com/vanishchat/vanish/backend/models"
)

// ConversationStore is the membership provider: the engine validates view
// callers against it and evaluates the group policy against the current
// participant snapshot, never the snapshot at send time.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv models.Conversation, memberIDs []string) error
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID string) error
	RemoveParticipant(ctx context.Context, conversationID, userID string) error
	GetParticipants(ctx context.Context, conversationID string) ([]string, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
}

// MessageStore owns message rows. MarkPendingRemoval must be conditional on
// pending_removal being false and return errs.ErrStaleWrite when the row was
// already claimed; DeleteMessage is delete-if-exists so duplicate phase-two
// attempts are harmless, and reports whether this call removed the row so
// only the winning deleter notifies.
type MessageStore interface {
	SaveMessage(ctx context.Context, msg models.Message) error
	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	GetVisibleMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	SweepCandidates(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkPendingRemoval(ctx context.Context, messageID string) error
	PendingRemovals(ctx context.Context, conversationID string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID string) (bool, error)
}

// ViewStore is the view ledger. RecordView is idempotent on the
// (message, viewer) pair and sets the direct-conversation recipient flag as
// a side effect when the viewer is not the sender.
type ViewStore interface {
	RecordView(ctx context.Context, messageID, viewerID string) error
	CountViews(ctx context.Context, messageID string) (int, error)
}

// PresenceStore tracks soft leases per (conversation, user).
type PresenceStore interface {
	Renew(ctx context.Context, conversationID, userID string, active bool) error
	HasLiveParticipant(ctx context.Context, conversationID string) (bool, error)
}

type Store interface {
	ConversationStore
	MessageStore
	ViewStore
	PresenceStore
}
