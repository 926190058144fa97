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

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/models"
)

// RecordView appends to the view ledger. Idempotent on (message, viewer):
// the conflict target swallows repeats without touching viewed_at, so the
// first view's timestamp is the one that sticks.
func (s *Store) RecordView(ctx context.Context, messageID, viewerID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Transient("begin record view", err)
	}
	defer tx.Rollback()

	var conversationID, senderID string
	err = tx.QueryRowContext(ctx, `
		SELECT conversation_id, sender_id FROM messages
		WHERE message_id = $1`, messageID).Scan(&conversationID, &senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrMessageNotFound
	}
	if err != nil {
		return err
	}

	var kind models.ConversationKind
	err = tx.QueryRowContext(ctx, `
		SELECT kind FROM conversations
		WHERE conversation_id = $1`, conversationID).Scan(&kind)
	if err != nil {
		return err
	}

	var isMember bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2
		)`, conversationID, viewerID).Scan(&isMember)
	if err != nil {
		return err
	}
	if !isMember {
		return errs.ErrNotAParticipant
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO message_views (message_id, viewer_id, viewed_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (message_id, viewer_id) DO NOTHING`,
		messageID, viewerID)
	if err != nil {
		return err
	}

	// Direct fast path. Sender self-views never count as recipient
	// acknowledgment.
	if kind == models.KindDirect && viewerID != senderID {
		_, err = tx.ExecContext(ctx, `
			UPDATE messages SET viewed_by_recipient = TRUE
			WHERE message_id = $1 AND viewed_by_recipient = FALSE`,
			messageID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CountViews counts distinct viewers of a message; the sender's implicit
// send-time view is included.
func (s *Store) CountViews(ctx context.Context, messageID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM message_views
		WHERE message_id = $1`,
		messageID).Scan(&count)
	return count, err
}
