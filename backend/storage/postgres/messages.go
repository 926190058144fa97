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
	"time"

	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/models"
)

// SaveMessage stores the message and the sender's implicit view in one
// transaction, so group eligibility counting never observes a message
// without its sender acknowledgment.
func (s *Store) SaveMessage(ctx context.Context, msg models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Transient("begin save message", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (message_id, conversation_id, sender_id, body, is_ephemeral, viewed_by_recipient, pending_removal, sent_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6)`,
		msg.MessageID, msg.ConversationID, msg.SenderID, msg.Body, msg.IsEphemeral, time.Now())
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO message_views (message_id, viewer_id, viewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, viewer_id) DO NOTHING`,
		msg.MessageID, msg.SenderID, time.Now())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, conversation_id, sender_id, body, is_ephemeral, viewed_by_recipient, pending_removal, sent_at
		FROM messages WHERE message_id = $1`, messageID).Scan(
		&msg.MessageID, &msg.ConversationID, &msg.SenderID, &msg.Body,
		&msg.IsEphemeral, &msg.ViewedByRecipient, &msg.PendingRemoval, &msg.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// GetVisibleMessages excludes rows already decided for removal: once
// pending_removal is set the message never comes back.
func (s *Store) GetVisibleMessages(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, conversation_id, sender_id, body, is_ephemeral, viewed_by_recipient, pending_removal, sent_at
		FROM messages
		WHERE conversation_id = $1 AND pending_removal = FALSE
		ORDER BY sent_at DESC
		LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// SweepCandidates lists ephemeral, not-yet-decided messages. An empty
// conversationID scans all conversations (the periodic sweep).
func (s *Store) SweepCandidates(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := `
		SELECT message_id, conversation_id, sender_id, body, is_ephemeral, viewed_by_recipient, pending_removal, sent_at
		FROM messages
		WHERE is_ephemeral = TRUE AND pending_removal = FALSE`
	args := []interface{}{}
	if conversationID != "" {
		query += ` AND conversation_id = $1`
		args = append(args, conversationID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// MarkPendingRemoval performs the phase-one conditional claim. Zero rows
// affected means a concurrent sweep already claimed the message.
func (s *Store) MarkPendingRemoval(ctx context.Context, messageID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE messages SET pending_removal = TRUE
		WHERE message_id = $1 AND pending_removal = FALSE`,
		messageID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrStaleWrite
	}
	return nil
}

func (s *Store) PendingRemovals(ctx context.Context, conversationID string) ([]models.Message, error) {
	query := `
		SELECT message_id, conversation_id, sender_id, body, is_ephemeral, viewed_by_recipient, pending_removal, sent_at
		FROM messages
		WHERE pending_removal = TRUE`
	args := []interface{}{}
	if conversationID != "" {
		query += ` AND conversation_id = $1`
		args = append(args, conversationID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// DeleteMessage is delete-if-exists; a duplicate phase-two attempt simply
// affects zero rows and reports false. View records go with the row via
// ON DELETE CASCADE.
func (s *Store) DeleteMessage(ctx context.Context, messageID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE message_id = $1`,
		messageID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	var msgs []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.MessageID, &msg.ConversationID, &msg.SenderID, &msg.Body,
			&msg.IsEphemeral, &msg.ViewedByRecipient, &msg.PendingRemoval, &msg.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
