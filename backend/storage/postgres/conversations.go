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

func (s *Store) CreateConversation(ctx context.Context, conv models.Conversation, memberIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Transient("begin create conversation", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (conversation_id, kind, created_by, created_at)
		VALUES ($1, $2, $3, $4)`,
		conv.ConversationID, conv.Kind, conv.CreatedBy, time.Now())
	if err != nil {
		return err
	}

	// Creator is always a member, listed or not.
	seen := map[string]bool{}
	for _, userID := range append([]string{conv.CreatedBy}, memberIDs...) {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id, joined_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (conversation_id, user_id) DO NOTHING`,
			conv.ConversationID, userID, time.Now())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := s.db.QueryRowContext(ctx, `
		SELECT conversation_id, kind, created_by, created_at FROM conversations
		WHERE conversation_id = $1`, conversationID).Scan(
		&conv.ConversationID, &conv.Kind, &conv.CreatedBy, &conv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Store) AddParticipant(ctx context.Context, conversationID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_members (conversation_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id, user_id) DO NOTHING`,
		conversationID, userID, time.Now())
	return err
}

// RemoveParticipant deletes the membership row only. The participant's view
// records stay: a leaver must not retroactively block group disappearance,
// and the evaluator always counts against the current member snapshot.
func (s *Store) RemoveParticipant(ctx context.Context, conversationID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM conversation_members
		WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID)
	return err
}

func (s *Store) GetParticipants(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM conversation_members
		WHERE conversation_id = $1`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		members = append(members, userID)
	}

	return members, rows.Err()
}

func (s *Store) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2
		)`, conversationID, userID).Scan(&exists)
	return exists, err
}
