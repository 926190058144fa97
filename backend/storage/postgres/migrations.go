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

func (s *Store) Migrate() error {
	migrations := []string{
		// Conversations table
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id VARCHAR(255) PRIMARY KEY,
			kind VARCHAR(20) NOT NULL CHECK (kind IN ('direct', 'group', 'broadcast')),
			created_by VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Conversation members table
		`CREATE TABLE IF NOT EXISTS conversation_members (
			conversation_id VARCHAR(255) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (conversation_id, user_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id) ON DELETE CASCADE
		)`,

		// Messages table. viewed_by_recipient and pending_removal are
		// written only by the lifecycle engine.
		`CREATE TABLE IF NOT EXISTS messages (
			message_id VARCHAR(255) PRIMARY KEY,
			conversation_id VARCHAR(255) NOT NULL,
			sender_id VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			is_ephemeral BOOLEAN NOT NULL DEFAULT FALSE,
			viewed_by_recipient BOOLEAN NOT NULL DEFAULT FALSE,
			pending_removal BOOLEAN NOT NULL DEFAULT FALSE,
			sent_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (conversation_id) REFERENCES conversations(conversation_id) ON DELETE CASCADE
		)`,

		// Index for listing a conversation's visible messages
		`CREATE INDEX IF NOT EXISTS idx_conversation_messages
		ON messages(conversation_id, sent_at DESC)`,

		// Index for sweep candidate scans
		`CREATE INDEX IF NOT EXISTS idx_sweep_candidates
		ON messages(conversation_id)
		WHERE is_ephemeral = TRUE AND pending_removal = FALSE`,

		// View ledger. One row per (message, viewer); repeated views are
		// ON CONFLICT DO NOTHING at write time.
		`CREATE TABLE IF NOT EXISTS message_views (
			message_id VARCHAR(255) NOT NULL,
			viewer_id VARCHAR(255) NOT NULL,
			viewed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (message_id, viewer_id),
			FOREIGN KEY (message_id) REFERENCES messages(message_id) ON DELETE CASCADE
		)`,

		// Note: presence leases and the deletion fallback log are stored in
		// Redis; no PostgreSQL tables needed for either.
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
