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
	"time"

	"github.com/redis/go-redis/v9"

	redisStore "github.com/vanishchat/vanish/backend/storage/redis"
)

// Store is the relational source of truth for conversations, messages and
// the view ledger. Presence is leased state and lives in Redis, same as the
// deletion log; both are delegated to the redis sub-store.
type Store struct {
	db       *sql.DB
	presence *redisStore.PresenceStore
}

func NewStore(db *sql.DB, rdb *redis.Client, activityWindow time.Duration) *Store {
	return &Store{
		db:       db,
		presence: redisStore.NewPresenceStore(rdb, activityWindow),
	}
}

// Presence leases are delegated to Redis for ephemeral storage.

func (s *Store) Renew(ctx context.Context, conversationID, userID string, active bool) error {
	return s.presence.Renew(ctx, conversationID, userID, active)
}

func (s *Store) HasLiveParticipant(ctx context.Context, conversationID string) (bool, error) {
	return s.presence.HasLiveParticipant(ctx, conversationID)
}
