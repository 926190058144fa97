// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vanishchat/vanish/backend/models"
)

const (
	// Redis key prefix
	presencePrefix = "vanish:presence:" // vanish:presence:{conversationId} - hash of userId -> lease
)

// PresenceStore keeps soft presence leases in Redis, one hash per
// conversation. Liveness is computed from the stored renewal timestamp, not
// from key expiry; the hash TTL only garbage-collects abandoned
// conversations.
type PresenceStore struct {
	rdb            *redis.Client
	activityWindow time.Duration
	now            func() time.Time
}

func NewPresenceStore(rdb *redis.Client, activityWindow time.Duration) *PresenceStore {
	return &PresenceStore{
		rdb:            rdb,
		activityWindow: activityWindow,
		now:            time.Now,
	}
}

// Renew upserts the caller's lease. Called on conversation enter
// (active=true), on the periodic heartbeat, and on exit (active=false).
func (s *PresenceStore) Renew(ctx context.Context, conversationID, userID string, active bool) error {
	lease := models.PresenceLease{
		ConversationID: conversationID,
		UserID:         userID,
		Active:         active,
		LastRenewedAt:  s.now(),
	}
	data, err := json.Marshal(lease)
	if err != nil {
		return fmt.Errorf("failed to marshal lease: %w", err)
	}

	key := presencePrefix + conversationID
	if err := s.rdb.HSet(ctx, key, userID, data).Err(); err != nil {
		return fmt.Errorf("failed to store lease: %w", err)
	}

	// GC horizon well past the activity window; liveness never depends on it.
	s.rdb.Expire(ctx, key, 4*s.activityWindow)

	return nil
}

// HasLiveParticipant reports whether any lease for the conversation is live:
// active and renewed within the activity window. Stale fields are removed
// opportunistically while scanning.
func (s *PresenceStore) HasLiveParticipant(ctx context.Context, conversationID string) (bool, error) {
	key := presencePrefix + conversationID
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read leases: %w", err)
	}

	now := s.now()
	live := false
	for userID, raw := range fields {
		var lease models.PresenceLease
		if err := json.Unmarshal([]byte(raw), &lease); err != nil {
			s.rdb.HDel(ctx, key, userID)
			continue
		}
		if lease.Live(now, s.activityWindow) {
			live = true
			continue
		}
		if now.Sub(lease.LastRenewedAt) > 2*s.activityWindow {
			s.rdb.HDel(ctx, key, userID)
		}
	}

	return live, nil
}
