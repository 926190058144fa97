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
	// Redis key prefixes
	deletionLogPrefix = "vanish:deleted:" // vanish:deleted:{conversationId} - list of deletion events
	notifyPrefix      = "vanish:notify:"  // vanish:notify:{conversationId} - pub/sub channel
)

// DeletionLog propagates removal events. The pub/sub publish is the primary
// path; because the deleting worker holds no client connections, the publish
// can silently miss subscribers, so every event is also appended to a
// TTL-bounded per-conversation list that observers drain on (re)connect.
type DeletionLog struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeletionLog(rdb *redis.Client, ttl time.Duration) *DeletionLog {
	return &DeletionLog{rdb: rdb, ttl: ttl}
}

// Append records a deletion in the fallback log and publishes it. The
// fallback write comes first: an observer that reconnects between the two
// steps still finds the event in the log.
func (l *DeletionLog) Append(ctx context.Context, event models.DeletionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal deletion event: %w", err)
	}

	logKey := deletionLogPrefix + event.ConversationID
	if err := l.rdb.RPush(ctx, logKey, data).Err(); err != nil {
		return fmt.Errorf("failed to append deletion log: %w", err)
	}
	l.rdb.Expire(ctx, logKey, l.ttl)

	// Best effort. A missed publish is corrected by the log drain, so a
	// publish error is not surfaced to the sweeper.
	l.rdb.Publish(ctx, notifyPrefix+event.ConversationID, data)

	return nil
}

// Recent returns the undrained deletion events for a conversation, oldest
// first. Malformed entries are skipped.
func (l *DeletionLog) Recent(ctx context.Context, conversationID string) ([]models.DeletionEvent, error) {
	raw, err := l.rdb.LRange(ctx, deletionLogPrefix+conversationID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read deletion log: %w", err)
	}

	var events []models.DeletionEvent
	for _, entry := range raw {
		var event models.DeletionEvent
		if err := json.Unmarshal([]byte(entry), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Subscribe opens the primary real-time channel for a conversation.
func (l *DeletionLog) Subscribe(ctx context.Context, conversationID string) *redis.PubSub {
	return l.rdb.Subscribe(ctx, notifyPrefix+conversationID)
}
