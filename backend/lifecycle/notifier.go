// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lifecycle

import (
	"context"
	"time"

	"github.com/vanishchat/vanish/backend/models"
	redisStore "github.com/vanishchat/vanish/backend/storage/redis"
)

// Notifier propagates a physical deletion to every observing client.
type Notifier interface {
	MessageDeleted(ctx context.Context, conversationID, messageID string) error
}

// LogNotifier delivers through the Redis deletion log: a TTL-bounded
// per-conversation fallback list plus a pub/sub publish as the primary path.
type LogNotifier struct {
	log *redisStore.DeletionLog
}

func NewLogNotifier(log *redisStore.DeletionLog) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) MessageDeleted(ctx context.Context, conversationID, messageID string) error {
	return n.log.Append(ctx, models.DeletionEvent{
		Type:           models.EventMessageDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
		DeletedAt:      time.Now(),
	})
}
