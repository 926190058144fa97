// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lifecycle

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanishchat/vanish/backend/config"
	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/models"
)

// fakeStore is an in-memory storage.Store with the same conditional-update
// semantics as the postgres implementation.
type fakeStore struct {
	mu         sync.Mutex
	convs      map[string]models.Conversation
	members    map[string]map[string]bool
	messages   map[string]*models.Message
	views      map[string]map[string]bool
	live       map[string]bool
	sweepScans int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		convs:    make(map[string]models.Conversation),
		members:  make(map[string]map[string]bool),
		messages: make(map[string]*models.Message),
		views:    make(map[string]map[string]bool),
		live:     make(map[string]bool),
	}
}

func (f *fakeStore) CreateConversation(_ context.Context, conv models.Conversation, memberIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convs[conv.ConversationID] = conv
	f.members[conv.ConversationID] = map[string]bool{conv.CreatedBy: true}
	for _, id := range memberIDs {
		f.members[conv.ConversationID][id] = true
	}
	return nil
}

func (f *fakeStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok {
		return nil, errs.ErrConversationNotFound
	}
	return &conv, nil
}

func (f *fakeStore) AddParticipant(_ context.Context, convID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[convID][userID] = true
	return nil
}

func (f *fakeStore) RemoveParticipant(_ context.Context, convID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members[convID], userID)
	return nil
}

func (f *fakeStore) GetParticipants(_ context.Context, convID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id := range f.members[convID] {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeStore) IsParticipant(_ context.Context, convID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[convID][userID], nil
}

func (f *fakeStore) SaveMessage(_ context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := msg
	f.messages[msg.MessageID] = &m
	f.views[msg.MessageID] = map[string]bool{msg.SenderID: true}
	return nil
}

func (f *fakeStore) GetMessage(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, errs.ErrMessageNotFound
	}
	m := *msg
	return &m, nil
}

func (f *fakeStore) GetVisibleMessages(_ context.Context, convID string, _ int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, msg := range f.messages {
		if msg.ConversationID == convID && !msg.PendingRemoval {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeStore) SweepCandidates(_ context.Context, convID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweepScans++
	var out []models.Message
	for _, msg := range f.messages {
		if !msg.IsEphemeral || msg.PendingRemoval {
			continue
		}
		if convID != "" && msg.ConversationID != convID {
			continue
		}
		out = append(out, *msg)
	}
	return out, nil
}

func (f *fakeStore) MarkPendingRemoval(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok || msg.PendingRemoval {
		return errs.ErrStaleWrite
	}
	msg.PendingRemoval = true
	return nil
}

func (f *fakeStore) PendingRemovals(_ context.Context, convID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, msg := range f.messages {
		if !msg.PendingRemoval {
			continue
		}
		if convID != "" && msg.ConversationID != convID {
			continue
		}
		out = append(out, *msg)
	}
	return out, nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return false, nil
	}
	delete(f.messages, id)
	delete(f.views, id)
	return true, nil
}

func (f *fakeStore) RecordView(_ context.Context, messageID, viewerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok {
		return errs.ErrMessageNotFound
	}
	if !f.members[msg.ConversationID][viewerID] {
		return errs.ErrNotAParticipant
	}
	f.views[messageID][viewerID] = true
	if f.convs[msg.ConversationID].Kind == models.KindDirect && viewerID != msg.SenderID {
		msg.ViewedByRecipient = true
	}
	return nil
}

func (f *fakeStore) CountViews(_ context.Context, messageID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views[messageID]), nil
}

func (f *fakeStore) Renew(_ context.Context, convID, _ string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live[convID] = active
	return nil
}

func (f *fakeStore) HasLiveParticipant(_ context.Context, convID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[convID], nil
}

func (f *fakeStore) scans() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sweepScans
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.DeletionEvent
}

func (n *fakeNotifier) MessageDeleted(_ context.Context, conversationID, messageID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, models.DeletionEvent{
		Type:           models.EventMessageDeleted,
		ConversationID: conversationID,
		MessageID:      messageID,
	})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func testSweeper(store *fakeStore, notifier Notifier, cfg config.Lifecycle) *Sweeper {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewSweeper(store, notifier, cfg, log)
}

func quickConfig() config.Lifecycle {
	return config.Lifecycle{
		ActivityWindow:    30 * time.Second,
		SweepPeriod:       time.Hour,
		DebounceDelay:     20 * time.Millisecond,
		LeaveSweepDelay:   40 * time.Millisecond,
		HeartbeatInterval: 15 * time.Second,
		DeletionLogTTL:    10 * time.Minute,
	}
}

func TestSweepDirectLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "c1", Kind: models.KindDirect, CreatedBy: "alice",
	}, []string{"bob"}))
	require.NoError(t, store.SaveMessage(ctx, models.Message{
		MessageID: "m1", ConversationID: "c1", SenderID: "alice", IsEphemeral: true,
	}))
	require.NoError(t, store.Renew(ctx, "c1", "bob", true))

	// Unviewed: nothing happens.
	require.NoError(t, sweeper.Sweep(ctx, "c1"))
	assert.Zero(t, notifier.count())

	// Viewed but recipient still present: still kept.
	require.NoError(t, store.RecordView(ctx, "m1", "bob"))
	require.NoError(t, sweeper.Sweep(ctx, "c1"))
	assert.Zero(t, notifier.count())

	// Lease gone: marked, deleted, notified.
	require.NoError(t, store.Renew(ctx, "c1", "bob", false))
	require.NoError(t, sweeper.Sweep(ctx, "c1"))
	assert.Equal(t, 1, notifier.count())

	_, err := store.GetMessage(ctx, "m1")
	assert.ErrorIs(t, err, errs.ErrMessageNotFound)
}

func TestSweepGroupLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "g1", Kind: models.KindGroup, CreatedBy: "alice",
	}, []string{"bob", "carol"}))
	require.NoError(t, store.SaveMessage(ctx, models.Message{
		MessageID: "m1", ConversationID: "g1", SenderID: "alice", IsEphemeral: true,
	}))

	// 2/3 views (sender implicit + bob): kept.
	require.NoError(t, store.RecordView(ctx, "m1", "bob"))
	require.NoError(t, sweeper.Sweep(ctx, "g1"))
	assert.Zero(t, notifier.count())

	// 3/3, with live presence: group policy ignores presence and deletes.
	require.NoError(t, store.Renew(ctx, "g1", "carol", true))
	require.NoError(t, store.RecordView(ctx, "m1", "carol"))
	require.NoError(t, sweeper.Sweep(ctx, "g1"))
	assert.Equal(t, 1, notifier.count())
}

func TestSweepGroupLeaverUnblocks(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "g1", Kind: models.KindGroup, CreatedBy: "alice",
	}, []string{"bob", "carol"}))
	require.NoError(t, store.SaveMessage(ctx, models.Message{
		MessageID: "m1", ConversationID: "g1", SenderID: "alice", IsEphemeral: true,
	}))
	require.NoError(t, store.RecordView(ctx, "m1", "bob"))

	// Carol never views but leaves permanently; the current snapshot of 2
	// is fully acknowledged.
	require.NoError(t, store.RemoveParticipant(ctx, "g1", "carol"))
	require.NoError(t, sweeper.Sweep(ctx, "g1"))
	assert.Equal(t, 1, notifier.count())
}

func TestConcurrentSweepsDeleteOnce(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "c1", Kind: models.KindDirect, CreatedBy: "alice",
	}, []string{"bob"}))
	require.NoError(t, store.SaveMessage(ctx, models.Message{
		MessageID: "m1", ConversationID: "c1", SenderID: "alice", IsEphemeral: true,
	}))
	require.NoError(t, store.RecordView(ctx, "m1", "bob"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, sweeper.Sweep(ctx, "c1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, notifier.count(), "exactly one physical deletion is observed")
}

func TestSweepResumesAfterCrashBetweenPhases(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "c1", Kind: models.KindDirect, CreatedBy: "alice",
	}, []string{"bob"}))
	require.NoError(t, store.SaveMessage(ctx, models.Message{
		MessageID: "m1", ConversationID: "c1", SenderID: "alice", IsEphemeral: true,
	}))

	// Simulate a crash after phase one: the row is already decided. Even
	// though the recipient is now present again, phase two deletes without
	// re-evaluating.
	require.NoError(t, store.MarkPendingRemoval(ctx, "m1"))
	require.NoError(t, store.Renew(ctx, "c1", "bob", true))

	require.NoError(t, sweeper.Sweep(ctx, "c1"))
	assert.Equal(t, 1, notifier.count())
}

func TestMarkedMessageIsInvisibleAndStaysGone(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "c1", Kind: models.KindDirect, CreatedBy: "alice",
	}, []string{"bob"}))
	require.NoError(t, store.SaveMessage(ctx, models.Message{
		MessageID: "m1", ConversationID: "c1", SenderID: "alice", IsEphemeral: true,
	}))
	require.NoError(t, store.MarkPendingRemoval(ctx, "m1"))

	visible, err := store.GetVisibleMessages(ctx, "c1", 50)
	require.NoError(t, err)
	assert.Empty(t, visible, "decided messages are never listed")

	// Further views and renewals cannot resurrect the message.
	require.NoError(t, store.RecordView(ctx, "m1", "bob"))
	require.NoError(t, store.Renew(ctx, "c1", "bob", true))
	require.NoError(t, sweeper.Sweep(ctx, "c1"))

	_, err = store.GetMessage(ctx, "m1")
	assert.ErrorIs(t, err, errs.ErrMessageNotFound)
	assert.Equal(t, 1, notifier.count())
}

func TestDebouncedTriggersCoalesce(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	sweeper := testSweeper(store, notifier, quickConfig())

	require.NoError(t, store.CreateConversation(ctx, models.Conversation{
		ConversationID: "c1", Kind: models.KindDirect, CreatedBy: "alice",
	}, []string{"bob"}))

	// Rapid enter/exit churn: five triggers, one sweep.
	for i := 0; i < 5; i++ {
		sweeper.NoteView("c1")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, store.scans())

	// A later exit trigger supersedes a pending view trigger.
	sweeper.NoteView("c1")
	sweeper.NoteExit("c1")
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 2, store.scans())
}
