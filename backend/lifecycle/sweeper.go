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

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vanishchat/vanish/backend/config"
	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

// Sweeper drives the evaluator over the candidate set and performs the
// two-phase removal. Cross-process safety comes entirely from the store's
// conditional updates; many sweepers may run concurrently.
type Sweeper struct {
	store    storage.Store
	notifier Notifier
	log      *logrus.Entry

	period     time.Duration
	debounce   time.Duration
	leaveDelay time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewSweeper(store storage.Store, notifier Notifier, cfg config.Lifecycle, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		store:      store,
		notifier:   notifier,
		log:        log.WithField("component", "sweeper"),
		period:     cfg.SweepPeriod,
		debounce:   cfg.DebounceDelay,
		leaveDelay: cfg.LeaveSweepDelay,
		timers:     make(map[string]*time.Timer),
	}
}

// Run executes the periodic full sweep until the context is canceled. A
// failed sweep is not retried immediately; the next tick repairs it, which
// caps worst-case staleness at one period.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stopTimers()
			return
		case <-ticker.C:
			if err := s.Sweep(ctx, ""); err != nil {
				s.log.WithError(err).Warn("periodic sweep failed, retrying on next tick")
			}
		}
	}
}

// NoteView schedules a debounced sweep after a view that may have changed
// eligibility.
func (s *Sweeper) NoteView(conversationID string) {
	s.schedule(conversationID, s.debounce)
}

// NoteMembershipChange schedules a debounced sweep after a participant
// joins or leaves; a shrinking group can satisfy the all-must-view policy.
func (s *Sweeper) NoteMembershipChange(conversationID string) {
	s.schedule(conversationID, s.debounce)
}

// NoteExit schedules a sweep after a presence transition to inactive. The
// longer delay lets a straggler heartbeat land before presence is read,
// trading latency for correctness.
func (s *Sweeper) NoteExit(conversationID string) {
	s.schedule(conversationID, s.leaveDelay)
}

// schedule coalesces: only the most recent pending sweep per conversation
// survives, replacing any timer already armed.
func (s *Sweeper) schedule(conversationID string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[conversationID]; ok {
		t.Stop()
	}
	s.timers[conversationID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, conversationID)
		s.mu.Unlock()

		if err := s.Sweep(context.Background(), conversationID); err != nil {
			s.log.WithError(err).WithField("conversation_id", conversationID).
				Warn("triggered sweep failed, next periodic sweep repairs")
		}
	})
}

func (s *Sweeper) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Sweep runs both removal phases. An empty conversationID sweeps every
// conversation. Exposed for the administrative trigger.
func (s *Sweeper) Sweep(ctx context.Context, conversationID string) error {
	if err := s.markEligible(ctx, conversationID); err != nil {
		return err
	}
	return s.deleteMarked(ctx, conversationID)
}

// conversationFacts caches the per-conversation reads of one pass so a
// conversation with many candidates is read once.
type conversationFacts struct {
	kind             models.ConversationKind
	participantCount int
	livePresence     bool
	bad              bool
}

// markEligible is phase one: evaluate each candidate and persist the
// decision with a conditional update. Losing that race to a concurrent
// sweeper is silent; the winner already produced the intended state.
func (s *Sweeper) markEligible(ctx context.Context, conversationID string) error {
	candidates, err := s.store.SweepCandidates(ctx, conversationID)
	if err != nil {
		return errs.Transient("list sweep candidates", err)
	}

	facts := make(map[string]*conversationFacts)
	marked := 0

	for _, msg := range candidates {
		f, err := s.factsFor(ctx, facts, msg.ConversationID)
		if err != nil {
			s.log.WithError(err).WithField("conversation_id", msg.ConversationID).
				Warn("skipping conversation this pass")
			continue
		}
		if f.bad || !f.kind.Ephemeral() {
			continue
		}

		snap := Snapshot{
			Message:          msg,
			Kind:             f.kind,
			ParticipantCount: f.participantCount,
			LivePresence:     f.livePresence,
		}
		if f.kind == models.KindGroup {
			count, err := s.store.CountViews(ctx, msg.MessageID)
			if err != nil {
				s.log.WithError(err).WithField("message_id", msg.MessageID).
					Warn("view count unavailable, keeping message this pass")
				continue
			}
			snap.ViewCount = count
		}

		if Evaluate(snap) != Eligible {
			continue
		}

		err = s.store.MarkPendingRemoval(ctx, msg.MessageID)
		if errors.Is(err, errs.ErrStaleWrite) {
			continue
		}
		if err != nil {
			s.log.WithError(err).WithField("message_id", msg.MessageID).
				Warn("failed to mark message, next sweep retries")
			continue
		}
		marked++
	}

	if marked > 0 {
		s.log.WithFields(logrus.Fields{
			"candidates": len(candidates),
			"marked":     marked,
		}).Info("sweep marked messages for removal")
	}
	return nil
}

// deleteMarked is phase two: physically remove everything already decided,
// then notify. Re-entrant by construction: a crash between phases leaves
// rows that the next pass deletes without re-evaluating, and a duplicate
// delete affects nothing.
func (s *Sweeper) deleteMarked(ctx context.Context, conversationID string) error {
	pending, err := s.store.PendingRemovals(ctx, conversationID)
	if err != nil {
		return errs.Transient("list pending removals", err)
	}

	for _, msg := range pending {
		deleted, err := s.store.DeleteMessage(ctx, msg.MessageID)
		if err != nil {
			s.log.WithError(err).WithField("message_id", msg.MessageID).
				Warn("failed to delete message, next sweep retries")
			continue
		}
		if !deleted {
			// A concurrent sweeper got there first and notifies.
			continue
		}

		if err := s.notifier.MessageDeleted(ctx, msg.ConversationID, msg.MessageID); err != nil {
			// The message is gone either way; observers that miss this
			// event converge when they next list visible messages.
			s.log.WithError(err).WithFields(logrus.Fields{
				"conversation_id": msg.ConversationID,
				"message_id":      msg.MessageID,
			}).Warn("failed to record deletion event")
		}

		s.log.WithFields(logrus.Fields{
			"conversation_id": msg.ConversationID,
			"message_id":      msg.MessageID,
		}).Info("message deleted")
	}
	return nil
}

func (s *Sweeper) factsFor(ctx context.Context, cache map[string]*conversationFacts, conversationID string) (*conversationFacts, error) {
	if f, ok := cache[conversationID]; ok {
		return f, nil
	}

	f := &conversationFacts{}
	cache[conversationID] = f

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		f.bad = true
		return f, err
	}
	f.kind = conv.Kind
	if !f.kind.Ephemeral() {
		return f, nil
	}

	participants, err := s.store.GetParticipants(ctx, conversationID)
	if err != nil {
		f.bad = true
		return f, err
	}
	f.participantCount = len(participants)

	if f.kind == models.KindDirect {
		live, err := s.store.HasLiveParticipant(ctx, conversationID)
		if err != nil {
			f.bad = true
			return f, err
		}
		f.livePresence = live
	}

	return f, nil
}
