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

// Package lifecycle decides when ephemeral messages disappear and drives
// their removal. The decision itself is a pure function over a snapshot; the
// sweeper owns every side effect.
package lifecycle

import (
	"github.com/vanishchat/vanish/backend/models"
)

type Verdict int

const (
	// Keep leaves the message untouched until a later evaluation.
	Keep Verdict = iota
	// Eligible means every condition for permanent removal holds.
	Eligible
)

func (v Verdict) String() string {
	if v == Eligible {
		return "eligible"
	}
	return "keep"
}

// Snapshot is the complete input to one evaluation: the message, its
// conversation kind, and the facts read at sweep time. ParticipantCount and
// ViewCount feed the group policy, LivePresence the direct policy.
type Snapshot struct {
	Message          models.Message
	Kind             models.ConversationKind
	ParticipantCount int
	ViewCount        int
	LivePresence     bool
}

// Evaluate applies the disappearance policy for the conversation kind.
//
// Direct: the single recipient has viewed the message and no participant
// holds a live presence lease.
//
// Group: every current participant has a view record. Presence is ignored;
// in a multi-party conversation "someone is present" does not mean "everyone
// has seen this message". The count is taken against the current membership,
// so a participant who left cannot block disappearance forever.
func Evaluate(s Snapshot) Verdict {
	m := s.Message
	if !m.IsEphemeral || m.PendingRemoval {
		return Keep
	}

	switch s.Kind {
	case models.KindDirect:
		if m.ViewedByRecipient && !s.LivePresence {
			return Eligible
		}
	case models.KindGroup:
		// An empty membership snapshot keeps the message: it can only be
		// observed mid-teardown, and conversation deletion cascades anyway.
		if s.ParticipantCount > 0 && s.ViewCount >= s.ParticipantCount {
			return Eligible
		}
	}

	return Keep
}
