// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vanishchat/vanish/backend/models"
)

func directSnapshot(viewed, live bool) Snapshot {
	return Snapshot{
		Message: models.Message{
			MessageID:         "m1",
			ConversationID:    "c1",
			SenderID:          "alice",
			IsEphemeral:       true,
			ViewedByRecipient: viewed,
		},
		Kind:             models.KindDirect,
		ParticipantCount: 2,
		LivePresence:     live,
	}
}

func TestEvaluateDirectTruthTable(t *testing.T) {
	cases := []struct {
		name   string
		viewed bool
		live   bool
		want   Verdict
	}{
		{"unviewed, no presence", false, false, Keep},
		{"unviewed, live presence", false, true, Keep},
		{"viewed, live presence", true, true, Keep},
		{"viewed, no presence", true, false, Eligible},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Evaluate(directSnapshot(tc.viewed, tc.live)))
		})
	}
}

func TestEvaluateNonEphemeralNeverEligible(t *testing.T) {
	s := directSnapshot(true, false)
	s.Message.IsEphemeral = false
	assert.Equal(t, Keep, Evaluate(s))
}

func TestEvaluatePendingRemovalIsTerminal(t *testing.T) {
	// Once decided, no input combination moves the message back to Keep's
	// side of the fence or re-marks it.
	for _, viewed := range []bool{false, true} {
		for _, live := range []bool{false, true} {
			s := directSnapshot(viewed, live)
			s.Message.PendingRemoval = true
			assert.Equal(t, Keep, Evaluate(s))
		}
	}
}

func TestEvaluateGroupAllMustView(t *testing.T) {
	s := Snapshot{
		Message: models.Message{
			MessageID:   "m1",
			IsEphemeral: true,
		},
		Kind:             models.KindGroup,
		ParticipantCount: 3,
	}

	// Sender's implicit view is 1/3.
	s.ViewCount = 1
	assert.Equal(t, Keep, Evaluate(s))

	s.ViewCount = 2
	assert.Equal(t, Keep, Evaluate(s), "N-1 views stay Keep regardless of elapsed time")

	s.ViewCount = 3
	assert.Equal(t, Eligible, Evaluate(s))
}

func TestEvaluateGroupIgnoresPresence(t *testing.T) {
	s := Snapshot{
		Message:          models.Message{MessageID: "m1", IsEphemeral: true},
		Kind:             models.KindGroup,
		ParticipantCount: 3,
		ViewCount:        3,
		LivePresence:     true,
	}
	assert.Equal(t, Eligible, Evaluate(s), "group policy disappears on universal acknowledgment even with live presence")
}

func TestEvaluateGroupLeaverUnblocksDisappearance(t *testing.T) {
	// Group of 3 where one member left before viewing: the count compares
	// against the current snapshot of 2, which the remaining views satisfy.
	s := Snapshot{
		Message:          models.Message{MessageID: "m1", IsEphemeral: true},
		Kind:             models.KindGroup,
		ParticipantCount: 2,
		ViewCount:        2,
	}
	assert.Equal(t, Eligible, Evaluate(s))
}

func TestEvaluateGroupEmptyMembershipKeeps(t *testing.T) {
	s := Snapshot{
		Message:          models.Message{MessageID: "m1", IsEphemeral: true},
		Kind:             models.KindGroup,
		ParticipantCount: 0,
		ViewCount:        1,
	}
	assert.Equal(t, Keep, Evaluate(s))
}

func TestEvaluateBroadcastNeverEligible(t *testing.T) {
	s := Snapshot{
		Message:          models.Message{MessageID: "m1", IsEphemeral: true, ViewedByRecipient: true},
		Kind:             models.KindBroadcast,
		ParticipantCount: 1,
		ViewCount:        5,
	}
	assert.Equal(t, Keep, Evaluate(s))
}
