// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPresenceLeaseLive(t *testing.T) {
	window := 30 * time.Second
	t0 := time.Now()
	lease := PresenceLease{
		ConversationID: "c1",
		UserID:         "bob",
		Active:         true,
		LastRenewedAt:  t0,
	}

	assert.True(t, lease.Live(t0, window))
	assert.True(t, lease.Live(t0.Add(window), window), "live right at the window boundary")

	// Never renewed again: stale one tick past the window even though
	// Active was never set false.
	assert.False(t, lease.Live(t0.Add(window+time.Second), window))
}

func TestPresenceLeaseExplicitExit(t *testing.T) {
	lease := PresenceLease{
		Active:        false,
		LastRenewedAt: time.Now(),
	}
	assert.False(t, lease.Live(time.Now(), 30*time.Second), "an inactive lease is never live, however fresh")
}
