// Copyright (C) 2025 vanish.chat <tj@vanish.chat>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vanishchat/vanish/backend/lifecycle"
)

type SweepHandler struct {
	sweeper *lifecycle.Sweeper
}

func NewSweepHandler(sweeper *lifecycle.Sweeper) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// TriggerSweep runs a sweep synchronously. Operational recovery and tests
// only; normal operation relies on the periodic and debounced sweeps.
func (h *SweepHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversation")

	if err := h.sweeper.Sweep(r.Context(), conversationID); err != nil {
		http.Error(w, "Sweep failed", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "swept"})
}
