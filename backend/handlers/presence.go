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

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/lifecycle"
	"github.com/vanishchat/vanish/backend/storage"
)

type presenceStore interface {
	storage.PresenceStore
	storage.ConversationStore
}

type PresenceHandler struct {
	store   presenceStore
	sweeper *lifecycle.Sweeper
}

func NewPresenceHandler(store presenceStore, sweeper *lifecycle.Sweeper) *PresenceHandler {
	return &PresenceHandler{store: store, sweeper: sweeper}
}

// RenewPresence upserts the caller's lease. Clients call it on conversation
// enter and every heartbeat interval with active=true, and on exit with
// active=false. A missed exit self-heals when the lease goes stale.
func (h *PresenceHandler) RenewPresence(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)
	conversationID := mux.Vars(r)["conversationId"]

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Only a conversation's own participants hold leases in it.
	isMember, err := h.store.IsParticipant(r.Context(), conversationID, userID)
	if err != nil {
		http.Error(w, "Failed to check membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		writeEngineError(w, errs.ErrNotAParticipant, "")
		return
	}

	if err := h.store.Renew(r.Context(), conversationID, userID, req.Active); err != nil {
		http.Error(w, "Failed to renew presence", http.StatusInternalServerError)
		return
	}

	if !req.Active {
		// Delayed, not debounced: gives a straggler heartbeat time to land
		// before the direct policy reads presence.
		h.sweeper.NoteExit(conversationID)
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "renewed"})
}
