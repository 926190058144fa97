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

	"github.com/vanishchat/vanish/backend/lifecycle"
	"github.com/vanishchat/vanish/backend/storage"
)

type viewStore interface {
	storage.ViewStore
	storage.MessageStore
}

type ViewHandler struct {
	store   viewStore
	sweeper *lifecycle.Sweeper
}

func NewViewHandler(store viewStore, sweeper *lifecycle.Sweeper) *ViewHandler {
	return &ViewHandler{store: store, sweeper: sweeper}
}

// RecordView acknowledges a message for the caller. Repeats are no-ops, not
// errors; the UI fires this on every "message became visible" event.
func (h *ViewHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	viewerID := r.Context().Value("user_id").(string)
	messageID := mux.Vars(r)["messageId"]

	if err := h.store.RecordView(r.Context(), messageID, viewerID); err != nil {
		writeEngineError(w, err, "Failed to record view")
		return
	}

	// The view may have completed an acknowledgment set or set the direct
	// recipient flag; a debounced sweep decides.
	msg, err := h.store.GetMessage(r.Context(), messageID)
	if err == nil && msg.IsEphemeral {
		h.sweeper.NoteView(msg.ConversationID)
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "viewed"})
}
