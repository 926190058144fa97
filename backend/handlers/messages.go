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
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

type messageStore interface {
	storage.MessageStore
	storage.ConversationStore
}

type MessageHandler struct {
	store messageStore
}

func NewMessageHandler(store messageStore) *MessageHandler {
	return &MessageHandler{store: store}
}

// SendMessage stores a message; the sender's implicit view is recorded with
// it, so a group message starts at 1/N acknowledgments.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := r.Context().Value("user_id").(string)
	conversationID := mux.Vars(r)["conversationId"]

	var req struct {
		Body        string `json:"body"`
		IsEphemeral bool   `json:"is_ephemeral"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	isMember, err := h.store.IsParticipant(r.Context(), conversationID, senderID)
	if err != nil {
		http.Error(w, "Failed to check membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		writeEngineError(w, errs.ErrNotAParticipant, "")
		return
	}

	msg := models.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           req.Body,
		IsEphemeral:    req.IsEphemeral,
	}
	if err := h.store.SaveMessage(r.Context(), msg); err != nil {
		http.Error(w, "Failed to save message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message_id": msg.MessageID,
		"status":     "sent",
	})
}

// GetMessages lists a conversation's visible messages. Rows already decided
// for removal are excluded; a client that missed a deletion event converges
// here.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)
	conversationID := mux.Vars(r)["conversationId"]

	isMember, err := h.store.IsParticipant(r.Context(), conversationID, userID)
	if err != nil {
		http.Error(w, "Failed to check membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		writeEngineError(w, errs.ErrNotAParticipant, "")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	msgs, err := h.store.GetVisibleMessages(r.Context(), conversationID, limit)
	if err != nil {
		http.Error(w, "Failed to retrieve messages", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": msgs,
		"count":    len(msgs),
	})
}
