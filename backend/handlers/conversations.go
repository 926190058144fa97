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

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vanishchat/vanish/backend/lifecycle"
	"github.com/vanishchat/vanish/backend/models"
	"github.com/vanishchat/vanish/backend/storage"
)

type ConversationHandler struct {
	store   storage.ConversationStore
	sweeper *lifecycle.Sweeper
}

func NewConversationHandler(store storage.ConversationStore, sweeper *lifecycle.Sweeper) *ConversationHandler {
	return &ConversationHandler{store: store, sweeper: sweeper}
}

func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)

	var req struct {
		Kind      models.ConversationKind `json:"kind"`
		MemberIDs []string                `json:"member_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.Kind {
	case models.KindDirect:
		if len(req.MemberIDs) != 1 || req.MemberIDs[0] == userID {
			http.Error(w, "Direct conversation requires exactly one peer", http.StatusBadRequest)
			return
		}
	case models.KindGroup, models.KindBroadcast:
	default:
		http.Error(w, "Invalid conversation kind", http.StatusBadRequest)
		return
	}

	conv := models.Conversation{
		ConversationID: uuid.New().String(),
		Kind:           req.Kind,
		CreatedBy:      userID,
	}
	if err := h.store.CreateConversation(r.Context(), conv, req.MemberIDs); err != nil {
		http.Error(w, "Failed to create conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"conversation_id": conv.ConversationID})
}

func (h *ConversationHandler) JoinConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)
	conversationID := mux.Vars(r)["conversationId"]

	if err := h.store.AddParticipant(r.Context(), conversationID, userID); err != nil {
		http.Error(w, "Failed to join conversation", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "joined"})
}

// LeaveConversation removes the membership row. The group policy counts
// against current membership, so leaving can complete another message's
// acknowledgment set; a debounced sweep picks that up.
func (h *ConversationHandler) LeaveConversation(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("user_id").(string)
	conversationID := mux.Vars(r)["conversationId"]

	if err := h.store.RemoveParticipant(r.Context(), conversationID, userID); err != nil {
		http.Error(w, "Failed to leave conversation", http.StatusInternalServerError)
		return
	}

	h.sweeper.NoteMembershipChange(conversationID)

	json.NewEncoder(w).Encode(map[string]string{"status": "left"})
}

func (h *ConversationHandler) GetMembers(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversationId"]

	members, err := h.store.GetParticipants(r.Context(), conversationID)
	if err != nil {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"conversation_id": conversationID,
		"members":         members,
	})
}
