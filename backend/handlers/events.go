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
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/vanishchat/vanish/backend/errs"
	"github.com/vanishchat/vanish/backend/storage"
	redisStore "github.com/vanishchat/vanish/backend/storage/redis"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Auth middleware already vetted the bearer token.
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// EventsHandler streams deletion events for one conversation over a
// websocket. On connect it first drains the TTL-bounded fallback log, then
// forwards the live pub/sub channel, so a client that reconnects after a
// missed publish still converges. Clients treat events for already-removed
// messages as no-ops.
type EventsHandler struct {
	store storage.ConversationStore
	dlog  *redisStore.DeletionLog
	log   *logrus.Entry
}

func NewEventsHandler(store storage.ConversationStore, dlog *redisStore.DeletionLog, log *logrus.Logger) *EventsHandler {
	return &EventsHandler{
		store: store,
		dlog:  dlog,
		log:   log.WithField("component", "events"),
	}
}

func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
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

	// Subscribe before draining the log so nothing falls between the two.
	pubsub := h.dlog.Subscribe(r.Context(), conversationID)
	defer pubsub.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	backlog, err := h.dlog.Recent(r.Context(), conversationID)
	if err != nil {
		h.log.WithError(err).WithField("conversation_id", conversationID).
			Warn("failed to drain deletion log")
	}
	for _, event := range backlog {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	// Reader pump: we never expect client frames, but reading surfaces
	// close frames and connection loss.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
