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

package integration

import (
	"context"
	"database/sql"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vanishchat/vanish/backend/config"
	"github.com/vanishchat/vanish/backend/handlers"
	"github.com/vanishchat/vanish/backend/lifecycle"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/storage/postgres"
	redisStore "github.com/vanishchat/vanish/backend/storage/redis"
)

// Lifecycle packages the disappearance engine for embedding into a host
// chat server that already owns the database, Redis, and auth.
type Lifecycle struct {
	store        *postgres.Store
	sweeper      *lifecycle.Sweeper
	conversation *handlers.ConversationHandler
	message      *handlers.MessageHandler
	view         *handlers.ViewHandler
	presence     *handlers.PresenceHandler
	sweep        *handlers.SweepHandler
	events       *handlers.EventsHandler
	jwtSecret    string
	jwtIssuer    string
}

// Config holds the host-provided collaborators.
type Config struct {
	DB        *sql.DB
	Redis     *redis.Client
	JWTSecret string
	JWTIssuer string
	Lifecycle config.Lifecycle
	Logger    *logrus.Logger
}

// New wires the engine against the host's connections and runs migrations.
// The host must call Run to start the periodic sweeps.
func New(cfg *Config) (*Lifecycle, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}

	store := postgres.NewStore(cfg.DB, cfg.Redis, cfg.Lifecycle.ActivityWindow)
	if err := store.Migrate(); err != nil {
		return nil, err
	}

	deletionLog := redisStore.NewDeletionLog(cfg.Redis, cfg.Lifecycle.DeletionLogTTL)
	sweeper := lifecycle.NewSweeper(store, lifecycle.NewLogNotifier(deletionLog), cfg.Lifecycle, log)

	return &Lifecycle{
		store:        store,
		sweeper:      sweeper,
		conversation: handlers.NewConversationHandler(store, sweeper),
		message:      handlers.NewMessageHandler(store),
		view:         handlers.NewViewHandler(store, sweeper),
		presence:     handlers.NewPresenceHandler(store, sweeper),
		sweep:        handlers.NewSweepHandler(sweeper),
		events:       handlers.NewEventsHandler(store, deletionLog, log),
		jwtSecret:    cfg.JWTSecret,
		jwtIssuer:    cfg.JWTIssuer,
	}, nil
}

// Run starts the periodic sweep loop; it returns when ctx is canceled.
func (l *Lifecycle) Run(ctx context.Context) {
	l.sweeper.Run(ctx)
}

// RegisterRoutes mounts the engine's API under the given router, typically
// a subrouter of the host's.
func (l *Lifecycle) RegisterRoutes(r *mux.Router) {
	r.Use(middleware.NewAuthMiddleware(l.jwtSecret, l.jwtIssuer))

	r.HandleFunc("/conversations", l.conversation.CreateConversation).Methods("POST")
	r.HandleFunc("/conversations/{conversationId}/join", l.conversation.JoinConversation).Methods("POST")
	r.HandleFunc("/conversations/{conversationId}/leave", l.conversation.LeaveConversation).Methods("POST")
	r.HandleFunc("/conversations/{conversationId}/members", l.conversation.GetMembers).Methods("GET")
	r.HandleFunc("/conversations/{conversationId}/messages", l.message.SendMessage).Methods("POST")
	r.HandleFunc("/conversations/{conversationId}/messages", l.message.GetMessages).Methods("GET")
	r.HandleFunc("/messages/{messageId}/view", l.view.RecordView).Methods("POST")
	r.HandleFunc("/conversations/{conversationId}/presence", l.presence.RenewPresence).Methods("POST")
	r.HandleFunc("/conversations/{conversationId}/events", l.events.Subscribe).Methods("GET")
	r.HandleFunc("/sweep", l.sweep.TriggerSweep).Methods("POST")
}
