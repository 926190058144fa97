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

package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vanishchat/vanish/backend/config"
	"github.com/vanishchat/vanish/backend/handlers"
	"github.com/vanishchat/vanish/backend/lifecycle"
	"github.com/vanishchat/vanish/backend/middleware"
	"github.com/vanishchat/vanish/backend/storage/postgres"
	redisStore "github.com/vanishchat/vanish/backend/storage/redis"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})

	store := postgres.NewStore(db, rdb, cfg.Lifecycle.ActivityWindow)
	if err := store.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	deletionLog := redisStore.NewDeletionLog(rdb, cfg.Lifecycle.DeletionLogTTL)
	notifier := lifecycle.NewLogNotifier(deletionLog)
	sweeper := lifecycle.NewSweeper(store, notifier, cfg.Lifecycle, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweeper.Run(ctx)

	conversationHandler := handlers.NewConversationHandler(store, sweeper)
	messageHandler := handlers.NewMessageHandler(store)
	viewHandler := handlers.NewViewHandler(store, sweeper)
	presenceHandler := handlers.NewPresenceHandler(store, sweeper)
	sweepHandler := handlers.NewSweepHandler(sweeper)
	eventsHandler := handlers.NewEventsHandler(store, deletionLog, log)

	if cfg.JWT.Secret == "" {
		log.Fatal("VANISH_JWT_SECRET is required")
	}
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer)

	r := mux.NewRouter()
	r.Use(middleware.CORS)

	api := r.PathPrefix("/api/vanish").Subrouter()
	api.Use(authMiddleware)

	// Conversation endpoints
	api.HandleFunc("/conversations", conversationHandler.CreateConversation).Methods("POST")
	api.HandleFunc("/conversations/{conversationId}/join", conversationHandler.JoinConversation).Methods("POST")
	api.HandleFunc("/conversations/{conversationId}/leave", conversationHandler.LeaveConversation).Methods("POST")
	api.HandleFunc("/conversations/{conversationId}/members", conversationHandler.GetMembers).Methods("GET")

	// Message endpoints
	api.HandleFunc("/conversations/{conversationId}/messages", messageHandler.SendMessage).Methods("POST")
	api.HandleFunc("/conversations/{conversationId}/messages", messageHandler.GetMessages).Methods("GET")
	api.HandleFunc("/messages/{messageId}/view", viewHandler.RecordView).Methods("POST")

	// Presence and lifecycle endpoints
	api.HandleFunc("/conversations/{conversationId}/presence", presenceHandler.RenewPresence).Methods("POST")
	api.HandleFunc("/conversations/{conversationId}/events", eventsHandler.Subscribe).Methods("GET")
	api.HandleFunc("/sweep", sweepHandler.TriggerSweep).Methods("POST")

	// Health check (no auth required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	log.WithFields(logrus.Fields{
		"port":         cfg.Server.Port,
		"sweep_period": cfg.Lifecycle.SweepPeriod,
	}).Info("lifecycle server starting")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
