package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/api"
	"github.com/taskhive/taskhive-be/internal/auth"
	"github.com/taskhive/taskhive-be/internal/config"
	"github.com/taskhive/taskhive-be/internal/database"
	"github.com/taskhive/taskhive-be/internal/logger"
	"github.com/taskhive/taskhive-be/internal/monitoring"
	"github.com/taskhive/taskhive-be/internal/services"
	"github.com/taskhive/taskhive-be/internal/websocket"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	eventService := services.NewEventService(db, hub)
	userService := services.NewUserService(db, eventService)
	listService := services.NewListService(db, eventService)
	taskService := services.NewTaskService(db, listService, eventService)

	// Set up and run the background deadline watcher
	watcher, err := monitoring.NewDeadlineWatcher(taskService, eventService, cfg.ReminderSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize deadline watcher")
	}
	go watcher.Run()

	// Set up router
	router := api.NewRouter(hub, tokens, userService, listService, taskService, eventService, cfg.AllowedOrigin)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	watcher.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
