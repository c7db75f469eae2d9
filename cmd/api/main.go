package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/middleware"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/store"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/director"
)

func main() {
	cfg := config.Load()

	log := logger.Setup(cfg)

	log.Info("Starting Adventure Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	if err := actor.ValidateEnemyTemplates(); err != nil {
		log.Error("Enemy template validation failed", "error", err)
		os.Exit(1)
	}

	var chatService services.ChatService
	switch strings.ToLower(cfg.LLMProvider) {
	case "venice":
		if cfg.VeniceAPIKey == "" {
			log.Error("Venice API key is required when using venice provider")
			os.Exit(1)
		}
		chatService = services.NewVeniceService(cfg.VeniceAPIKey, cfg.ModelName)
		log.Info("Using Venice LLM provider")
	case "mock":
		// Local development without an LLM backend.
		chatService = services.NewMockChatService()
		log.Info("Using mock LLM provider")
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider, "supported", []string{"venice", "mock"})
		os.Exit(1)
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	sessionStore := store.Connect(storeCtx, cfg.RedisURL, cfg.SessionTTL, log)
	storeCancel()

	var roller *dice.Roller
	if cfg.DiceSeed != 0 {
		roller = dice.NewSeededRoller(cfg.DiceSeed)
		log.Warn("Dice rolls are seeded", "seed", cfg.DiceSeed)
	} else {
		roller = dice.NewRoller()
	}

	collaborators := services.NewCollaborators(chatService)
	orchestrator := director.NewOrchestrator(collaborators, cfg.CollaboratorTimeout, log)
	policy := director.NewPolicy(rand.New(rand.NewSource(time.Now().UnixNano())))

	game, err := services.NewGameService(services.GameConfig{
		Store:        sessionStore,
		Orchestrator: orchestrator,
		Policy:       policy,
		Engine:       combat.NewEngine(roller),
		Narrator:     collaborators[director.CollaboratorNarrator],
		Logger:       log,
	})
	if err != nil {
		log.Error("Failed to create game service", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(game, chatService, log))

	sessionHandler := handlers.NewSessionHandler(game, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	turnHandler := handlers.NewTurnHandler(game, log)
	combatHandler := handlers.NewCombatHandler(game, log)
	mux.Handle("/v1/enemies", combatHandler)

	// Turn and combat routes live under /v1/sessions/{id}/, so the
	// session handler delegates by suffix.
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/turn"):
			turnHandler.ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/combat"):
			combatHandler.ServeHTTP(w, r)
		default:
			mux.ServeHTTP(w, r)
		}
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      middleware.Logger(log, root),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := sessionStore.Close(); err != nil {
		log.Error("Error closing session store", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
