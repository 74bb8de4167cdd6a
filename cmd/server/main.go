package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"chat-relay/auth"
	"chat-relay/httpapi"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
)

// Exit codes provide meaningful status to the OS or service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper: call run() and map its
	// outcome to an OS exit code, so every defer runs before exiting.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := internal.NewLogger(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Core components
	var moderator *moderation.Moderator
	if len(config.CensoredWords) > 0 {
		moderator, err = moderation.NewModerator(config.CensoredWords, censoredChar)
		if err != nil {
			return exitConfig, fmt.Errorf("moderator init failed: %w", err)
		}
	}

	registry := runtime.NewRegistry()
	chatLogRepository := repositories.NewChatLogRepository(db, blugeWriter, logger, config.LimitMessages)
	userRepository := repositories.NewUserRepository(db)
	broadcaster := runtime.NewBroadcaster(logger, registry, chatLogRepository, moderator)

	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	chatService := services.NewChatService(chatLogRepository)
	authService := services.NewAuthService(userRepository, issuer)
	userService := services.NewUserService(userRepository)

	// 4. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised background workers
	sup := workers.NewSupervisor(logger)
	sup.Add(workers.NewHeartbeatWorker(logger, registry, config.HeartbeatInterval))
	go sup.Run(ctx)

	// 6. HTTP server
	api := httpapi.New(logger, broadcaster, registry,
		chatService, authService, userService, issuer, config.SendTimeout)

	address := fmt.Sprintf("0.0.0.0:%d", config.Port)
	server := &http.Server{Addr: address, Handler: api.Routes()}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Graceful shutdown: let active sessions and requests finish.
	logger.Info("Shutting down gracefully...")
	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}
