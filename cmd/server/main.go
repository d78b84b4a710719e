package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"finchat/api"
	"finchat/auth"
	"finchat/internal"
	"finchat/moderation"
	"finchat/observability"
	"finchat/queue"
	"finchat/realtime"
	"finchat/repositories"
	"finchat/runtime"
	"finchat/runtime/workers"
	"finchat/search"
	"finchat/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer executes before exit.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	index := search.NewMessageIndex(blugeWriter, logger)
	defer func() {
		logger.Info("Closing Bluge...")
		_ = index.Close()
	}()

	// 3. Broker
	bus, err := queue.Connect(config.NatsURL, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer bus.Close()

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Pipeline components
	stats := &observability.PipelineStats{}
	monitoring := observability.NewMonitoring(logger, stats)
	registry := runtime.NewRegistry()
	notifier := realtime.NewRoomNotifier(registry, logger)

	userRepository := repositories.NewUserRepository(db)
	roomRepository := repositories.NewRoomRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger)

	commandBus, err := queue.NewCommandBus(ctx, bus)
	if err != nil {
		return exitRuntime, err
	}

	replyDeliveries, err := bus.ReplyDeliveries(ctx, queue.ConsumerOptions{
		AckWait:       config.AckWait,
		MaxAckPending: 1,
	})
	if err != nil {
		return exitRuntime, err
	}

	replyConsumer, err := workers.NewBotReplyConsumer(
		replyDeliveries,
		userRepository, roomRepository, messageRepository,
		notifier, stats, logger,
		config.BotUserName,
	)
	if err != nil {
		return exitRuntime, err
	}

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	sup.Add(replyConsumer)

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	// 6. Services & HTTP surface
	moderator, err := moderation.NewModerator(internal.SplitWords(config.CensoredWords), charReplacement)
	if err != nil {
		return exitConfig, err
	}

	tokens := auth.NewTokenManager(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens)
	roomService := services.NewRoomService(roomRepository)
	chatService := services.NewChatService(
		userRepository, roomRepository, messageRepository,
		commandBus, notifier, &moderator, index, stats, logger,
	)

	handlers := api.NewHandlers(authService, roomService, chatService, monitoring, logger)
	ws := realtime.NewHandler(registry, tokens, roomRepository, stats, config.ConnectionBufferSize, logger)
	app := api.NewApp(handlers, ws, tokens, logger)

	errChan := make(chan error, 1)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	go func() {
		logger.Info("Starting HTTP server", "address", address)
		if err := app.Listen(address); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	// The execution blocks here until either a signal is received or the server crashes.
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	// Active requests finish, then the reply consumer drains and stops.
	logger.Info("Shutting down gracefully...")
	_ = app.Shutdown()
	sup.Stop()
	<-supDone
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
