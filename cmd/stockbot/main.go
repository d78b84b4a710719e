// The stockbot binary runs the quote workers: it drains the commands
// queue, asks the quote provider for each stock code, and publishes the
// formatted reply to the replies queue. It shares nothing with the chat
// server but the broker, so it scales and restarts independently.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"

	"finchat/observability"
	"finchat/queue"
	"finchat/quotes"
	"finchat/runtime/workers"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type Config struct {
	NatsURL         string        `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"INFO"`
	StooqBaseURL    string        `envconfig:"STOOQ_BASE_URL" default:"https://stooq.com/q/l/"`
	QuoteTimeout    time.Duration `envconfig:"QUOTE_TIMEOUT" default:"10s"`
	AckWait         time.Duration `envconfig:"ACK_WAIT" default:"30s"`
	RestartInterval time.Duration `envconfig:"RESTART_INTERVAL" default:"5s"`
	NumberOfWorkers int           `envconfig:"NUMBER_OF_WORKERS" default:"1"`
	StatsInterval   time.Duration `envconfig:"STATS_INTERVAL" default:"1m"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Stockbot terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	bus, err := queue.Connect(config.NatsURL, logger)
	if err != nil {
		return exitRuntime, err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deliveries, err := bus.CommandDeliveries(ctx, queue.ConsumerOptions{
		AckWait: config.AckWait,
		// One unacknowledged command in flight per worker goroutine: each
		// worker still handles commands strictly one at a time.
		MaxAckPending: config.NumberOfWorkers,
	})
	if err != nil {
		return exitRuntime, err
	}

	replies, err := queue.NewReplyPublisher(ctx, bus)
	if err != nil {
		return exitRuntime, err
	}

	stats := &observability.PipelineStats{}
	monitoring := observability.NewMonitoring(logger, stats)
	client := quotes.NewClient(config.StooqBaseURL, config.QuoteTimeout, logger)

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	for range config.NumberOfWorkers {
		sup.Add(workers.NewStockWorker(deliveries, client, replies, stats, logger))
	}
	sup.Add(workers.NewStatsReporter(monitoring, config.StatsInterval, logger))

	logger.Info("Stockbot started",
		"workers", config.NumberOfWorkers, "provider", config.StooqBaseURL)
	sup.Run(ctx)

	logger.Info("Stockbot stopped cleanly")
	return exitOK, nil
}
