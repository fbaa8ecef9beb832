package main

import (
	"context"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"binance-momentum-bot-go/internal/bot"
	"binance-momentum-bot-go/internal/breaker"
	"binance-momentum-bot-go/internal/config"
	"binance-momentum-bot-go/internal/decision"
	"binance-momentum-bot-go/internal/exchange"
	"binance-momentum-bot-go/internal/logger"
	"binance-momentum-bot-go/internal/models"
	"binance-momentum-bot-go/internal/notifier"
	"binance-momentum-bot-go/internal/persistence"
	"binance-momentum-bot-go/internal/signal"
	"binance-momentum-bot-go/internal/statestore"
)

func main() {
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	// A default logger exists before config is loaded, so early failures are
	// still visible somewhere.
	logger.Init(models.LogConfig{Level: "info", Output: "console"})

	if err := godotenv.Load(*envFile); err != nil {
		logger.S().Infof("no %s file, reading configuration from process environment", *envFile)
	}

	cfg := config.Load()
	logger.Init(cfg.LogConfig)
	defer logger.S().Sync()

	// A bad configuration is fatal before any trading starts.
	if err := config.Validate(cfg); err != nil {
		logger.S().Fatalf("%v", err)
	}

	run(cfg)
}

func run(cfg *models.Config) {
	log := logger.S()

	// --- persistence ---
	var (
		repo persistence.StateRepository
		err  error
	)
	switch cfg.StateBackend {
	case "badger":
		repo, err = persistence.NewBadgerRepository(cfg.DBPath)
	default:
		repo, err = persistence.NewFileRepository(cfg.StateFile)
	}
	if err != nil {
		log.Fatalf("failed to open state repository: %v", err)
	}

	store := statestore.New(repo, log)
	if err := store.Load(cfg.Symbol); err != nil {
		log.Fatalf("failed to load state: %v", err)
	}
	defer store.Close()

	// --- circuit breaker, restored from the durable error log ---
	brk := breaker.New(
		cfg.CircuitBreakerErrors,
		time.Duration(cfg.CircuitBreakerWindowHours)*time.Hour,
		time.Hour,
		log,
	)
	brk.Restore(store.Snapshot())

	// --- strategy ---
	strat, err := decision.New(cfg)
	if err != nil {
		log.Fatalf("failed to build strategy: %v", err)
	}

	// --- exchange + price stream ---
	var (
		ex     exchange.Exchange
		stream *exchange.PriceStream
	)
	if cfg.DryRun {
		// Dry run still watches the real market; klines are public, so no
		// API keys are needed. Only fills and equity are simulated.
		log.Info("DRY_RUN enabled: live market data, paper order fills")
		market := exchange.NewLiveExchange("", "", "USDT", cfg)
		ex = exchange.NewDryRunExchange(market, exchange.NewPaperExchange(1000, cfg.TakerFeeRate))
	} else {
		apiKey := os.Getenv("BINANCE_API_KEY")
		secretKey := os.Getenv("BINANCE_SECRET_KEY")
		if apiKey == "" || secretKey == "" {
			log.Fatal("BINANCE_API_KEY and BINANCE_SECRET_KEY must be set for live trading")
		}
		ex = exchange.NewLiveExchange(apiKey, secretKey, "USDT", cfg)
	}
	stream = exchange.NewPriceStream(cfg.Symbol, log)

	// --- notifications ---
	var notify notifier.Notifier
	if cfg.DiscordWebhookURL != "" {
		dn := notifier.NewDiscordNotifier(cfg.DiscordWebhookURL, log)
		defer dn.Close()
		notify = dn
	} else {
		notify = &notifier.LogNotifier{Logger: log}
	}

	b := bot.New(bot.Options{
		Config:   cfg,
		Exchange: ex,
		Stream:   stream,
		Store:    store,
		Breaker:  brk,
		Strategy: strat,
		Signals:  signal.NewFileSource(cfg.SignalFile),
		Notifier: notify,
		Logger:   log,
	})

	// SIGINT/SIGTERM cancel the context; the bot finishes its in-flight
	// commit before Run returns.
	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		log.Fatalf("bot terminated: %v", err)
	}
	log.Info("bot stopped cleanly")
}
