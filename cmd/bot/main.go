package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyedge/config"
	"github.com/alejandrodnm/polyedge/internal/adapters/exchange"
	"github.com/alejandrodnm/polyedge/internal/adapters/notify"
	"github.com/alejandrodnm/polyedge/internal/adapters/polymarket"
	"github.com/alejandrodnm/polyedge/internal/adapters/storage"
	"github.com/alejandrodnm/polyedge/internal/application/bankroll"
	"github.com/alejandrodnm/polyedge/internal/application/calibration"
	"github.com/alejandrodnm/polyedge/internal/application/edge"
	"github.com/alejandrodnm/polyedge/internal/application/engine"
	"github.com/alejandrodnm/polyedge/internal/application/executor"
	"github.com/alejandrodnm/polyedge/internal/application/probability"
	"github.com/alejandrodnm/polyedge/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one decision cycle and exit")
	live := flag.Bool("live", false, "submit real orders to the CLOB (default: paper mode)")
	status := flag.Bool("status", false, "print bankroll state and open bets, then exit")
	report := flag.Bool("calibration", false, "print the calibration report, then exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full candidate tables (default: compact 1-line)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	log := setupLogger(cfg.Log)

	mode := "paper"
	if *live {
		mode = "live"
	}
	log.Info("polyedge starting",
		"config", *configPath,
		"mode", mode,
		"interval", cfg.CycleInterval(),
		"capital", cfg.Bankroll.TotalCapital,
		"kelly", cfg.Bankroll.KellyMultiplier,
	)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		log.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tracker := calibration.NewTracker(store)
	if err := tracker.Load(ctx); err != nil {
		log.Error("failed to load calibration history", "err", err)
		os.Exit(1)
	}

	var (
		client *polymarket.Client
		ex     ports.Exchange
	)
	if *live {
		key := cfg.PolygonPrivateKey()
		if key == "" {
			log.Error("live mode requires POLYGON_PRIVATE_KEY")
			os.Exit(1)
		}
		auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, key)
		if err != nil {
			log.Error("failed to build auth client", "err", err)
			os.Exit(1)
		}
		if err := auth.EnsureCreds(ctx); err != nil {
			log.Error("failed to derive CLOB credentials", "err", err)
			os.Exit(1)
		}
		log.Info("live trading enabled", "wallet", auth.Address())
		client = auth.Client
		ex = polymarket.NewCLOBExchange(auth, log)
	} else {
		client = polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)
		ex = exchange.NewPaper(log)
	}
	provider := polymarket.NewProvider(client, log)

	bank := bankroll.NewManager(bankroll.Config{
		TotalCapital:           cfg.Bankroll.TotalCapital,
		KellyMultiplier:        cfg.Bankroll.KellyMultiplier,
		MaxSingleBetPct:        cfg.Bankroll.MaxSingleBetPct,
		MaxTotalExposurePct:    cfg.Bankroll.MaxTotalExposurePct,
		MaxCategoryExposurePct: cfg.Bankroll.MaxCategoryExposurePct,
		MinEV:                  cfg.Models.MinEV,
		MinKelly:               cfg.Bankroll.MinKelly,
		MinStake:               cfg.Bankroll.MinStake,
		MaxLiquidityPct:        cfg.Bankroll.MaxLiquidityPct,
	})

	// Reconcilia el capital comprometido con las apuestas vivas de la
	// ejecución anterior; sin esto los topes de exposición parten de cero.
	openBets, err := store.GetOpenBets(ctx)
	if err != nil {
		log.Error("failed to load open bets", "err", err)
		os.Exit(1)
	}
	bank.Restore(openBets)
	if len(openBets) > 0 {
		log.Info("restored open positions", "bets", len(openBets),
			"committed", bank.State().Committed)
	}

	notifier := buildNotifier(cfg, *table, log)

	exec := executor.New(executor.Config{
		FillTimeout:      cfg.FillTimeout(),
		FillPollInterval: cfg.FillPollInterval(),
	}, ex, bank, store, tracker, notifier, log)

	prob := probability.NewEngine(probability.Config{
		CryptoSpotDefault: cfg.Models.CryptoSpotDefault,
		MacroStaleAfter:   cfg.MacroStaleAfter(),
	})
	ranker := edge.NewRanker(edge.Config{
		MinEV:                cfg.Models.MinEV,
		NearResolutionWindow: cfg.NearResolutionWindow(),
		MaxPenalty:           cfg.Models.NearResolutionPenalty,
	})

	eng := engine.New(engine.Config{
		CycleInterval:   cfg.CycleInterval(),
		MaxBetsPerCycle: cfg.Engine.MaxBetsPerCycle,
		MinLiquidity:    cfg.Engine.MinLiquidity,
		MinVolume24h:    cfg.Engine.MinVolume24h,
		MinConfidence:   cfg.Engine.MinConfidence,
		ReportMinSample: cfg.Engine.ReportMinSample,
	}, provider, prob, ranker, exec, tracker, store, notifier, log)

	switch {
	case *status:
		printStatus(ctx, eng, log)
	case *report:
		printCalibration(ctx, tracker, notifier, cfg.Engine.ReportMinSample, log)
	case *once:
		if _, err := eng.RunCycle(ctx); err != nil {
			log.Error("cycle failed", "err", err)
			os.Exit(1)
		}
	default:
		if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error("engine exited with error", "err", err)
			os.Exit(1)
		}
	}

	log.Info("polyedge stopped cleanly")
}

func buildNotifier(cfg *config.Config, table bool, log *slog.Logger) ports.Notifier {
	console := notify.NewConsole(table)
	if !cfg.Telegram.Enabled {
		return console
	}

	token, chatID := cfg.TelegramToken(), cfg.TelegramChatID()
	if token == "" || chatID == "" {
		log.Warn("telegram enabled but TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID not set")
		return console
	}
	return notify.NewFanout(console, notify.NewTelegram(token, chatID, log))
}

func printStatus(ctx context.Context, eng *engine.Engine, log *slog.Logger) {
	state, open, err := eng.Status(ctx)
	if err != nil {
		log.Error("status failed", "err", err)
		os.Exit(1)
	}

	log.Info("bankroll",
		"capital", state.TotalCapital,
		"committed", state.Committed,
		"available", state.Available(),
		"exposure_pct", state.ExposurePct()*100,
	)
	for cat, amount := range state.PerCategory {
		if amount > 0 {
			log.Info("category exposure", "category", cat, "amount", amount)
		}
	}
	for _, bet := range open {
		log.Info("open bet",
			"id", bet.ID,
			"market", bet.MarketID,
			"side", bet.Side,
			"stake", bet.Stake,
			"entry", bet.EntryPrice,
			"state", bet.State,
		)
	}
}

func printCalibration(ctx context.Context, tracker *calibration.Tracker, notifier ports.Notifier, minSample int, log *slog.Logger) {
	rep, err := tracker.Report(minSample)
	if err != nil {
		log.Error("calibration report unavailable", "err", err, "records", tracker.SampleSize())
		os.Exit(1)
	}
	if err := notifier.NotifyReport(ctx, rep); err != nil {
		log.Warn("notifier error", "err", err)
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
