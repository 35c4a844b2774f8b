package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"roxom_mm/internal/dashboard"
	"roxom_mm/internal/domain"
	"roxom_mm/internal/execution"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/infra/binance"
	"roxom_mm/internal/infra/roxom"
	"roxom_mm/internal/logger"
	"roxom_mm/internal/storage"
	"roxom_mm/internal/strategy"
)

// App wires every component and owns the startup and shutdown sequence.
type App struct {
	Config  *infra.Config
	Prices  *storage.PriceStore
	Book    *storage.OrderBook
	History *storage.HistoryStore
	Maker   *strategy.MarketMaker

	priceWorker   *binance.PriceWorker
	privateWorker *roxom.PrivateWorker
	dash          *dashboard.Server

	cancel   context.CancelFunc
	shutdown sync.Once
	log      *logger.Entry
}

// NewApp builds the full system from a config file.
func NewApp(configPath string) (*App, error) {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.File)

	a := &App{
		Config: cfg,
		log:    logger.Get("app"),
	}

	a.log.Info("🚀 bootstrapping Roxom market maker...")

	// Optional insert-only audit trail for order transitions.
	var sink storage.TransitionSink
	if cfg.History.Enabled {
		dbPath := cfg.History.DBPath
		if dbPath == "" {
			dbPath = filepath.Join("data", "history.db")
		}
		if err := infra.EnsureDir(filepath.Dir(dbPath)); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
		hist, err := storage.NewHistoryStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		a.History = hist
		sink = hist
		a.log.Infof("✅ history store initialized (WAL-mode), path: %s", dbPath)
	}

	a.Prices = storage.NewPriceStore(cfg.API.Binance.Symbols)
	a.Book = storage.NewOrderBook(sink)

	pricer := strategy.NewPricer(a.Prices, cfg.API.Binance.Symbols, cfg.Trading.SpreadBps, cfg.Trading.TickSize)

	// The paper gateway has no private stream; it reports straight into
	// the book.
	gateway, err := execution.NewGateway(cfg, func(u domain.OrderUpdate) {
		a.Book.ApplyUpdate(u)
	})
	if err != nil {
		return nil, err
	}

	a.Maker = strategy.NewMarketMaker(cfg, pricer, gateway, a.Book)

	a.priceWorker = binance.NewPriceWorker(cfg.API.Binance.WSURL, cfg.API.Binance.Symbols, a.Prices, nil)

	// The authenticated venue stream only exists against the live venue.
	if strings.ToUpper(cfg.Trading.Mode) == string(execution.ModeReal) {
		a.privateWorker = roxom.NewPrivateWorker(
			cfg.API.Roxom.WSURL, cfg.API.Roxom.APIKey, cfg.ReconnectInterval(), a.Book, nil)
	}

	if cfg.Dashboard.Enabled {
		a.dash = dashboard.NewServer(cfg.Dashboard.Host, cfg.Dashboard.Port, a.Maker)
	}

	return a, nil
}

// Run starts every component and blocks until shutdown completes.
func (a *App) Run(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	defer a.cancel()

	infra.PrintBanner(a.Config)

	a.log.Info("press CTRL+C to cancel all orders and shutdown")

	a.priceWorker.Start(ctx)
	defer a.priceWorker.Stop()
	a.log.Info("✅ Binance price feed started")

	if a.privateWorker != nil {
		a.privateWorker.Start(ctx)
		defer a.privateWorker.Stop()
		a.log.Info("✅ Roxom private feed started")
	}

	var wg sync.WaitGroup
	if a.dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.dash.Start(ctx)
		}()
	}

	a.Maker.Bootstrap(ctx)
	a.log.Info("✨ market maker operational")

	a.Maker.Run(ctx)

	wg.Wait()

	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close history store")
		}
	}
	a.log.Info("👋 shutdown complete")
}

// TriggerShutdown cancels all resting orders first, then stops every loop.
// Safe to call from a signal handler goroutine; subsequent calls are no-ops.
func (a *App) TriggerShutdown() {
	a.shutdown.Do(func() {
		a.log.Info("received shutdown signal, shutting down...")

		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Maker.EmergencyCleanup(cleanupCtx)

		if a.cancel != nil {
			a.cancel()
		}
	})
}
