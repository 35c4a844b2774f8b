package main

import (
	"context"
	"fmt"
	"time"

	"roxom_mm/internal/domain"
	"roxom_mm/internal/execution"
	"roxom_mm/internal/infra"
	"roxom_mm/internal/logger"
	"roxom_mm/internal/storage"
	"roxom_mm/internal/strategy"
)

// End-to-end dry run against the paper venue: seeds prices, runs a few quote
// cycles, fires the emergency path, and prints what the book saw. Useful for
// eyeballing the full wiring without touching the live venue.
func main() {
	logger.Setup("debug", "")

	cfg := &infra.Config{}
	cfg.Trading.Mode = "PAPER"
	cfg.Trading.Symbol = "GOLD-BTC"
	cfg.Trading.InstType = "spot"
	cfg.Trading.OrderType = "limit"
	cfg.Trading.TimeInForce = "gtc"
	cfg.Trading.OrderSize = "0.1"
	cfg.Trading.SpreadBps = 20
	cfg.Trading.TickSize = 0.000001
	cfg.Trading.QuoteIntervalSec = 1
	cfg.Trading.PositionPollSec = 1
	cfg.API.Binance.Symbols = []string{"paxgusdt", "btcusdt"}

	prices := storage.NewPriceStore(cfg.API.Binance.Symbols)
	book := storage.NewOrderBook(nil)
	pricer := strategy.NewPricer(prices, cfg.API.Binance.Symbols, cfg.Trading.SpreadBps, cfg.Trading.TickSize)

	paper := execution.NewPaperGateway(func(u domain.OrderUpdate) {
		book.ApplyUpdate(u)
	})
	maker := strategy.NewMarketMaker(cfg, pricer, paper, book)

	fmt.Println("=== paper integration run ===")

	// Seed the feed as if both Binance legs just ticked.
	prices.Update("PAXGUSDT", 2000.0, 2000.2)
	prices.Update("BTCUSDT", 60000.0, 60010.0)

	ctx, cancel := context.WithTimeout(context.Background(), 3500*time.Millisecond)
	defer cancel()

	go maker.Run(ctx)
	<-ctx.Done()

	maker.EmergencyCleanup(context.Background())

	fmt.Println()
	fmt.Printf("order summary:   %v\n", book.Summary())
	fmt.Printf("open on venue:   %d\n", paper.OpenOrders())
	fmt.Printf("slots after run: %+v\n", maker.Slots())
	fmt.Printf("transitions:     %d\n", len(book.History()))

	if paper.OpenOrders() == 0 && len(book.ActiveOrders()) == 0 {
		fmt.Println("✅ all orders cancelled, local and venue state agree")
	} else {
		fmt.Println("❌ state mismatch after emergency cleanup")
	}
}
