package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"roxom_mm/pkg/quant"
)

// Fetches the two Binance legs over REST and prints the synthetic
// GOLD-BTC quote a live run would produce right now.
func main() {
	fmt.Println("=== Roxom MM Price Check ===")
	fmt.Println()

	paxg := fetchBookTicker("PAXGUSDT")
	btc := fetchBookTicker("BTCUSDT")

	fmt.Printf("📊 PAXGUSDT  bid %s  ask %s\n", paxg.Bid, paxg.Ask)
	fmt.Printf("📊 BTCUSDT   bid %s  ask %s\n", btc.Bid, btc.Ask)
	fmt.Println()

	if paxg.bidF == 0 || btc.bidF == 0 {
		fmt.Println("❌ price fetch failed")
		return
	}

	fair := quant.Midpoint(paxg.bidF, paxg.askF) / quant.Midpoint(btc.bidF, btc.askF)
	fmt.Printf("💹 fair GOLD-BTC: %s\n", quant.FormatPrice(fair))

	const spreadBps, tickSize = 20.0, 0.000001
	spread := fair * spreadBps / 10000
	bid := quant.RoundToTick(fair-spread/2, tickSize)
	ask := quant.RoundToTick(fair+spread/2, tickSize)
	fmt.Printf("   quote @ %.0fbps: %s / %s\n", spreadBps, quant.FormatPrice(bid), quant.FormatPrice(ask))
}

type ticker struct {
	Bid string `json:"bidPrice"`
	Ask string `json:"askPrice"`

	bidF, askF float64
}

func fetchBookTicker(symbol string) ticker {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get("https://api.binance.com/api/v3/ticker/bookTicker?symbol=" + symbol)
	if err != nil {
		return ticker{Bid: "ERROR", Ask: "ERROR"}
	}
	defer resp.Body.Close()

	var t ticker
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return ticker{Bid: "ERROR", Ask: "ERROR"}
	}
	fmt.Sscanf(t.Bid, "%f", &t.bidF)
	fmt.Sscanf(t.Ask, "%f", &t.askF)
	return t
}
