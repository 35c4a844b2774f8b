package storage

import (
	"strings"
	"sync"

	"roxom_mm/internal/domain"
)

// PriceStore holds the latest two-sided price per feed symbol.
// Single writer (the price feed task), any number of readers.
type PriceStore struct {
	mu     sync.RWMutex
	prices map[string]domain.PricePoint
}

// NewPriceStore pre-seeds an entry per tracked symbol; entries carry no
// data until the first tick arrives.
func NewPriceStore(symbols []string) *PriceStore {
	prices := make(map[string]domain.PricePoint, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(s)
		prices[sym] = domain.PricePoint{Symbol: sym}
	}
	return &PriceStore{prices: prices}
}

// Update overwrites the latest bid/ask for a tracked symbol.
// Ticks for untracked symbols are dropped.
func (s *PriceStore) Update(symbol string, bid, ask float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prices[symbol]; !ok {
		return
	}
	s.prices[symbol] = domain.PricePoint{
		Symbol:  symbol,
		Bid:     bid,
		Ask:     ask,
		HasData: true,
	}
}

// Get returns the latest price data for a symbol.
func (s *PriceStore) Get(symbol string) (domain.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[symbol]
	return p, ok
}

// HasData reports whether every given symbol has seen at least one tick.
func (s *PriceStore) HasData(symbols ...string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sym := range symbols {
		p, ok := s.prices[sym]
		if !ok || !p.HasData {
			return false
		}
	}
	return true
}
