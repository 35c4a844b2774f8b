package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"roxom_mm/internal/logger"
	"roxom_mm/internal/strategy"
)

// Server exposes read-only JSON monitoring endpoints over the market
// maker's state. It never mutates anything: no order entry, no config
// changes, just a window into the running strategy.
type Server struct {
	maker *strategy.MarketMaker
	httpd *http.Server
	log   *logger.Entry
}

// NewServer creates a dashboard server bound to host:port.
func NewServer(host string, port int, maker *strategy.MarketMaker) *Server {
	s := &Server{
		maker: maker,
		log:   logger.Get("dashboard"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/quotes", s.handleQuotes)
	mux.HandleFunc("/api/orders", s.handleOrders)
	mux.HandleFunc("/api/position", s.handlePosition)

	s.httpd = &http.Server{
		Addr:              net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the context is cancelled. A busy port is logged and
// swallowed: monitoring must never take trading down.
func (s *Server) Start(ctx context.Context) {
	ln, err := net.Listen("tcp", s.httpd.Addr)
	if err != nil {
		s.log.WithError(err).Errorf("dashboard not started on %s", s.httpd.Addr)
		return
	}
	s.log.Infof("dashboard server started at http://%s", s.httpd.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpd.Shutdown(shutdownCtx)
	}()

	if err := s.httpd.Serve(ln); err != nil && err != http.ErrServerClosed {
		s.log.WithError(err).Error("dashboard server failed")
	}
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpd.Handler
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.maker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "market maker not available"})
		return
	}

	var fair any
	if f, ok := s.maker.FairPrice(); ok {
		fair = f
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "running",
		"uptime":         s.maker.Uptime().Seconds(),
		"fair_price":     fair,
		"current_orders": s.maker.Slots(),
		"last_updated":   time.Now().UTC(),
	})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	if s.maker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "market maker not available"})
		return
	}

	fair, ok := s.maker.FairPrice()
	bid, ask, ok2 := s.maker.CurrentQuote()
	if !ok || !ok2 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no fair price available"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp":      time.Now().UTC(),
		"fair_price":     fair,
		"bid_price":      bid,
		"ask_price":      ask,
		"spread":         ask - bid,
		"spread_bps":     (ask - bid) / fair * 10000,
		"uptime":         s.maker.Uptime().Seconds(),
		"current_orders": s.maker.Slots(),
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if s.maker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "market maker not available"})
		return
	}

	book := s.maker.Book()
	fills := book.FilledOrders()
	// Oldest first so the tail really is the most recent fills.
	sort.Slice(fills, func(i, j int) bool {
		return fills[i].LastLocalUpdate.Before(fills[j].LastLocalUpdate)
	})
	if len(fills) > 10 {
		fills = fills[len(fills)-10:]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"timestamp":         time.Now().UTC(),
		"active_orders":     book.ActiveOrders(),
		"recent_fills":      fills,
		"order_summary":     book.Summary(),
		"current_order_ids": s.maker.Slots(),
		"uptime":            s.maker.Uptime().Seconds(),
	})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	if s.maker == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "market maker not available"})
		return
	}
	writeJSON(w, http.StatusOK, s.maker.Position())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
