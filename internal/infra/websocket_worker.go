package infra

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roxom_mm/internal/logger"
)

// WebSocketHandler defines venue-specific logic for the BaseWSWorker.
type WebSocketHandler interface {
	ID() string
	GetURL() string
	// Headers is called on every connection attempt so handlers can attach
	// fresh auth material (e.g. a millisecond timestamp).
	Headers() http.Header
	OnConnect(ctx context.Context, conn *websocket.Conn) error
	OnMessage(ctx context.Context, msg []byte)
}

// BaseWSWorker manages the lifecycle of a WebSocket connection: it
// reconnects at a fixed interval on any failure and exits cleanly when the
// context is cancelled. Cancellation closes the live connection, which
// unblocks a pending read immediately, so reads carry no deadline and an
// idle but healthy stream stays connected indefinitely. gorilla read
// errors are permanent per connection, so every read error tears the
// connection down and the loop reconnects. Writes are serialized. Client
// heartbeats are not used; server pings are answered by gorilla's default
// pong handler.
type BaseWSWorker struct {
	handler WebSocketHandler
	mu      sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ReconnectInterval time.Duration
}

// NewBaseWSWorker creates a new generic WebSocket worker.
func NewBaseWSWorker(handler WebSocketHandler) *BaseWSWorker {
	return &BaseWSWorker{
		handler:           handler,
		ReconnectInterval: 5 * time.Second,
	}
}

// Start initiates the connection loop.
func (w *BaseWSWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	// Closing the current connection on cancellation unblocks the reader.
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		<-ctx.Done()
		w.close()
	}()

	w.wg.Add(1)
	go w.runLoop(ctx)
}

// Stop terminates the worker and waits for the loop to exit.
func (w *BaseWSWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *BaseWSWorker) runLoop(ctx context.Context) {
	defer w.wg.Done()
	log := logger.Get(w.handler.ID())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			log.WithError(err).Warnf("connection failed, reconnecting in %s", w.ReconnectInterval)
			if !Wait(ctx, w.ReconnectInterval) {
				return
			}
			continue
		}

		w.process(ctx)

		select {
		case <-ctx.Done():
			return
		default:
		}
		log.Warnf("connection lost, reconnecting in %s", w.ReconnectInterval)
		if !Wait(ctx, w.ReconnectInterval) {
			return
		}
	}
}

func (w *BaseWSWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}

	conn, _, err := dialer.DialContext(ctx, w.handler.GetURL(), w.handler.Headers())
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	if err := w.handler.OnConnect(ctx, conn); err != nil {
		w.close()
		return fmt.Errorf("OnConnect failed: %w", err)
	}

	logger.Get(w.handler.ID()).Info("connected")
	return nil
}

func (w *BaseWSWorker) process(ctx context.Context) {
	log := logger.Get(w.handler.ID())

	for {
		w.mu.RLock()
		c := w.conn
		w.mu.RUnlock()
		if c == nil {
			return
		}

		_, msg, err := c.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done(): // shutdown closed the conn under us
			default:
				log.WithError(err).Warn("read error")
			}
			w.close()
			return
		}

		w.dispatch(ctx, msg)
	}
}

// dispatch shields the read loop from a panicking handler: one bad message
// must never kill the stream.
func (w *BaseWSWorker) dispatch(ctx context.Context, msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get(w.handler.ID()).Errorf("message handler panic: %v", r)
		}
	}()
	w.handler.OnMessage(ctx, msg)
}

// Write sends a message over the connection. Thread-safe.
func (w *BaseWSWorker) Write(msgType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	c := w.conn
	w.mu.RUnlock()

	if c == nil {
		return fmt.Errorf("ws not connected")
	}

	return c.WriteMessage(msgType, data)
}

func (w *BaseWSWorker) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
}
