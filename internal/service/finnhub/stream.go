package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"stockscout/internal/domain/models"
	drepo "stockscout/internal/domain/repository"
	"stockscout/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements a MarketStream backed by the Finnhub trade WebSocket.
type Stream struct {
	apiKey         string
	websocketURL   string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	logger         *logger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	symbols   []string
}

// NewStream creates a Finnhub market stream.
func NewStream(lgr *logger.Logger, apiKey, websocketURL string, reconnectDelay, pingInterval time.Duration) *Stream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		logger:         lgr,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.logger.Info("finnhub stream connected")
	return nil
}

// Subscribe subscribes to trade prints for the given symbols. The set is
// remembered so Reconnect can resubscribe.
func (s *Stream) Subscribe(_ context.Context, symbols []string) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	if len(symbols) > 0 {
		s.symbols = symbols
	} else {
		symbols = s.symbols
	}
	s.mu.Unlock()

	if conn == nil || !connected {
		return fmt.Errorf("finnhub not connected")
	}

	for _, sym := range symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.logger.Info("finnhub subscribed", logger.Int("symbols", len(symbols)))
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsTrade `json:"data"`
}

// Read streams Trade events and errors. The error channel yields at
// most one error, after which both channels close.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Trade, <-chan error) {
	trades := make(chan *models.Trade, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				conn := s.conn
				s.mu.Unlock()
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(trades)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("finnhub conn nil")
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("finnhub read: %w", err)
				return
			}

			var m wsMessage
			if err := json.Unmarshal(b, &m); err != nil {
				// ignore non-trade frames
				continue
			}
			if m.Type != "trade" {
				continue
			}
			for _, d := range m.Data {
				trade := &models.Trade{
					Symbol:    d.S,
					Price:     d.P,
					Volume:    d.V,
					Timestamp: time.UnixMilli(d.T).UTC(),
				}
				select {
				case trades <- trade:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return trades, errs
}

// Reconnect closes and reconnects, then resubscribes.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}

	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx, nil)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

var _ drepo.MarketStream = (*Stream)(nil)
