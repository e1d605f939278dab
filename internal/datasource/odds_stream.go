package datasource

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jdvot/paris-sportif/internal/models"
)

// OddsHandler is called for every odds update received from the stream
type OddsHandler func(odds models.BookmakerOdds) error

// ReconnectConfig controls stream reconnection behavior
type ReconnectConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultReconnectConfig returns default reconnection configuration
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		MaxRetries:        10,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 1.5,
	}
}

// streamMessage is the wire format of messages on the odds stream
type streamMessage struct {
	Op      string        `json:"op"` // connection, heartbeat, odds, error
	Status  int           `json:"status,omitempty"`
	Message string        `json:"message,omitempty"`
	Odds    *oddsAPIEntry `json:"odds,omitempty"`
}

// OddsStreamClient maintains a WebSocket subscription to live odds updates
type OddsStreamClient struct {
	streamURL       string
	apiKey          string
	reconnectConfig ReconnectConfig
	logger          *log.Logger

	mu              sync.RWMutex
	conn            *websocket.Conn
	isConnected     bool
	closed          bool
	handlers        []OddsHandler
	subscribed      []uuid.UUID
	lastMessageTime time.Time
}

// NewOddsStreamClient creates a new odds stream client
func NewOddsStreamClient(streamURL, apiKey string, logger *log.Logger) *OddsStreamClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &OddsStreamClient{
		streamURL:       streamURL,
		apiKey:          apiKey,
		reconnectConfig: DefaultReconnectConfig(),
		logger:          logger,
		handlers:        make([]OddsHandler, 0),
	}
}

// Connect establishes the WebSocket connection and starts the read loop
func (s *OddsStreamClient) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isConnected {
		return fmt.Errorf("already connected")
	}

	if err := s.dial(ctx); err != nil {
		return err
	}

	go s.readMessages(ctx)

	return nil
}

// dial opens the connection and authenticates; caller must hold s.mu
func (s *OddsStreamClient) dial(ctx context.Context) error {
	s.logger.Printf("Connecting to odds stream: %s", s.streamURL)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}

	authMsg := map[string]interface{}{
		"op":     "connection",
		"apiKey": s.apiKey,
	}
	if err := conn.WriteJSON(authMsg); err != nil {
		conn.Close()
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	s.conn = conn
	s.isConnected = true
	s.lastMessageTime = time.Now()

	// Restore subscriptions after a reconnect
	if len(s.subscribed) > 0 {
		if err := writeSubscription(conn, s.apiKey, s.subscribed); err != nil {
			conn.Close()
			s.isConnected = false
			return fmt.Errorf("failed to resubscribe: %w", err)
		}
	}

	return nil
}

// Subscribe registers interest in odds updates for the given matches
func (s *OddsStreamClient) Subscribe(ctx context.Context, matchIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isConnected || s.conn == nil {
		return fmt.Errorf("not connected to stream")
	}

	if err := writeSubscription(s.conn, s.apiKey, matchIDs); err != nil {
		return err
	}

	s.subscribed = append(s.subscribed, matchIDs...)
	s.logger.Printf("Subscribed to odds for %d matches", len(matchIDs))
	return nil
}

func writeSubscription(conn *websocket.Conn, apiKey string, matchIDs []uuid.UUID) error {
	ids := make([]string, len(matchIDs))
	for i, id := range matchIDs {
		ids[i] = id.String()
	}
	return conn.WriteJSON(map[string]interface{}{
		"op":        "subscribe",
		"apiKey":    apiKey,
		"matchIds":  ids,
		"heartbeat": true,
	})
}

// AddHandler registers an odds update handler
func (s *OddsStreamClient) AddHandler(handler OddsHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// readMessages reads from the connection and reconnects with backoff on failure
func (s *OddsStreamClient) readMessages(ctx context.Context) {
	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()

		var msg streamMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			s.mu.Lock()
			s.isConnected = false
			closed := s.closed
			s.mu.Unlock()

			if closed || ctx.Err() != nil {
				return
			}

			s.logger.Printf("Stream read error: %v", err)
			if !s.reconnect(ctx) {
				return
			}
			continue
		}

		s.mu.Lock()
		s.lastMessageTime = time.Now()
		s.mu.Unlock()

		s.dispatch(&msg)
	}
}

// dispatch routes a stream message to the registered handlers
func (s *OddsStreamClient) dispatch(msg *streamMessage) {
	switch msg.Op {
	case "heartbeat", "connection":
		return
	case "error":
		s.logger.Printf("Stream error message (status %d): %s", msg.Status, msg.Message)
		return
	case "odds":
		if msg.Odds == nil {
			return
		}
	default:
		return
	}

	matchID, err := uuid.Parse(msg.Odds.MatchID)
	if err != nil {
		s.logger.Printf("Stream odds with invalid match id %q", msg.Odds.MatchID)
		return
	}

	odds, err := convertOddsEntry(msg.Odds)
	if err != nil {
		s.logger.Printf("Skipping malformed stream odds for match %s: %v", matchID, err)
		return
	}

	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(*odds); err != nil {
			s.logger.Printf("Odds handler error: %v", err)
		}
	}
}

// reconnect attempts to re-establish the connection with exponential backoff.
// Returns false when retries are exhausted or the context is cancelled.
func (s *OddsStreamClient) reconnect(ctx context.Context) bool {
	backoff := s.reconnectConfig.InitialBackoff

	for attempt := 1; attempt <= s.reconnectConfig.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return false
		}
		err := s.dial(ctx)
		s.mu.Unlock()

		if err == nil {
			s.logger.Printf("Reconnected to odds stream on attempt %d", attempt)
			return true
		}

		s.logger.Printf("Reconnect attempt %d failed: %v", attempt, err)
		backoff = time.Duration(float64(backoff) * s.reconnectConfig.BackoffMultiplier)
		if backoff > s.reconnectConfig.MaxBackoff {
			backoff = s.reconnectConfig.MaxBackoff
		}
	}

	s.logger.Printf("Giving up on odds stream after %d reconnect attempts", s.reconnectConfig.MaxRetries)
	return false
}

// IsConnected returns whether the stream is connected
func (s *OddsStreamClient) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isConnected
}

// LastMessageTime returns the time of the last received message
func (s *OddsStreamClient) LastMessageTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastMessageTime
}

// Close closes the stream connection and stops reconnection attempts
func (s *OddsStreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.isConnected = false
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
