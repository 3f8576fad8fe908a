package iris

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/quien-soy-bot-go/internal/util"
	"go.uber.org/zap"
)

type MessageHandler func(message *Message)

type StateCallback func(state WebSocketState)

// WebSocket streams chat messages from Iris and reconnects on read errors.
type WebSocket struct {
	wsURL                string
	dialer               *websocket.Dialer
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	logger               *zap.Logger

	mu             sync.Mutex
	conn           *websocket.Conn
	state          WebSocketState
	stateCallbacks []StateCallback
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, reconnectDelay time.Duration, logger *zap.Logger) *WebSocket {
	return &WebSocket{
		wsURL:                wsURL,
		dialer:               &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		maxReconnectAttempts: maxReconnectAttempts,
		reconnectDelay:       reconnectDelay,
		logger:               logger,
		state:                WSStateDisconnected,
	}
}

// Run connects and hands every decoded message to handle until ctx is
// cancelled or reconnecting fails maxReconnectAttempts times in a row.
// handle runs on the read goroutine and should not block for long.
func (ws *WebSocket) Run(ctx context.Context, handle MessageHandler) error {
	attempts := 0
	for {
		ws.setState(WSStateConnecting)
		conn, _, err := ws.dialer.DialContext(ctx, ws.wsURL, nil)
		if err == nil {
			attempts = 0
			ws.logger.Info("WebSocket connected", zap.String("url", ws.wsURL))
			err = ws.readLoop(ctx, conn, handle)
		}

		if ctx.Err() != nil {
			ws.setState(WSStateDisconnected)
			return ctx.Err()
		}

		attempts++
		ws.logger.Error("WebSocket connection lost", zap.Int("attempt", attempts), zap.Error(err))
		if attempts > ws.maxReconnectAttempts {
			ws.setState(WSStateFailed)
			return fmt.Errorf("websocket: giving up after %d attempts: %w", attempts, err)
		}

		ws.setState(WSStateReconnecting)
		select {
		case <-time.After(ws.reconnectDelay):
		case <-ctx.Done():
			ws.setState(WSStateDisconnected)
			return ctx.Err()
		}
	}
}

func (ws *WebSocket) readLoop(ctx context.Context, conn *websocket.Conn, handle MessageHandler) error {
	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	done := make(chan struct{})
	defer func() {
		close(done)
		ws.mu.Lock()
		if ws.conn == conn {
			ws.conn = nil
		}
		ws.mu.Unlock()
		_ = conn.Close()
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if message, ok := ws.decode(data); ok {
			handle(message)
		}
	}
}

func (ws *WebSocket) decode(data []byte) (*Message, bool) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		ws.logger.Error("Failed to parse message",
			zap.Error(err),
			zap.String("data", util.TruncateString(string(data), 200)),
		)
		return nil, false
	}
	return &message, true
}

func (ws *WebSocket) OnStateChange(callback StateCallback) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.stateCallbacks = append(ws.stateCallbacks, callback)
}

func (ws *WebSocket) setState(newState WebSocketState) {
	ws.mu.Lock()
	oldState := ws.state
	ws.state = newState
	callbacks := append([]StateCallback(nil), ws.stateCallbacks...)
	ws.mu.Unlock()

	if oldState == newState {
		return
	}

	ws.logger.Info("WebSocket state changed",
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
	)
	for _, callback := range callbacks {
		callback(newState)
	}
}

func (ws *WebSocket) GetState() WebSocketState {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.state
}

func (ws *WebSocket) IsConnected() bool {
	return ws.GetState() == WSStateConnected
}

// Close drops the current connection. Run reconnects unless its context
// is cancelled too.
func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}
