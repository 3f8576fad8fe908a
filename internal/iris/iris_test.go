package iris

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/quien-soy-bot-go/pkg/errors"
	"go.uber.org/zap"
)

func TestClientSendMessage(t *testing.T) {
	var got ReplyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/reply" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", zap.NewNop())
	if err := client.SendMessage(context.Background(), "Sala", "¡Hola!"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if got.Type != "text" || got.Room != "Sala" || got.Data != "¡Hola!" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClientSendImageEncodesBase64(t *testing.T) {
	var got ReplyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	if err := client.SendImage(context.Background(), "Sala", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(got.Data)
	if err != nil || string(raw) != "\x89PNG" || got.Type != "image" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "room not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	err := client.SendMessage(context.Background(), "Nadie", "x")

	var apiErr *errors.APIError
	if !stderrors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if client.Ping(context.Background()) == nil {
		t.Fatal("ping should fail against an erroring server")
	}
}

func TestClientGetConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"port":3000,"pollingSpeed":100,"messageRate":50,"webserverEndpoint":"http://bot"}`))
	}))
	defer srv.Close()

	cfg, err := NewClient(srv.URL, zap.NewNop()).GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.Port != 3000 || cfg.WebserverEndpoint != "http://bot" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestClientSendImageURLRelaysDownloadedPicture(t *testing.T) {
	var (
		got       ReplyRequest
		userAgent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cervantes.png":
			userAgent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG-data"))
		case "/reply":
			_ = json.NewDecoder(r.Body).Decode(&got)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	if err := client.SendImageURL(context.Background(), "Sala", srv.URL+"/cervantes.png"); err != nil {
		t.Fatalf("SendImageURL: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(got.Data)
	if err != nil || string(raw) != "\x89PNG-data" || got.Type != "image" || got.Room != "Sala" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if userAgent == "" {
		t.Fatal("image download should send a User-Agent")
	}
}

func TestClientSendImageURLRejectsNonImages(t *testing.T) {
	replied := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/big.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(make([]byte, 64))
		case "/reply":
			replied = true
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	var apiErr *errors.APIError
	err := client.SendImageURL(context.Background(), "Sala", srv.URL+"/page")
	if !stderrors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415 APIError, got %v", err)
	}

	client.maxImage = 16
	err = client.SendImageURL(context.Background(), "Sala", srv.URL+"/big.jpg")
	if !stderrors.As(err, &apiErr) || apiErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 APIError, got %v", err)
	}
	if replied {
		t.Fatal("rejected images must not reach /reply")
	}
}

func TestClientPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"port":3000}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, zap.NewNop()).Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestWebSocketRunDeliversMessages(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"msg":"!empezar","room":"Sala","sender":"Ana"}`))
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws := NewWebSocket(wsURL, 0, 10*time.Millisecond, zap.NewNop())

	var (
		mu     sync.Mutex
		states []WebSocketState
	)
	ws.OnStateChange(func(state WebSocketState) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan *Message, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- ws.Run(ctx, func(m *Message) { received <- m })
	}()

	select {
	case m := <-received:
		if m.Msg != "!empezar" || m.Room != "Sala" || m.SenderName() != "Ana" {
			t.Fatalf("unexpected message: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}

	cancel()
	select {
	case err := <-errCh:
		if !stderrors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) == 0 || states[len(states)-1] != WSStateDisconnected {
		t.Fatalf("unexpected state sequence: %v", states)
	}
}

func TestWebSocketGivesUp(t *testing.T) {
	ws := NewWebSocket("ws://127.0.0.1:1/ws", 1, time.Millisecond, zap.NewNop())
	err := ws.Run(context.Background(), func(*Message) {})
	if err == nil || ws.GetState() != WSStateFailed {
		t.Fatalf("expected failure, got %v (state %s)", err, ws.GetState())
	}
}
