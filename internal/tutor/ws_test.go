package tutor_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/codemaster/internal/ai"
	"github.com/p-n-ai/codemaster/internal/tutor"
)

func TestWebSocketHandler_Session(t *testing.T) {
	mock := ai.NewMockProvider("Resposta do tutor")
	svc := tutor.New(tutor.Config{AI: routerWith(mock)})

	srv := httptest.NewServer(svc.WebSocketHandler([]string{"*"}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = conn.CloseNow() }()

	for i := range 2 {
		if err := wsjson.Write(ctx, conn, tutor.ChatRequest{
			Messages: []ai.Message{{Role: ai.RoleUser, Content: "pergunta"}},
		}); err != nil {
			t.Fatalf("Write(%d) error = %v", i, err)
		}
		var reply tutor.Reply
		if err := wsjson.Read(ctx, conn, &reply); err != nil {
			t.Fatalf("Read(%d) error = %v", i, err)
		}
		if reply.Response != "Resposta do tutor" || reply.Offline {
			t.Errorf("reply %d = %+v", i, reply)
		}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
	if mock.Calls() != 2 {
		t.Errorf("provider called %d times, want 2", mock.Calls())
	}
}

func TestWebSocketHandler_OfflineWithoutProvider(t *testing.T) {
	svc := tutor.New(tutor.Config{AI: routerWith(nil)})
	srv := httptest.NewServer(svc.WebSocketHandler([]string{"*"}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer func() { _ = conn.CloseNow() }()

	if err := wsjson.Write(ctx, conn, tutor.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "oi"}},
	}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var reply tutor.Reply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reply.Offline {
		t.Errorf("reply = %+v, want offline", reply)
	}
}
