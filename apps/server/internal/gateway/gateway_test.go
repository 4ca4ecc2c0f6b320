package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"casino-lite/apps/server/internal/auth"
	"casino-lite/apps/server/internal/game"
	"casino-lite/apps/server/internal/metrics"
	"casino-lite/apps/server/internal/store"
	"casino-lite/blackjack"
	"casino-lite/card"

	"github.com/gorilla/websocket"
)

func newTestGateway(t *testing.T) (*httptest.Server, *Gateway, string) {
	t.Helper()
	deck, err := blackjack.NewStackedDeck(card.CardHeartT, card.CardClub9, card.CardSpade7, card.CardDiamond8)
	if err != nil {
		t.Fatalf("NewStackedDeck err: %v", err)
	}
	svc, err := game.New(store.NewMemory(1000), game.Options{
		NewDeck: func() blackjack.Deck { return deck },
	})
	if err != nil {
		t.Fatalf("game.New err: %v", err)
	}
	authManager := auth.NewManager()
	_, token, err := authManager.Register("alice_01", "secret12")
	if err != nil {
		t.Fatalf("register err: %v", err)
	}

	gw := New(authManager, svc, metrics.New())
	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, gw, token
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg ClientMessage) ServerMessage {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write err: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply ServerMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return reply
}

func TestRejectsMissingToken(t *testing.T) {
	srv, _, _ := newTestGateway(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %+v", resp)
	}
}

func TestActionFrames(t *testing.T) {
	srv, _, token := newTestGateway(t)
	conn := dial(t, srv, token)

	reply := roundTrip(t, conn, ClientMessage{RequestID: "r1", Request: game.Request{Action: "start", BetAmount: 100}})
	if reply.Type != MessageResult || reply.RequestID != "r1" || reply.Action != "start" {
		t.Fatalf("unexpected start reply: %+v", reply)
	}
	sessionID, _ := reply.Data["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("start reply has no session id: %+v", reply.Data)
	}
	dealer := reply.Data["dealerCards"].([]any)
	if hole := dealer[1].(map[string]any); hole["rank"] != nil {
		t.Fatalf("hole card leaked over websocket: %v", hole)
	}

	reply = roundTrip(t, conn, ClientMessage{RequestID: "r2", Request: game.Request{Action: "dealerHit", SessionID: sessionID}})
	if reply.Type != MessageError || reply.Kind != game.KindConcealed || reply.RequestID != "r2" {
		t.Fatalf("expected concealed error, got %+v", reply)
	}

	reply = roundTrip(t, conn, ClientMessage{RequestID: "r3", Request: game.Request{Action: "stand", SessionID: sessionID}})
	if reply.Type != MessageResult || reply.Data["result"] != "draw" {
		t.Fatalf("unexpected stand reply: %+v", reply)
	}
}

func TestSecondConnectionReceivesPoints(t *testing.T) {
	srv, gw, token := newTestGateway(t)
	first := dial(t, srv, token)
	second := dial(t, srv, token)

	deadline := time.Now().Add(2 * time.Second)
	for gw.ConnectionCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("connections were not registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	reply := roundTrip(t, first, ClientMessage{Request: game.Request{Action: "start", BetAmount: 10}})
	if reply.Type != MessageResult {
		t.Fatalf("start failed: %+v", reply)
	}

	second.SetReadDeadline(time.Now().Add(5 * time.Second))
	var push ServerMessage
	if err := second.ReadJSON(&push); err != nil {
		t.Fatalf("read push err: %v", err)
	}
	if push.Type != MessagePoints || push.Points == nil || *push.Points != 990 {
		t.Fatalf("unexpected push: %+v", push)
	}
}
