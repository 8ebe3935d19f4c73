package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/calvinwijaya/blackjack/internal/game"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	ShowAt    *time.Time      `json:"showAt"`
	Data      json.RawMessage `json:"data"`
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?sessionId=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil collects messages up to and including the first of type last.
func readUntil(t *testing.T, conn *websocket.Conn, last string) []wsMessage {
	t.Helper()
	var msgs []wsMessage
	for {
		msg := read(t, conn)
		msgs = append(msgs, msg)
		if msg.Type == last {
			return msgs
		}
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(log.New(io.Discard))
	go hub.Run(ctx)
	return hub
}

func TestWebSocketStreamsEventsAndRunsCommands(t *testing.T) {
	hub := startHub(t)
	ts := newTestServer(t, hub, WithSessionFactory(stackedFactory(
		card(game.Ten, game.Spades), card(game.Nine, game.Hearts),
		card(game.Six, game.Spades), card(game.Seven, game.Hearts),
		card(game.King, game.Clubs),
	)), WithPacing(Pacing{Deal: 700 * time.Millisecond}))
	server := httptest.NewServer(ts.router)
	defer server.Close()

	_, _, err := ts.handlers.openTable("tab")
	require.NoError(t, err)

	conn := dial(t, server, "tab")
	welcome := read(t, conn)
	assert.Equal(t, "welcome", welcome.Type)
	assert.Equal(t, "tab", welcome.SessionID)
	require.Eventually(t, func() bool { return hub.ClientCount("tab") == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Command{Type: CommandBet, Amount: 10}))
	reply := read(t, conn)
	require.Equal(t, "snapshot", reply.Type)

	require.NoError(t, conn.WriteJSON(Command{Type: CommandStart}))
	msgs := readUntil(t, conn, "snapshot")

	var dealt []game.CardDealtEvent
	var showAt []time.Time
	for _, msg := range msgs {
		if msg.Type != game.EventTypeCardDealt.String() {
			continue
		}
		var e game.CardDealtEvent
		require.NoError(t, json.Unmarshal(msg.Data, &e))
		dealt = append(dealt, e)
		require.NotNil(t, msg.ShowAt)
		showAt = append(showAt, *msg.ShowAt)
	}
	require.Len(t, dealt, 4)
	assert.Equal(t, game.OwnerDealer, dealt[3].Owner)
	assert.False(t, dealt[3].FaceUp)
	assert.True(t, dealt[3].Card.IsZero(), "the hole card never goes over the wire")
	for i := 1; i < len(showAt); i++ {
		assert.Equal(t, 700*time.Millisecond, showAt[i].Sub(showAt[i-1]))
	}

	var snapshot game.Snapshot
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].Data, &snapshot))
	assert.Equal(t, game.PhasePlayerTurn, snapshot.Phase)

	require.NoError(t, conn.WriteJSON(Command{Type: CommandHit}))
	msgs = readUntil(t, conn, "snapshot")
	types := make([]string, len(msgs))
	for i, msg := range msgs {
		types[i] = msg.Type
	}
	assert.Contains(t, types, game.EventTypeRoundSettled.String(), "16 plus a king busts")

	require.NoError(t, conn.WriteJSON(Command{Type: CommandHit}))
	reply = read(t, conn)
	assert.Equal(t, "error", reply.Type)
}

func TestWebSocketRequiresSession(t *testing.T) {
	hub := startHub(t)
	ts := newTestServer(t, hub)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketUnknownSessionReportsError(t *testing.T) {
	hub := startHub(t)
	ts := newTestServer(t, hub)
	server := httptest.NewServer(ts.router)
	defer server.Close()

	conn := dial(t, server, "ghost")
	assert.Equal(t, "welcome", read(t, conn).Type)
	require.Eventually(t, func() bool { return hub.ClientCount("ghost") == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Command{Type: CommandHit}))
	reply := read(t, conn)
	assert.Equal(t, "error", reply.Type)

	var body errorBody
	require.NoError(t, json.Unmarshal(reply.Data, &body))
	assert.Contains(t, body.Error, "session not found")
}
