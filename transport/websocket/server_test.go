package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/t3ttt/internal/apperror"
	"github.com/rocketscienceinc/t3ttt/internal/entity"
	"github.com/rocketscienceinc/t3ttt/internal/metrics"
	"github.com/rocketscienceinc/t3ttt/internal/repository"
	"github.com/rocketscienceinc/t3ttt/internal/usecase"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func newTestServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	return startServer(t, context.Background(), time.Minute, pingPeriod)
}

func startServer(t *testing.T, ctx context.Context, ttl, keepAlive time.Duration) (*httptest.Server, *prometheus.Registry) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	manager := usecase.NewGameManager(logger, repository.NewMemorySessionRepository(ttl), metrics.New(registry))

	server := New(logger, manager)
	server.pingPeriod = keepAlive

	srv := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(srv.Close)

	return srv, registry
}

func dial(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	t.Cleanup(func() { conn.Close() })

	return &testClient{t: t, conn: conn}
}

func (that *testClient) send(action string, payload any) {
	that.t.Helper()

	msg := Message{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(that.t, err)
		msg.Payload = raw
	}

	require.NoError(that.t, that.conn.WriteJSON(msg))
}

func (that *testClient) sendRaw(data string) {
	that.t.Helper()

	require.NoError(that.t, that.conn.WriteMessage(websocket.TextMessage, []byte(data)))
}

func (that *testClient) read() (string, ResponsePayload) {
	that.t.Helper()

	require.NoError(that.t, that.conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg Message
	require.NoError(that.t, that.conn.ReadJSON(&msg))

	var payload ResponsePayload
	require.NoError(that.t, json.Unmarshal(msg.Payload, &payload))

	return msg.Action, payload
}

func (that *testClient) claim(row, col int) ResponsePayload {
	that.t.Helper()

	that.send(actionClaim, map[string]int{"row": row, "col": col})
	action, payload := that.read()
	require.Equal(that.t, actionClaim, action)

	return payload
}

func TestServer_Connect(t *testing.T) {
	// Given: a running server
	srv, _ := newTestServer(t)

	// When: a client connects
	client := dial(t, srv)
	action, payload := client.read()

	// Then: the client receives a session with a new board
	assert.Equal(t, actionConnect, action)
	assert.NotEmpty(t, payload.SessionID)
	require.NotNil(t, payload.Board)
	assert.Equal(t, [][]string{{" ", " ", " "}, {" ", " ", " "}, {" ", " ", " "}}, payload.Board.Fields)
	assert.Equal(t, "X", payload.Board.Turn)
	assert.Equal(t, entity.StatusOngoing, payload.Board.Status)
	assert.Equal(t, "Turn: X", payload.Board.Label)
	assert.False(t, payload.Board.CanRestart)
	assert.Empty(t, payload.Error)
}

func TestServer_SessionsAreIndependent(t *testing.T) {
	srv, _ := newTestServer(t)

	first := dial(t, srv)
	_, firstConnect := first.read()
	second := dial(t, srv)
	_, secondConnect := second.read()

	require.NotEqual(t, firstConnect.SessionID, secondConnect.SessionID)

	first.claim(1, 1)

	second.send(actionGet, nil)
	_, payload := second.read()
	require.NotNil(t, payload.Board)
	assert.Equal(t, " ", payload.Board.Fields[1][1])
}

func TestServer_Game(t *testing.T) {
	t.Run("X wins the first row", func(t *testing.T) {
		// Given: a connected client
		srv, registry := newTestServer(t)
		client := dial(t, srv)
		_, connect := client.read()

		// When: X takes the first row while O plays elsewhere
		var payload ResponsePayload
		for _, field := range [][2]int{{0, 0}, {1, 1}, {0, 1}, {2, 2}, {0, 2}} {
			payload = client.claim(field[0], field[1])
			require.Empty(t, payload.Error)
		}

		// Then: X is reported as the winner and a restart is offered
		require.NotNil(t, payload.Board)
		assert.Equal(t, connect.SessionID, payload.SessionID)
		assert.Equal(t, []string{"X", "X", "X"}, payload.Board.Fields[0])
		assert.Equal(t, entity.StatusWon, payload.Board.Status)
		assert.Equal(t, "X", payload.Board.Winner)
		assert.Equal(t, "Winner: X", payload.Board.Label)
		assert.True(t, payload.Board.CanRestart)

		finished, err := testutil.GatherAndCount(registry, "t3ttt_games_finished_total")
		require.NoError(t, err)
		assert.Equal(t, 1, finished)
	})

	t.Run("Claims on taken fields are ignored", func(t *testing.T) {
		srv, _ := newTestServer(t)
		client := dial(t, srv)
		client.read()

		before := client.claim(0, 0)
		after := client.claim(0, 0)

		assert.Empty(t, after.Error)
		assert.Equal(t, before.Board, after.Board)
		assert.Equal(t, "O", after.Board.Turn)
	})

	t.Run("Clear resets the board", func(t *testing.T) {
		srv, _ := newTestServer(t)
		client := dial(t, srv)
		client.read()
		client.claim(2, 2)

		client.send(actionClear, nil)
		action, payload := client.read()

		assert.Equal(t, actionClear, action)
		require.NotNil(t, payload.Board)
		assert.Equal(t, " ", payload.Board.Fields[2][2])
		assert.Equal(t, "X", payload.Board.Turn)
	})
}

func TestServer_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	client := dial(t, srv)
	client.read()

	t.Run("Field outside the board", func(t *testing.T) {
		payload := client.claim(3, 0)

		assert.Equal(t, apperror.ErrInvalidField.Error(), payload.Error)
		assert.Nil(t, payload.Board)
	})

	t.Run("Claim without coordinates", func(t *testing.T) {
		client.send(actionClaim, map[string]int{"row": 1})
		_, payload := client.read()

		assert.Equal(t, apperror.ErrMissingPayload.Error(), payload.Error)
	})

	t.Run("Claim without payload", func(t *testing.T) {
		client.send(actionClaim, nil)
		_, payload := client.read()

		assert.Equal(t, apperror.ErrMissingPayload.Error(), payload.Error)
	})

	t.Run("Unknown action", func(t *testing.T) {
		client.send("board:flip", nil)
		action, payload := client.read()

		assert.Equal(t, "board:flip", action)
		assert.Contains(t, payload.Error, apperror.ErrUnknownAction.Error())
	})

	t.Run("Malformed message", func(t *testing.T) {
		client.sendRaw("{not json")
		_, payload := client.read()

		assert.Equal(t, "malformed message", payload.Error)
	})

	t.Run("Connection stays usable after errors", func(t *testing.T) {
		client.send(actionGet, nil)
		_, payload := client.read()

		assert.Empty(t, payload.Error)
		require.NotNil(t, payload.Board)
		assert.Equal(t, "X", payload.Board.Turn)
	})
}

func TestServer_IdleConnectionKeepsItsBoard(t *testing.T) {
	// Given: sessions that expire after 100ms and a connection renewed every 20ms
	srv, _ := startServer(t, context.Background(), 100*time.Millisecond, 20*time.Millisecond)
	client := dial(t, srv)
	client.read()
	client.claim(0, 0)

	// When: the page stays open but idle for longer than the ttl
	time.Sleep(300 * time.Millisecond)

	// Then: the board is still there
	client.send(actionGet, nil)
	_, payload := client.read()

	require.Empty(t, payload.Error)
	require.NotNil(t, payload.Board)
	assert.Equal(t, "X", payload.Board.Fields[0][0])
	assert.Equal(t, "O", payload.Board.Turn)

	client.send(actionClear, nil)
	_, payload = client.read()

	require.Empty(t, payload.Error)
	assert.Equal(t, " ", payload.Board.Fields[0][0])
}

func TestServer_ShutdownClosesConnections(t *testing.T) {
	// Given: an open connection
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv, _ := startServer(t, ctx, time.Minute, pingPeriod)
	client := dial(t, srv)
	client.read()

	// When: the server context is canceled
	cancel()

	// Then: the client is disconnected well before the read deadline
	require.NoError(t, client.conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	_, _, err := client.conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}
