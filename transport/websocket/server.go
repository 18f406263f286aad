package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/t3ttt/internal/entity"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
	maxMessageSize  = 4096
	shutdownTimeout = 5 * time.Second
)

type gameManager interface {
	StartSession(ctx context.Context) (string, entity.Board, error)
	GetBoard(ctx context.Context, sessionID string) (entity.Board, error)
	ClaimField(ctx context.Context, sessionID string, i, j int) (entity.Board, error)
	ClearBoard(ctx context.Context, sessionID string) (entity.Board, error)
	TouchSession(ctx context.Context, sessionID string) error
	EndSession(ctx context.Context, sessionID string) error
}

type handlerFunc func(ctx context.Context, sessionID string, msg *Message) (entity.Board, error)

type Server struct {
	logger      *slog.Logger
	gameManager gameManager
	upgrader    websocket.Upgrader

	// pingPeriod is also how often the session of an open connection is renewed.
	pingPeriod time.Duration

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameManager gameManager) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameManager: gameManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pingPeriod: pingPeriod,
	}

	server.handlers = map[string]handlerFunc{
		actionGet:   server.handleGetBoard,
		actionClaim: server.handleClaimField,
		actionClear: server.handleClearBoard,
	}

	return server
}

// Handler - returns the handler serving the /ws endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveWS(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveWS - upgrades the connection and binds a fresh board session to it for its whole lifetime.
func (that *Server) serveWS(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	sessionID, board, err := that.gameManager.StartSession(ctx)
	if err != nil {
		log.Error("failed to start session", "error", err)
		_ = that.sendError(conn, actionConnect, "failed to start a session")
		return
	}

	log = log.With("session_id", sessionID)
	log.Info("WebSocket connection established")

	defer func() {
		// the request context may already be canceled here
		if err := that.gameManager.EndSession(context.Background(), sessionID); err != nil {
			log.Error("failed to end session", "error", err)
		}

		log.Info("WebSocket connection closed")
	}()

	if err = that.sendBoard(conn, actionConnect, sessionID, board); err != nil {
		log.Error("failed to send connect message", "error", err)
		return
	}

	done := make(chan struct{})
	defer close(done)

	go that.keepAlive(ctx, conn, sessionID, done)

	if err = that.handleMessages(ctx, conn, sessionID); err != nil {
		log.Info("stopped reading messages", "error", err)
	}
}

// handleMessages - processes messages from the client one at a time.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn, sessionID string) error {
	log := that.logger.With("method", "handleMessages", "session_id", sessionID)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			if err = that.sendError(conn, "", "malformed message"); err != nil {
				return err
			}
			continue
		}

		if err = that.dispatch(ctx, conn, sessionID, &message); err != nil {
			return err
		}
	}
}

// keepAlive pings the client and renews its session until the connection ends.
// When ctx is canceled it closes the connection, which unblocks the read loop.
func (that *Server) keepAlive(ctx context.Context, conn *websocket.Conn, sessionID string, done <-chan struct{}) {
	log := that.logger.With("method", "keepAlive", "session_id", sessionID)

	ticker := time.NewTicker(that.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
			_ = conn.Close()

			return
		case <-ticker.C:
			if err := that.gameManager.TouchSession(ctx, sessionID); err != nil {
				log.Warn("failed to renew session", "error", err)
			}

			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
