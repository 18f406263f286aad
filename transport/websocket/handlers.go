package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/t3ttt/internal/apperror"
	"github.com/rocketscienceinc/t3ttt/internal/entity"
	"github.com/rocketscienceinc/t3ttt/internal/render"
)

// dispatch runs the handler for msg and answers with the resulting board or an error.
// Only a failed write is returned, handler errors go back to the client.
func (that *Server) dispatch(ctx context.Context, conn *websocket.Conn, sessionID string, msg *Message) error {
	log := that.logger.With("method", "dispatch", "session_id", sessionID, "action", msg.Action)

	handler, ok := that.handlers[msg.Action]
	if !ok {
		log.Warn("unknown action")
		return that.sendError(conn, msg.Action, fmt.Sprintf("%v: %q", apperror.ErrUnknownAction, msg.Action))
	}

	board, err := handler(ctx, sessionID, msg)
	if err != nil {
		if !errors.Is(err, apperror.ErrInvalidField) && !errors.Is(err, apperror.ErrMissingPayload) {
			log.Error("failed to process message", "error", err)
		}

		return that.sendError(conn, msg.Action, clientError(err))
	}

	return that.sendBoard(conn, msg.Action, sessionID, board)
}

func (that *Server) handleGetBoard(ctx context.Context, sessionID string, _ *Message) (entity.Board, error) {
	board, err := that.gameManager.GetBoard(ctx, sessionID)
	if err != nil {
		return entity.Board{}, fmt.Errorf("failed to get board: %w", err)
	}

	return board, nil
}

func (that *Server) handleClaimField(ctx context.Context, sessionID string, msg *Message) (entity.Board, error) {
	var payload claimPayload

	if len(msg.Payload) == 0 {
		return entity.Board{}, apperror.ErrMissingPayload
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return entity.Board{}, fmt.Errorf("%w: %w", apperror.ErrInvalidField, err)
	}

	if payload.Row == nil || payload.Col == nil {
		return entity.Board{}, fmt.Errorf("%w: row and col are required", apperror.ErrMissingPayload)
	}

	board, err := that.gameManager.ClaimField(ctx, sessionID, *payload.Row, *payload.Col)
	if err != nil {
		return entity.Board{}, fmt.Errorf("failed to claim field: %w", err)
	}

	return board, nil
}

func (that *Server) handleClearBoard(ctx context.Context, sessionID string, _ *Message) (entity.Board, error) {
	board, err := that.gameManager.ClearBoard(ctx, sessionID)
	if err != nil {
		return entity.Board{}, fmt.Errorf("failed to clear board: %w", err)
	}

	return board, nil
}

// clientError hides internal failures from the page.
func clientError(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidField):
		return apperror.ErrInvalidField.Error()
	case errors.Is(err, apperror.ErrMissingPayload):
		return apperror.ErrMissingPayload.Error()
	case errors.Is(err, apperror.ErrSessionNotFound):
		return apperror.ErrSessionNotFound.Error()
	default:
		return "internal error"
	}
}

func (that *Server) sendBoard(conn *websocket.Conn, action, sessionID string, board entity.Board) error {
	return that.sendMessage(conn, action, ResponsePayload{
		SessionID: sessionID,
		Board:     render.NewBoardView(board),
	})
}

func (that *Server) sendError(conn *websocket.Conn, action, errorMsg string) error {
	if err := that.sendMessage(conn, action, ResponsePayload{Error: errorMsg}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

func (that *Server) sendMessage(conn *websocket.Conn, action string, payload ResponsePayload) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err = conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err = conn.WriteJSON(Message{Action: action, Payload: payloadJSON}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
