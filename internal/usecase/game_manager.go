package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/t3ttt/internal/apperror"
	"github.com/rocketscienceinc/t3ttt/internal/entity"
	"github.com/rocketscienceinc/t3ttt/internal/pkg"
	"github.com/rocketscienceinc/t3ttt/internal/tictactoe"
)

type sessionRepo interface {
	Save(ctx context.Context, id string, board entity.Board) error
	GetByID(ctx context.Context, id string) (entity.Board, error)
	Touch(ctx context.Context, id string) error
	DeleteByID(ctx context.Context, id string) error
}

type gameMetrics interface {
	ClaimApplied(board entity.Board, claimed bool)
	BoardCleared()
	SessionStarted()
	SessionEnded()
}

// GameManager runs one board per page session.
type GameManager struct {
	logger *slog.Logger

	sessionRepo sessionRepo
	metrics     gameMetrics
}

func NewGameManager(logger *slog.Logger, sessionRepo sessionRepo, metrics gameMetrics) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		sessionRepo: sessionRepo,
		metrics:     metrics,
	}
}

// StartSession - creates a session holding a new board.
func (that *GameManager) StartSession(ctx context.Context) (string, entity.Board, error) {
	sessionID := pkg.GenerateNewSessionID()
	board := entity.NewBoard()

	if err := that.sessionRepo.Save(ctx, sessionID, board); err != nil {
		return "", entity.Board{}, fmt.Errorf("failed to create session: %w", err)
	}

	that.metrics.SessionStarted()
	that.logger.Debug("session started", "session_id", sessionID)

	return sessionID, board, nil
}

func (that *GameManager) GetBoard(ctx context.Context, sessionID string) (entity.Board, error) {
	board, err := that.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return entity.Board{}, fmt.Errorf("failed to get board: %w", err)
	}

	return board, nil
}

// ClaimField - claims field (i, j) for the player whose turn it is.
// Claims on a taken field or a finished game are ignored and the unchanged board is returned.
func (that *GameManager) ClaimField(ctx context.Context, sessionID string, i, j int) (entity.Board, error) {
	log := that.logger.With("method", "ClaimField", "session_id", sessionID)

	if !onBoard(i) || !onBoard(j) {
		return entity.Board{}, fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidField, i, j)
	}

	board, err := that.GetBoard(ctx, sessionID)
	if err != nil {
		return entity.Board{}, err
	}

	player := board.Turn()
	controller := tictactoe.NewGameController(board)

	board, claimed := controller.ClaimField(i, j, player)
	that.metrics.ClaimApplied(board, claimed)

	if !claimed {
		log.Debug("claim ignored", "row", i, "col", j, "over", board.IsOver())
		return board, nil
	}

	if err = that.sessionRepo.Save(ctx, sessionID, board); err != nil {
		return entity.Board{}, fmt.Errorf("failed to update board: %w", err)
	}

	log.Debug("field claimed", "row", i, "col", j, "player", player.String(), "status", board.Status())

	return board, nil
}

// ClearBoard - resets the session board.
func (that *GameManager) ClearBoard(ctx context.Context, sessionID string) (entity.Board, error) {
	board, err := that.GetBoard(ctx, sessionID)
	if err != nil {
		return entity.Board{}, err
	}

	board = tictactoe.NewGameController(board).ClearBoard()

	if err = that.sessionRepo.Save(ctx, sessionID, board); err != nil {
		return entity.Board{}, fmt.Errorf("failed to clear board: %w", err)
	}

	that.metrics.BoardCleared()
	that.logger.Debug("board cleared", "session_id", sessionID)

	return board, nil
}

// TouchSession - keeps the session board alive while its page is still connected.
func (that *GameManager) TouchSession(ctx context.Context, sessionID string) error {
	if err := that.sessionRepo.Touch(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

// EndSession - drops the session board.
func (that *GameManager) EndSession(ctx context.Context, sessionID string) error {
	that.metrics.SessionEnded()

	if err := that.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	that.logger.Debug("session ended", "session_id", sessionID)

	return nil
}

func onBoard(k int) bool {
	return k >= 0 && k < entity.Size
}
