package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sawaplay/domino-backend/internal/domino"
	"github.com/sawaplay/domino-backend/internal/entity"
	"github.com/sawaplay/domino-backend/internal/repository"
)

// SettlementService closes the durable side of a concluded match: the match
// record, the win payout (or draw refunds) and the live session records.
// It implements the engine's ResultRecorder.
type SettlementService struct {
	logger *slog.Logger

	db      *sql.DB
	users   repository.UserRepository
	matches repository.MatchRepository
	players repository.PlayerRepository
}

func NewSettlementService(
	logger *slog.Logger,
	db *sql.DB,
	users repository.UserRepository,
	matches repository.MatchRepository,
	players repository.PlayerRepository,
) *SettlementService {
	return &SettlementService{
		logger:  logger.With("component", "settlement"),
		db:      db,
		users:   users,
		matches: matches,
		players: players,
	}
}

// finalSnapshot is the serialized end state stored on the match record.
// Hands are included: the match is over, nothing is secret anymore.
type finalSnapshot struct {
	MatchID  string                   `json:"matchId"`
	Reason   string                   `json:"reason"`
	Hands    map[string][]entity.Tile `json:"hands"`
	Boneyard []entity.Tile            `json:"boneyard"`
	Board    entity.Board             `json:"board"`
	WinnerID string                   `json:"winnerId,omitempty"`
}

// RecordResult - marks the match record finished with its winner and final
// snapshot, credits the win fee (or refunds both entry fees on a blocked
// draw), then drops both players' session records.
func (that *SettlementService) RecordResult(ctx context.Context, state *entity.MatchState, reason string) error {
	snapshot, err := json.Marshal(finalSnapshot{
		MatchID:  state.MatchID,
		Reason:   reason,
		Hands:    state.Hands,
		Boneyard: state.Boneyard,
		Board:    state.Board,
		WinnerID: state.WinnerID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal final snapshot: %w", err)
	}

	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	users := that.users.WithTx(tx)
	matches := that.matches.WithTx(tx)

	record, err := matches.GetByID(ctx, state.MatchID)
	if err != nil {
		return fmt.Errorf("failed to load match record: %w", err)
	}

	if err = matches.Finish(ctx, state.MatchID, state.WinnerID, snapshot); err != nil {
		return fmt.Errorf("failed to finish match record: %w", err)
	}

	switch {
	case state.WinnerID != "" && record.WinFee > 0:
		if err = users.AdjustBalance(ctx, state.WinnerID, record.WinFee); err != nil {
			return fmt.Errorf("failed to credit win fee: %w", err)
		}

	case state.WinnerID == "" && record.EntryFee > 0:
		// a draw returns both stakes
		for _, playerID := range []string{record.Player1ID, record.Player2ID} {
			if err = users.AdjustBalance(ctx, playerID, record.EntryFee); err != nil {
				return fmt.Errorf("failed to refund entry fee: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	for _, playerID := range []string{state.Player1ID, state.Player2ID} {
		if err = that.players.DeleteByID(ctx, playerID); err != nil {
			that.logger.Error("failed to clear player session", "playerID", playerID, "error", err)
		}
	}

	that.logger.Info("match settled",
		"matchID", state.MatchID, "reason", reason, "winnerID", state.WinnerID)

	return nil
}

var _ domino.ResultRecorder = (*SettlementService)(nil)
