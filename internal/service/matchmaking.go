package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
	"github.com/sawaplay/domino-backend/internal/repository"
)

// Matchmaking outcomes on the wire.
const (
	StatusMatched          = "matched"
	StatusWaiting          = "waiting"
	StatusAlreadySearching = "already_searching"
	StatusCanceled         = "canceled"
)

type MatchmakingResult struct {
	Status  string `json:"status"`
	MatchID string `json:"matchId,omitempty"`
}

type CancelResult struct {
	Status   string `json:"status"`
	Refunded int64  `json:"refunded"`
}

// liveMatches is the slice of the game engine matchmaking needs: build live
// state for a fresh pairing and arm its first turn timer.
type liveMatches interface {
	CreateMatch(matchID, player1ID, player2ID string)
	PublicState(matchID, viewerID string) (*entity.PublicState, error)
	StartTurnTimer(matchID string)
}

type MatchmakingService interface {
	RequestMatch(ctx context.Context, userID string) (*MatchmakingResult, error)
	CancelSearch(ctx context.Context, userID string) (*CancelResult, error)
}

type matchmakingService struct {
	logger *slog.Logger

	db       *sql.DB
	users    repository.UserRepository
	queue    repository.QueueRepository
	matches  repository.MatchRepository
	players  repository.PlayerRepository
	settings repository.SettingsRepository

	engine liveMatches
	pusher Pusher
}

func NewMatchmakingService(
	logger *slog.Logger,
	db *sql.DB,
	users repository.UserRepository,
	queue repository.QueueRepository,
	matches repository.MatchRepository,
	players repository.PlayerRepository,
	settings repository.SettingsRepository,
	engine liveMatches,
	pusher Pusher,
) MatchmakingService {
	return &matchmakingService{
		logger:   logger.With("component", "matchmaking"),
		db:       db,
		users:    users,
		queue:    queue,
		matches:  matches,
		players:  players,
		settings: settings,
		engine:   engine,
		pusher:   pusher,
	}
}

// RequestMatch - stakes the entry fee, enqueues the user and pairs them with
// the longest-waiting opponent when one exists. The debit, the queue upsert,
// the pairing and the durable match record all commit in one transaction;
// live state and notifications happen only after the commit.
func (that *matchmakingService) RequestMatch(ctx context.Context, userID string) (*MatchmakingResult, error) {
	existing, err := that.queue.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrQueueEntryNotFound) {
		return nil, fmt.Errorf("failed to check queue: %w", err)
	}
	if existing != nil && existing.Status == entity.QueueStatusSearching {
		return &MatchmakingResult{Status: StatusAlreadySearching}, nil
	}

	entryFee, err := that.settings.GetInt64(ctx, repository.SettingEntryFee, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry fee: %w", err)
	}

	winFee, err := that.settings.GetInt64(ctx, repository.SettingWinFee, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read win fee: %w", err)
	}

	matchID, opponentID, err := that.stakeAndPair(ctx, userID, entryFee, winFee)
	if err != nil {
		return nil, err
	}

	if matchID == "" {
		return &MatchmakingResult{Status: StatusWaiting}, nil
	}

	that.launchMatch(ctx, matchID, opponentID, userID)

	return &MatchmakingResult{Status: StatusMatched, MatchID: matchID}, nil
}

// stakeAndPair - the transactional half of RequestMatch. Returns an empty
// match id when the user stays enqueued.
func (that *matchmakingService) stakeAndPair(ctx context.Context, userID string, entryFee, winFee int64) (string, string, error) {
	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	users := that.users.WithTx(tx)
	queue := that.queue.WithTx(tx)
	matches := that.matches.WithTx(tx)

	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}

	if user.Sawa < entryFee {
		return "", "", apperror.ErrInsufficientBalance
	}

	if err = users.AdjustBalance(ctx, userID, -entryFee); err != nil {
		return "", "", fmt.Errorf("failed to debit entry fee: %w", err)
	}

	if err = queue.UpsertSearching(ctx, userID, entryFee); err != nil {
		return "", "", fmt.Errorf("failed to enqueue: %w", err)
	}

	opponent, err := queue.FindOldestSearchingExcept(ctx, userID)
	if errors.Is(err, repository.ErrQueueEntryNotFound) {
		if err = tx.Commit(); err != nil {
			return "", "", fmt.Errorf("failed to commit: %w", err)
		}
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to find opponent: %w", err)
	}

	affected, err := queue.MarkMatched(ctx, userID, opponent.UserID)
	if err != nil {
		return "", "", fmt.Errorf("failed to mark matched: %w", err)
	}

	// anything but two rows means a concurrent pairing won the race; the
	// user stays enqueued and keeps waiting
	if affected != 2 {
		if err = tx.Commit(); err != nil {
			return "", "", fmt.Errorf("failed to commit: %w", err)
		}
		return "", "", nil
	}

	matchID := uuid.NewString()

	err = matches.Create(ctx, &entity.MatchRecord{
		ID:        matchID,
		Player1ID: opponent.UserID,
		Player2ID: userID,
		EntryFee:  entryFee,
		WinFee:    winFee,
		Status:    entity.StatusPlaying,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to create match record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return "", "", fmt.Errorf("failed to commit: %w", err)
	}

	return matchID, opponent.UserID, nil
}

// launchMatch - post-commit: build live state, remember both sessions,
// notify both players with their own redacted view, start the clock.
func (that *matchmakingService) launchMatch(ctx context.Context, matchID, player1ID, player2ID string) {
	log := that.logger.With("method", "launchMatch", "matchID", matchID)

	that.engine.CreateMatch(matchID, player1ID, player2ID)

	for _, playerID := range []string{player1ID, player2ID} {
		err := that.players.CreateOrUpdate(ctx, &entity.Player{ID: playerID, MatchID: matchID})
		if err != nil {
			log.Error("failed to store player session", "playerID", playerID, "error", err)
		}

		view, err := that.engine.PublicState(matchID, playerID)
		if err != nil {
			log.Error("failed to build public state", "playerID", playerID, "error", err)
			continue
		}

		that.pusher.ToUser(playerID, EventMatchFound, MatchFoundEvent{MatchID: matchID, State: view})
	}

	that.engine.StartTurnTimer(matchID)

	log.Info("match launched", "player1ID", player1ID, "player2ID", player2ID)
}

// CancelSearch - flips a searching entry to canceled and refunds the staked
// fee in the same transaction. A no-op without refund when not searching.
func (that *matchmakingService) CancelSearch(ctx context.Context, userID string) (*CancelResult, error) {
	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	users := that.users.WithTx(tx)
	queue := that.queue.WithTx(tx)

	entry, err := queue.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrQueueEntryNotFound) {
		return &CancelResult{Status: StatusCanceled}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check queue: %w", err)
	}

	affected, err := queue.MarkCanceled(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel entry: %w", err)
	}

	refunded := int64(0)
	if affected == 1 {
		if err = users.AdjustBalance(ctx, userID, entry.EntryFee); err != nil {
			return nil, fmt.Errorf("failed to refund entry fee: %w", err)
		}
		refunded = entry.EntryFee
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return &CancelResult{Status: StatusCanceled, Refunded: refunded}, nil
}
