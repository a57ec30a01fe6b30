package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
	"github.com/sawaplay/domino-backend/internal/repository"
)

// Reconnection modes returned by Resume.
const (
	ModeSearching = "searching"
	ModeMatched   = "matched"
	ModeIdle      = "idle"
)

type ResumeResult struct {
	Mode    string              `json:"mode"`
	MatchID string              `json:"matchId,omitempty"`
	State   *entity.PublicState `json:"state,omitempty"`
}

// stateReader is the slice of the game engine resume needs.
type stateReader interface {
	PublicState(matchID, viewerID string) (*entity.PublicState, error)
}

// ResumeService reconciles a reconnecting client: queue entry first, then
// session record, then active match records. A playing record with no live
// state is a restart leftover and gets closed with no winner.
type ResumeService struct {
	logger *slog.Logger

	queue   repository.QueueRepository
	matches repository.MatchRepository
	players repository.PlayerRepository
	engine  stateReader
}

func NewResumeService(
	logger *slog.Logger,
	queue repository.QueueRepository,
	matches repository.MatchRepository,
	players repository.PlayerRepository,
	engine stateReader,
) *ResumeService {
	return &ResumeService{
		logger:  logger.With("component", "resume"),
		queue:   queue,
		matches: matches,
		players: players,
		engine:  engine,
	}
}

// Resume - figures out where a returning user belongs.
func (that *ResumeService) Resume(ctx context.Context, userID string) (*ResumeResult, error) {
	entry, err := that.queue.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrQueueEntryNotFound) {
		return nil, fmt.Errorf("failed to check queue: %w", err)
	}
	if entry != nil && entry.Status == entity.QueueStatusSearching {
		return &ResumeResult{Mode: ModeSearching}, nil
	}

	player, err := that.players.GetByID(ctx, userID)
	if err == nil && player.MatchID != "" {
		state, stateErr := that.engine.PublicState(player.MatchID, userID)
		if stateErr == nil {
			return &ResumeResult{Mode: ModeMatched, MatchID: player.MatchID, State: state}, nil
		}
	}
	if err != nil && !errors.Is(err, repository.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to check player session: %w", err)
	}

	record, err := that.matches.FindActiveByUser(ctx, userID)
	if errors.Is(err, repository.ErrMatchRecordNotFound) {
		return &ResumeResult{Mode: ModeIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check match records: %w", err)
	}

	state, err := that.engine.PublicState(record.ID, userID)
	if err == nil {
		return &ResumeResult{Mode: ModeMatched, MatchID: record.ID, State: state}, nil
	}

	that.closeOrphanRecord(ctx, record)

	return &ResumeResult{Mode: ModeIdle}, nil
}

// AttachToMatch - resolves the redacted snapshot for a user joining a match
// room. ErrMatchNotFound when the match never existed here; ErrStateMissing
// when the durable record says playing but the live state is gone (process
// restart), in which case the record is closed with no winner.
func (that *ResumeService) AttachToMatch(ctx context.Context, matchID, userID string) (*entity.PublicState, error) {
	state, err := that.engine.PublicState(matchID, userID)
	if err == nil {
		return state, nil
	}

	record, recordErr := that.matches.GetByID(ctx, matchID)
	if recordErr != nil || record.Status != entity.StatusPlaying {
		return nil, apperror.ErrMatchNotFound
	}

	that.closeOrphanRecord(ctx, record)

	return nil, apperror.ErrStateMissing
}

// closeOrphanRecord - recovery policy for records orphaned by a restart:
// finished, no winner, so the match cannot stay stuck forever.
func (that *ResumeService) closeOrphanRecord(ctx context.Context, record *entity.MatchRecord) {
	log := that.logger.With("method", "closeOrphanRecord", "matchID", record.ID)

	if err := that.matches.Finish(ctx, record.ID, "", nil); err != nil {
		log.Error("failed to close orphan match record", "error", err)
		return
	}

	for _, playerID := range []string{record.Player1ID, record.Player2ID} {
		if err := that.players.DeleteByID(ctx, playerID); err != nil {
			log.Error("failed to clear player session", "playerID", playerID, "error", err)
		}
	}

	log.Warn("closed orphan match record with no winner")
}
