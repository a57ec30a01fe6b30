package domino

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
)

// Pusher delivers events to a connected client. The engine addresses
// participants individually; redacted views are per-viewer and must not be
// fanned out room-wide.
type Pusher interface {
	ToUser(userID, event string, payload any)
}

// ResultRecorder settles a concluded match: closes the durable record,
// pays out and clears player sessions.
type ResultRecorder interface {
	RecordResult(ctx context.Context, state *entity.MatchState, reason string) error
}

// Engine is the authoritative per-match state machine: it validates and
// applies moves, rotates turns, runs the turn timers and concludes matches.
type Engine struct {
	logger *slog.Logger

	store    *Store
	pusher   Pusher
	recorder ResultRecorder

	turnDuration time.Duration

	timersMutex sync.Mutex
	timers      map[string]*time.Timer
	closed      bool

	// concludeHook is invoked after any match conclusion; the forfeit
	// supervisor hangs its timer cleanup here.
	concludeHook func(matchID string)
}

func NewEngine(logger *slog.Logger, store *Store, pusher Pusher, recorder ResultRecorder, turnDuration time.Duration) *Engine {
	return &Engine{
		logger:       logger.With("component", "domino_engine"),
		store:        store,
		pusher:       pusher,
		recorder:     recorder,
		turnDuration: turnDuration,
		timers:       make(map[string]*time.Timer),
	}
}

// SetConcludeHook - registers a callback fired once per match conclusion.
func (that *Engine) SetConcludeHook(hook func(matchID string)) {
	that.concludeHook = hook
}

// CreateMatch - builds and stores fresh state for a paired match. The turn
// timer is started separately by the caller once both players were notified.
func (that *Engine) CreateMatch(matchID, player1ID, player2ID string) {
	state := entity.NewMatchState(matchID, player1ID, player2ID, that.turnDuration)
	that.store.Put(state)

	that.logger.Info("match created",
		"matchID", matchID, "player1ID", player1ID, "player2ID", player2ID, "starter", state.TurnUserID)
}

// PublicState - returns the redacted snapshot for one viewer.
func (that *Engine) PublicState(matchID, viewerID string) (*entity.PublicState, error) {
	var view *entity.PublicState

	err := that.store.View(matchID, func(state *entity.MatchState) {
		view = state.PublicView(viewerID)
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// IsPlaying - reports whether the match has live state and is still running.
func (that *Engine) IsPlaying(matchID string) bool {
	playing := false

	_ = that.store.View(matchID, func(state *entity.MatchState) {
		playing = state.IsPlaying()
	})

	return playing
}

// OpponentOf - resolves the other participant of a live match.
func (that *Engine) OpponentOf(matchID, userID string) (string, bool) {
	opponent := ""

	_ = that.store.View(matchID, func(state *entity.MatchState) {
		if state.HasPlayer(userID) {
			opponent = state.Opponent(userID)
		}
	})

	return opponent, opponent != ""
}

// HasPlayer - reports whether the user participates in a live match.
func (that *Engine) HasPlayer(matchID, userID string) bool {
	participates := false

	_ = that.store.View(matchID, func(state *entity.MatchState) {
		participates = state.HasPlayer(userID)
	})

	return participates
}

// OnPlayerMove - validates and applies a manual move, then runs the
// win-check / advance-turn / broadcast sequence. Validation failures come
// back as apperror sentinels whose text is the wire reason.
func (that *Engine) OnPlayerMove(ctx context.Context, matchID, userID string, move entity.Move) (MoveResult, error) {
	var result MoveResult

	err := that.store.Update(matchID, func(state *entity.MatchState) error {
		if err := validateMove(state, userID, move); err != nil {
			return err
		}

		applyMove(state, userID, move)

		if len(state.Hand(userID)) == 0 {
			that.conclude(ctx, state, ReasonPlayerWin, userID)
			result = MoveResult{Finished: true, WinnerID: userID}
			return nil
		}

		if blockedReason, blockedWinner, blocked := resolveBlocked(state); blocked {
			that.conclude(ctx, state, blockedReason, blockedWinner)
			result = MoveResult{Finished: true, WinnerID: blockedWinner}
			return nil
		}

		state.AdvanceTurn(that.turnDuration)
		that.scheduleTurnTimer(matchID, that.turnDuration)
		that.broadcastState(state, ReasonPlayerMove, "")

		return nil
	})

	return result, err
}

// FinishByForfeit - awards the match to the remaining player after the
// disconnect grace period. A no-op on an already-finished match.
func (that *Engine) FinishByForfeit(ctx context.Context, matchID, winnerID, loserID string) {
	err := that.store.Update(matchID, func(state *entity.MatchState) error {
		if !state.IsPlaying() {
			return nil
		}

		that.conclude(ctx, state, ReasonForfeitDisconnect, winnerID)

		return nil
	})
	if err != nil {
		that.logger.Warn("forfeit on unknown match", "matchID", matchID, "error", err)
	}
}

// StartTurnTimer - arms the one-shot deadline timer for the current turn.
func (that *Engine) StartTurnTimer(matchID string) {
	that.scheduleTurnTimer(matchID, that.turnDuration)
}

// Close - stops every pending turn timer; used on shutdown and in tests.
func (that *Engine) Close() {
	that.timersMutex.Lock()
	defer that.timersMutex.Unlock()

	that.closed = true

	for matchID, timer := range that.timers {
		timer.Stop()
		delete(that.timers, matchID)
	}
}

func (that *Engine) scheduleTurnTimer(matchID string, in time.Duration) {
	that.timersMutex.Lock()
	defer that.timersMutex.Unlock()

	if that.closed {
		return
	}

	if timer, ok := that.timers[matchID]; ok {
		timer.Stop()
	}

	that.timers[matchID] = time.AfterFunc(in, func() {
		that.onTurnTimeout(matchID)
	})
}

func (that *Engine) clearTurnTimer(matchID string) {
	that.timersMutex.Lock()
	defer that.timersMutex.Unlock()

	if timer, ok := that.timers[matchID]; ok {
		timer.Stop()
		delete(that.timers, matchID)
	}
}

// onTurnTimeout - fires when the turn deadline passes without a manual
// move. Status and expiry are re-checked under the match lock so a move
// that just landed cannot be doubled by a stale timer.
func (that *Engine) onTurnTimeout(matchID string) {
	err := that.store.Update(matchID, func(state *entity.MatchState) error {
		if !state.IsPlaying() {
			return nil
		}

		if remaining := time.Until(state.TurnExpiresAt); remaining > 0 {
			// the turn already advanced; rearm for the new deadline
			that.scheduleTurnTimer(matchID, remaining)
			return nil
		}

		that.autoMove(context.Background(), state)

		return nil
	})
	if err != nil {
		that.logger.Debug("turn timeout on evicted match", "matchID", matchID)
	}
}

// autoMove - the timeout fallback: play the first tile that fits (left side
// preferred), otherwise draw, otherwise pass.
func (that *Engine) autoMove(ctx context.Context, state *entity.MatchState) {
	userID := state.TurnUserID

	for _, tile := range state.Hand(userID) {
		side := ""
		switch {
		case state.Board.CanPlay(tile, entity.SideLeft):
			side = entity.SideLeft
		case state.Board.CanPlay(tile, entity.SideRight):
			side = entity.SideRight
		default:
			continue
		}

		played := tile
		applyMove(state, userID, entity.Move{Type: entity.MoveTypePlay, Tile: &played, Side: side})

		if len(state.Hand(userID)) == 0 {
			that.conclude(ctx, state, ReasonTimeoutAutoPlayWin, userID)
			return
		}

		state.AdvanceTurn(that.turnDuration)
		that.scheduleTurnTimer(state.MatchID, that.turnDuration)
		that.broadcastState(state, ReasonTimeoutAutoPlay, "")

		return
	}

	if len(state.Boneyard) > 0 {
		applyMove(state, userID, entity.Move{Type: entity.MoveTypeDraw})
		state.AdvanceTurn(that.turnDuration)
		that.scheduleTurnTimer(state.MatchID, that.turnDuration)
		that.broadcastState(state, ReasonTimeoutAutoDraw, "")

		return
	}

	applyMove(state, userID, entity.Move{Type: entity.MoveTypePass})

	if blockedReason, blockedWinner, blocked := resolveBlocked(state); blocked {
		that.conclude(ctx, state, blockedReason, blockedWinner)
		return
	}

	state.AdvanceTurn(that.turnDuration)
	that.scheduleTurnTimer(state.MatchID, that.turnDuration)
	that.broadcastState(state, ReasonTimeoutAutoPass, "")
}

// conclude - the single exit path for every match: finish, cancel the turn
// timer, settle, broadcast the terminal event and evict the live state.
// Runs under the match lock.
func (that *Engine) conclude(ctx context.Context, state *entity.MatchState, reason, winnerID string) {
	state.Finish(winnerID)
	that.clearTurnTimer(state.MatchID)

	if err := that.recorder.RecordResult(ctx, state, reason); err != nil {
		that.logger.Error("failed to settle match", "matchID", state.MatchID, "error", err)
	}

	loserID := ""
	if winnerID != "" {
		loserID = state.Opponent(winnerID)
	}

	for _, playerID := range []string{state.Player1ID, state.Player2ID} {
		that.pusher.ToUser(playerID, EventMatchFinished, MatchFinishedEvent{
			MatchID:  state.MatchID,
			WinnerID: winnerID,
			LoserID:  loserID,
			Reason:   reason,
			State:    state.PublicView(playerID),
		})
	}

	that.store.Delete(state.MatchID)

	if that.concludeHook != nil {
		that.concludeHook(state.MatchID)
	}

	that.logger.Info("match concluded", "matchID", state.MatchID, "reason", reason, "winnerID", winnerID)
}

// broadcastState - pushes each participant their own redacted view. Going
// through the per-user channel instead of the match room keeps one player's
// hand out of the other's frames.
func (that *Engine) broadcastState(state *entity.MatchState, reason, winnerID string) {
	for _, playerID := range []string{state.Player1ID, state.Player2ID} {
		that.pusher.ToUser(playerID, EventState, StateEvent{
			MatchID:  state.MatchID,
			Reason:   reason,
			State:    state.PublicView(playerID),
			WinnerID: winnerID,
		})
	}
}

// validateMove - pure legality check, no mutation.
func validateMove(state *entity.MatchState, userID string, move entity.Move) error {
	if !state.IsPlaying() {
		return apperror.ErrMatchFinished
	}

	if state.TurnUserID != userID {
		return apperror.ErrNotYourTurn
	}

	switch move.Type {
	case entity.MoveTypePlay:
		return validatePlay(state, userID, move)

	case entity.MoveTypeDraw:
		if len(state.Boneyard) == 0 {
			return apperror.ErrBoneyardEmpty
		}
		if state.Board.HasAnyPlay(state.Hand(userID)) {
			return apperror.ErrYouHaveAPlay
		}
		return nil

	case entity.MoveTypePass:
		if len(state.Boneyard) > 0 {
			return apperror.ErrMustDraw
		}
		if state.Board.HasAnyPlay(state.Hand(userID)) {
			return apperror.ErrYouHaveAPlay
		}
		return nil

	default:
		return apperror.ErrInvalidMove
	}
}

func validatePlay(state *entity.MatchState, userID string, move entity.Move) error {
	if move.Tile == nil {
		return apperror.ErrInvalidTile
	}

	if move.Side != entity.SideLeft && move.Side != entity.SideRight {
		return apperror.ErrInvalidSide
	}

	inHand := false
	for _, held := range state.Hand(userID) {
		if held.Equals(*move.Tile) {
			inHand = true
			break
		}
	}
	if !inHand {
		return apperror.ErrTileNotInHand
	}

	if !state.Board.CanPlay(*move.Tile, move.Side) {
		if move.Side == entity.SideLeft {
			return apperror.ErrCannotPlayLeft
		}
		return apperror.ErrCannotPlayRight
	}

	return nil
}

// applyMove - mutates state for an already-validated move.
func applyMove(state *entity.MatchState, userID string, move entity.Move) {
	switch move.Type {
	case entity.MoveTypePlay:
		state.RemoveFromHand(userID, *move.Tile)

		if state.Board.IsEmpty() {
			state.Board.Place(*move.Tile, move.Side)
		} else {
			oriented, _ := state.Board.OrientFor(*move.Tile, move.Side)
			state.Board.Place(oriented, move.Side)
		}

		state.PassStreak = 0

	case entity.MoveTypeDraw:
		state.DrawTile(userID)
		state.PassStreak = 0

	case entity.MoveTypePass:
		state.PassStreak++
	}
}

// resolveBlocked - two consecutive passes with an empty boneyard mean
// neither player can ever move again: the lower pip total wins, an equal
// total is a draw.
func resolveBlocked(state *entity.MatchState) (string, string, bool) {
	if state.PassStreak < 2 || len(state.Boneyard) > 0 {
		return "", "", false
	}

	total1 := state.PipTotal(state.Player1ID)
	total2 := state.PipTotal(state.Player2ID)

	switch {
	case total1 < total2:
		return ReasonBlockedLowestPips, state.Player1ID, true
	case total2 < total1:
		return ReasonBlockedLowestPips, state.Player2ID, true
	default:
		return ReasonBlockedDraw, "", true
	}
}
