package apperror

import "errors"

// Move validation failures. The error text doubles as the wire reason code,
// so it is sent to the client as-is.
var (
	ErrMatchNotFound   = errors.New("match_not_found")
	ErrMatchFinished   = errors.New("match_finished")
	ErrNotYourTurn     = errors.New("not_your_turn")
	ErrInvalidMove     = errors.New("invalid_move")
	ErrInvalidTile     = errors.New("invalid_tile")
	ErrInvalidSide     = errors.New("invalid_side")
	ErrTileNotInHand   = errors.New("tile_not_in_hand")
	ErrCannotPlayLeft  = errors.New("cannot_play_left")
	ErrCannotPlayRight = errors.New("cannot_play_right")
	ErrBoneyardEmpty   = errors.New("boneyard_empty")
	ErrYouHaveAPlay    = errors.New("you_have_a_play")
	ErrMustDraw        = errors.New("must_draw")
)

// Matchmaking and settlement failures.
var (
	ErrUserNotFound        = errors.New("user_not_found")
	ErrInsufficientBalance = errors.New("insufficient_balance")
	ErrStateMissing        = errors.New("state_missing")
)

// Reason - returns the wire reason code for a validation error, or a
// generic code for anything unexpected.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	for _, known := range []error{
		ErrMatchNotFound, ErrMatchFinished, ErrNotYourTurn, ErrInvalidMove,
		ErrInvalidTile, ErrInvalidSide, ErrTileNotInHand, ErrCannotPlayLeft,
		ErrCannotPlayRight, ErrBoneyardEmpty, ErrYouHaveAPlay, ErrMustDraw,
		ErrUserNotFound, ErrInsufficientBalance, ErrStateMissing,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return "internal_error"
}
