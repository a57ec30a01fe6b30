package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/service"
)

func (that *Server) handleFindMatch(ctx context.Context, c *client, msg *Message) error {
	result, err := that.matchmaking.RequestMatch(ctx, c.userID)
	if err != nil {
		return c.send(msg.Action, ErrorResponse{OK: false, Reason: apperror.Reason(err)})
	}

	return c.send(msg.Action, FindMatchResponse{OK: true, Status: result.Status, MatchID: result.MatchID})
}

func (that *Server) handleCancelSearch(ctx context.Context, c *client, msg *Message) error {
	result, err := that.matchmaking.CancelSearch(ctx, c.userID)
	if err != nil {
		return c.send(msg.Action, ErrorResponse{OK: false, Reason: apperror.Reason(err)})
	}

	return c.send(msg.Action, CancelSearchResponse{OK: true, Status: result.Status, Refunded: result.Refunded})
}

func (that *Server) handleResume(ctx context.Context, c *client, msg *Message) error {
	result, err := that.resume.Resume(ctx, c.userID)
	if err != nil {
		return c.send(msg.Action, ErrorResponse{OK: false, Reason: apperror.Reason(err)})
	}

	return c.send(msg.Action, ResumeResponse{
		OK:      true,
		Mode:    result.Mode,
		MatchID: result.MatchID,
		State:   result.State,
	})
}

// handleJoinMatch - attaches the connection to the match room, cancels any
// pending forfeit for this user and tells the room they are back.
func (that *Server) handleJoinMatch(ctx context.Context, c *client, msg *Message) error {
	var payload JoinMatchPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	state, err := that.resume.AttachToMatch(ctx, payload.MatchID, c.userID)
	if err != nil {
		return c.send(msg.Action, ErrorResponse{OK: false, Reason: apperror.Reason(err)})
	}

	that.hub.joinRoom(payload.MatchID, c)
	c.matches[payload.MatchID] = struct{}{}

	that.forfeits.Clear(payload.MatchID, c.userID)

	that.hub.ToMatch(payload.MatchID, service.EventPlayerReconnected, service.PlayerReconnectedEvent{
		MatchID: payload.MatchID,
		UserID:  c.userID,
	})

	return c.send(msg.Action, JoinMatchResponse{OK: true, State: state})
}

func (that *Server) handleMove(ctx context.Context, c *client, msg *Message) error {
	var payload MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	result, err := that.engine.OnPlayerMove(ctx, payload.MatchID, c.userID, payload.Move)
	if err != nil {
		return c.send(msg.Action, ErrorResponse{OK: false, Reason: apperror.Reason(err)})
	}

	return c.send(msg.Action, MoveResponse{OK: true, Finished: result.Finished, WinnerID: result.WinnerID})
}
