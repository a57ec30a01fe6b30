package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sawaplay/domino-backend/internal/domino"
	"github.com/sawaplay/domino-backend/internal/entity"
	"github.com/sawaplay/domino-backend/internal/service"
)

type matchmaking interface {
	RequestMatch(ctx context.Context, userID string) (*service.MatchmakingResult, error)
	CancelSearch(ctx context.Context, userID string) (*service.CancelResult, error)
}

type resumer interface {
	Resume(ctx context.Context, userID string) (*service.ResumeResult, error)
	AttachToMatch(ctx context.Context, matchID, userID string) (*entity.PublicState, error)
}

type forfeits interface {
	Schedule(matchID, userID string)
	Clear(matchID, userID string)
}

type gameEngine interface {
	OnPlayerMove(ctx context.Context, matchID, userID string, move entity.Move) (domino.MoveResult, error)
	IsPlaying(matchID string) bool
	HasPlayer(matchID, userID string) bool
}

// Server is the real-time gateway: it authenticates connections, routes
// actions to the services and schedules forfeits on disconnect.
type Server struct {
	logger *slog.Logger

	hub      *Hub
	upgrader websocket.Upgrader

	matchmaking matchmaking
	resume      resumer
	forfeits    forfeits
	engine      gameEngine

	handlers map[string]func(ctx context.Context, c *client, msg *Message) error
}

func New(logger *slog.Logger, hub *Hub, matchmakingService matchmaking, resumeService resumer, forfeitService forfeits, engine gameEngine) *Server {
	server := &Server{
		logger: logger.With("component", "ws_server"),
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		matchmaking: matchmakingService,
		resume:      resumeService,
		forfeits:    forfeitService,
		engine:      engine,
		handlers:    make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[ActionFindMatch] = server.handleFindMatch
	server.handlers[ActionCancelSearch] = server.handleCancelSearch
	server.handlers[ActionResume] = server.handleResume
	server.handlers[ActionJoinMatch] = server.handleJoinMatch
	server.handlers[ActionMove] = server.handleMove

	return server
}

// Start - serves the /ws endpoint until the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades, reads messages until disconnect, then starts
// forfeit grace timers for every live match the user sat in.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	// identity comes from the authenticated session; the handshake carries
	// the verified user id
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn, userID)
	that.hub.register(c)

	log.Info("connection established", "userID", userID)

	defer func() {
		that.hub.unregister(c)
		_ = conn.Close()
		that.handleDisconnect(c)
	}()

	for {
		var msg Message
		if err = conn.ReadJSON(&msg); err != nil {
			log.Info("connection closed", "userID", userID, "error", err)
			return
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			log.Warn("unknown action", "action", msg.Action, "userID", userID)
			continue
		}

		if err = handler(ctx, c, &msg); err != nil {
			log.Error("failed to handle action", "action", msg.Action, "userID", userID, "error", err)
		}
	}
}

// handleDisconnect - every live match the user participates in gets a
// forfeit grace timer.
func (that *Server) handleDisconnect(c *client) {
	for matchID := range c.matches {
		if !that.engine.IsPlaying(matchID) || !that.engine.HasPlayer(matchID, c.userID) {
			continue
		}

		that.forfeits.Schedule(matchID, c.userID)
	}

	that.logger.Info("player disconnected", "userID", c.userID)
}
