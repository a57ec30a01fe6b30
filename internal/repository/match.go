package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sawaplay/domino-backend/internal/entity"
)

var ErrMatchRecordNotFound = errors.New("match record not found")

type MatchRepository interface {
	WithTx(tx *sql.Tx) MatchRepository

	Create(ctx context.Context, record *entity.MatchRecord) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	FindActiveByUser(ctx context.Context, userID string) (*entity.MatchRecord, error)
	Finish(ctx context.Context, id, winnerID string, stateJSON []byte) error
}

type matchRepository struct {
	conn Querier
}

func NewMatchRepository(conn Querier) MatchRepository {
	return &matchRepository{
		conn: conn,
	}
}

func (that *matchRepository) WithTx(tx *sql.Tx) MatchRepository {
	return &matchRepository{conn: tx}
}

func (that *matchRepository) Create(ctx context.Context, record *entity.MatchRecord) error {
	query := `INSERT INTO domino_matches (id, player1_id, player2_id, entry_fee, win_fee, status)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.ID, record.Player1ID, record.Player2ID, record.EntryFee, record.WinFee, record.Status)
	if err != nil {
		return fmt.Errorf("can't create match record: %w", err)
	}

	return nil
}

func (that *matchRepository) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	query := `SELECT id, player1_id, player2_id, entry_fee, win_fee, status,
		COALESCE(winner_id, ''), COALESCE(state_json, ''), created_at
		FROM domino_matches WHERE id = ?`

	return that.scanOne(that.conn.QueryRowContext(ctx, query, id))
}

// FindActiveByUser - the user's in-flight match record, if any.
func (that *matchRepository) FindActiveByUser(ctx context.Context, userID string) (*entity.MatchRecord, error) {
	query := `SELECT id, player1_id, player2_id, entry_fee, win_fee, status,
		COALESCE(winner_id, ''), COALESCE(state_json, ''), created_at
		FROM domino_matches
		WHERE status = 'playing' AND (player1_id = ? OR player2_id = ?)
		ORDER BY created_at DESC
		LIMIT 1`

	return that.scanOne(that.conn.QueryRowContext(ctx, query, userID, userID))
}

// Finish - closes the record; an empty winner id stays NULL (draw or
// unrecoverable state).
func (that *matchRepository) Finish(ctx context.Context, id, winnerID string, stateJSON []byte) error {
	query := `UPDATE domino_matches SET status = 'finished', winner_id = ?, state_json = ? WHERE id = ?`

	var winner any
	if winnerID != "" {
		winner = winnerID
	}

	var snapshot any
	if len(stateJSON) > 0 {
		snapshot = string(stateJSON)
	}

	result, err := that.conn.ExecContext(ctx, query, winner, snapshot, id)
	if err != nil {
		return fmt.Errorf("can't finish match record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}

	if affected == 0 {
		return ErrMatchRecordNotFound
	}

	return nil
}

func (that *matchRepository) scanOne(row *sql.Row) (*entity.MatchRecord, error) {
	var record entity.MatchRecord
	var stateJSON string

	err := row.Scan(&record.ID, &record.Player1ID, &record.Player2ID,
		&record.EntryFee, &record.WinFee, &record.Status,
		&record.WinnerID, &stateJSON, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find match record: %w", err)
	}

	if stateJSON != "" {
		record.StateJSON = []byte(stateJSON)
	}

	return &record, nil
}
