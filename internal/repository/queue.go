package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sawaplay/domino-backend/internal/entity"
)

var ErrQueueEntryNotFound = errors.New("queue entry not found")

type QueueRepository interface {
	WithTx(tx *sql.Tx) QueueRepository

	GetByUserID(ctx context.Context, userID string) (*entity.QueueEntry, error)
	UpsertSearching(ctx context.Context, userID string, entryFee int64) error
	FindOldestSearchingExcept(ctx context.Context, userID string) (*entity.QueueEntry, error)
	MarkMatched(ctx context.Context, userID, opponentID string) (int64, error)
	MarkCanceled(ctx context.Context, userID string) (int64, error)
}

type queueRepository struct {
	conn Querier
}

func NewQueueRepository(conn Querier) QueueRepository {
	return &queueRepository{
		conn: conn,
	}
}

func (that *queueRepository) WithTx(tx *sql.Tx) QueueRepository {
	return &queueRepository{conn: tx}
}

func (that *queueRepository) GetByUserID(ctx context.Context, userID string) (*entity.QueueEntry, error) {
	query := `SELECT user_id, entry_fee, status, created_at FROM domino_queue WHERE user_id = ?`

	var entry entity.QueueEntry

	err := that.conn.QueryRowContext(ctx, query, userID).
		Scan(&entry.UserID, &entry.EntryFee, &entry.Status, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find queue entry: %w", err)
	}

	return &entry, nil
}

// UpsertSearching - creates or refreshes the user's queue entry as searching.
func (that *queueRepository) UpsertSearching(ctx context.Context, userID string, entryFee int64) error {
	query := `INSERT INTO domino_queue (user_id, entry_fee, status, created_at)
		VALUES (?, ?, 'searching', CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			entry_fee = excluded.entry_fee,
			status = 'searching',
			created_at = CURRENT_TIMESTAMP`

	if _, err := that.conn.ExecContext(ctx, query, userID, entryFee); err != nil {
		return fmt.Errorf("can't upsert queue entry: %w", err)
	}

	return nil
}

// FindOldestSearchingExcept - the pairing candidate: the longest-waiting
// searching entry belonging to someone else.
func (that *queueRepository) FindOldestSearchingExcept(ctx context.Context, userID string) (*entity.QueueEntry, error) {
	query := `SELECT user_id, entry_fee, status, created_at FROM domino_queue
		WHERE status = 'searching' AND user_id != ?
		ORDER BY created_at ASC
		LIMIT 1`

	var entry entity.QueueEntry

	err := that.conn.QueryRowContext(ctx, query, userID).
		Scan(&entry.UserID, &entry.EntryFee, &entry.Status, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find opponent entry: %w", err)
	}

	return &entry, nil
}

// MarkMatched - conditionally flips both entries to matched. Returns the
// number of rows changed; anything but two means a concurrent pairing won.
func (that *queueRepository) MarkMatched(ctx context.Context, userID, opponentID string) (int64, error) {
	query := `UPDATE domino_queue SET status = 'matched'
		WHERE user_id IN (?, ?) AND status = 'searching'`

	result, err := that.conn.ExecContext(ctx, query, userID, opponentID)
	if err != nil {
		return 0, fmt.Errorf("can't mark entries matched: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("can't read affected rows: %w", err)
	}

	return affected, nil
}

// MarkCanceled - flips a searching entry to canceled; returns 0 rows when
// the user was not searching.
func (that *queueRepository) MarkCanceled(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE domino_queue SET status = 'canceled'
		WHERE user_id = ? AND status = 'searching'`

	result, err := that.conn.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("can't cancel queue entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("can't read affected rows: %w", err)
	}

	return affected, nil
}
