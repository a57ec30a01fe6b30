package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sawaplay/domino-backend/internal/apperror"
	"github.com/sawaplay/domino-backend/internal/entity"
)

type UserRepository interface {
	WithTx(tx *sql.Tx) UserRepository

	Save(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	AdjustBalance(ctx context.Context, id string, delta int64) error
}

type userRepository struct {
	conn Querier
}

func NewUserRepository(conn Querier) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

func (that *userRepository) WithTx(tx *sql.Tx) UserRepository {
	return &userRepository{conn: tx}
}

func (that *userRepository) Save(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (id, email, sawa) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, sawa = excluded.sawa`

	_, err := that.conn.ExecContext(ctx, query, user.ID, user.Email, user.Sawa)
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

func (that *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, COALESCE(email, ''), sawa FROM users WHERE id = ?`

	var user entity.User

	err := that.conn.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.Email, &user.Sawa)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return &user, nil
}

// AdjustBalance - moves the balance by delta. Balance checks happen in the
// caller's transaction before debiting.
func (that *userRepository) AdjustBalance(ctx context.Context, id string, delta int64) error {
	query := `UPDATE users SET sawa = sawa + ? WHERE id = ?`

	result, err := that.conn.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("can't adjust balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}

	if affected == 0 {
		return apperror.ErrUserNotFound
	}

	return nil
}
