package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/dmitrijs2005/medconb/internal/dbx"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresRepository stores users in the users table. Every user owns a
// workspace row, created in the same transaction.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query :=
		`SELECT id, email, password_hash, external_id, name, workspace_id, created_at FROM users
		 WHERE lower(email) = lower($1)
		 `

	var (
		user      User
		mail      sql.NullString
		hash      sql.NullString
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &mail, &hash, &user.ExternalID, &user.Name, &user.WorkspaceID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Email = mail.String
	user.PasswordHash = hash.String
	user.CreatedAt = createdAt

	return &user, nil
}

func (r *PostgresRepository) NewID(ctx context.Context) (string, error) {
	return newUUID(), nil
}

func (r *PostgresRepository) NewWorkspaceID(ctx context.Context) (string, error) {
	return newUUID(), nil
}

// Insert writes the workspace and the user in one transaction.
func (r *PostgresRepository) Insert(ctx context.Context, user *User) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO workspaces (id) VALUES ($1)`, user.WorkspaceID); err != nil {
			return err
		}

		query :=
			`INSERT INTO users (id, email, password_hash, external_id, name, workspace_id)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING created_at
			 `
		return tx.QueryRowContext(ctx, query,
			user.ID, nullString(user.Email), nullString(user.PasswordHash),
			user.ExternalID, user.Name, user.WorkspaceID,
		).Scan(&user.CreatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
