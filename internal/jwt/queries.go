package jwt

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type RefreshToken struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	IsActive       bool
	ExpirationDate pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
}

const create = `
INSERT INTO refresh_tokens (user_id, expiration_date)
VALUES ($1, $2)
RETURNING id, user_id, is_active, expiration_date, created_at
`

type CreateParams struct {
	UserID         uuid.UUID
	ExpirationDate pgtype.Timestamptz
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, create, arg.UserID, arg.ExpirationDate)
	var i RefreshToken
	err := row.Scan(&i.ID, &i.UserID, &i.IsActive, &i.ExpirationDate, &i.CreatedAt)
	return i, err
}

const getRefreshTokenByID = `
SELECT id, user_id, is_active, expiration_date, created_at
FROM refresh_tokens
WHERE id = $1
`

func (q *Queries) GetRefreshTokenByID(ctx context.Context, id uuid.UUID) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, getRefreshTokenByID, id)
	var i RefreshToken
	err := row.Scan(&i.ID, &i.UserID, &i.IsActive, &i.ExpirationDate, &i.CreatedAt)
	return i, err
}

const getUserIDByTokenID = `
SELECT user_id
FROM refresh_tokens
WHERE id = $1 AND is_active = true AND expiration_date > now()
`

func (q *Queries) GetUserIDByTokenID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, getUserIDByTokenID, id)
	var userID uuid.UUID
	err := row.Scan(&userID)
	return userID, err
}

const inactivate = `
UPDATE refresh_tokens
SET is_active = false
WHERE id = $1
`

func (q *Queries) Inactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, inactivate, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteExpired = `
DELETE FROM refresh_tokens
WHERE expiration_date < now()
`

func (q *Queries) Delete(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, deleteExpired)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const inactivateByUser = `
UPDATE refresh_tokens
SET is_active = false
WHERE user_id = $1 AND is_active = true
`

func (q *Queries) InactivateByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, inactivateByUser, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
