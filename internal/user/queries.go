package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID         uuid.UUID
	Nickname   string
	SchoolName pgtype.Text
	Role       Role
	CreatedAt  pgtype.Timestamptz
}

type Credential struct {
	UserID            uuid.UUID
	Email             string
	PasswordHash      []byte
	Confirmed         bool
	ConfirmationToken pgtype.UUID
}

type OAuthAccount struct {
	UserID     uuid.UUID
	Provider   string
	ProviderID string
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const existsByID = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

func (q *Queries) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, existsByID, id).Scan(&exists)
	return exists, err
}

const getByID = `
SELECT id, nickname, school_name, role, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getByID, id).Scan(&u.ID, &u.Nickname, &u.SchoolName, &u.Role, &u.CreatedAt)
	return u, err
}

const createUser = `
INSERT INTO users (nickname, school_name, role)
VALUES ($1, $2, $3)
RETURNING id, nickname, school_name, role, created_at
`

type CreateParams struct {
	Nickname   string
	SchoolName pgtype.Text
	Role       Role
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, createUser, arg.Nickname, arg.SchoolName, arg.Role).
		Scan(&u.ID, &u.Nickname, &u.SchoolName, &u.Role, &u.CreatedAt)
	return u, err
}

const updateUser = `
UPDATE users
SET nickname = $2, school_name = $3
WHERE id = $1
RETURNING id, nickname, school_name, role, created_at
`

type UpdateParams struct {
	ID         uuid.UUID
	Nickname   string
	SchoolName pgtype.Text
}

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, updateUser, arg.ID, arg.Nickname, arg.SchoolName).
		Scan(&u.ID, &u.Nickname, &u.SchoolName, &u.Role, &u.CreatedAt)
	return u, err
}

const updateRole = `
UPDATE users
SET role = $2
WHERE id = $1
RETURNING id, nickname, school_name, role, created_at
`

type UpdateRoleParams struct {
	ID   uuid.UUID
	Role Role
}

func (q *Queries) UpdateRole(ctx context.Context, arg UpdateRoleParams) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, updateRole, arg.ID, arg.Role).
		Scan(&u.ID, &u.Nickname, &u.SchoolName, &u.Role, &u.CreatedAt)
	return u, err
}

const deleteUser = `DELETE FROM users WHERE id = $1`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteUser, id)
	return err
}

const listUsers = `
SELECT id, nickname, school_name, role, created_at
FROM users
ORDER BY created_at DESC
`

func (q *Queries) List(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Nickname, &u.SchoolName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) Count(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countUsers).Scan(&count)
	return count, err
}

const existsByEmail = `SELECT EXISTS (SELECT 1 FROM credentials WHERE email = $1)`

func (q *Queries) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, existsByEmail, email).Scan(&exists)
	return exists, err
}

const getCredentialByEmail = `
SELECT user_id, email, password_hash, confirmed, confirmation_token
FROM credentials
WHERE email = $1
`

func (q *Queries) GetCredentialByEmail(ctx context.Context, email string) (Credential, error) {
	var c Credential
	err := q.db.QueryRow(ctx, getCredentialByEmail, email).
		Scan(&c.UserID, &c.Email, &c.PasswordHash, &c.Confirmed, &c.ConfirmationToken)
	return c, err
}

const createCredential = `
INSERT INTO credentials (user_id, email, password_hash, confirmed, confirmation_token)
VALUES ($1, $2, $3, false, $4)
`

type CreateCredentialParams struct {
	UserID            uuid.UUID
	Email             string
	PasswordHash      []byte
	ConfirmationToken uuid.UUID
}

func (q *Queries) CreateCredential(ctx context.Context, arg CreateCredentialParams) error {
	_, err := q.db.Exec(ctx, createCredential, arg.UserID, arg.Email, arg.PasswordHash, arg.ConfirmationToken)
	return err
}

const confirmByToken = `
UPDATE credentials
SET confirmed = true, confirmation_token = NULL
WHERE confirmation_token = $1
RETURNING user_id
`

func (q *Queries) ConfirmByToken(ctx context.Context, token uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := q.db.QueryRow(ctx, confirmByToken, token).Scan(&userID)
	return userID, err
}

const rotateConfirmationToken = `
UPDATE credentials
SET confirmation_token = $2
WHERE email = $1 AND confirmed = false
RETURNING confirmation_token
`

type RotateConfirmationTokenParams struct {
	Email string
	Token uuid.UUID
}

func (q *Queries) RotateConfirmationToken(ctx context.Context, arg RotateConfirmationTokenParams) (pgtype.UUID, error) {
	var token pgtype.UUID
	err := q.db.QueryRow(ctx, rotateConfirmationToken, arg.Email, arg.Token).Scan(&token)
	return token, err
}

const existsByOAuth = `
SELECT EXISTS (SELECT 1 FROM oauth_accounts WHERE provider = $1 AND provider_id = $2)
`

type ExistsByOAuthParams struct {
	Provider   string
	ProviderID string
}

func (q *Queries) ExistsByOAuth(ctx context.Context, arg ExistsByOAuthParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, existsByOAuth, arg.Provider, arg.ProviderID).Scan(&exists)
	return exists, err
}

const getIDByOAuth = `
SELECT user_id FROM oauth_accounts WHERE provider = $1 AND provider_id = $2
`

type GetIDByOAuthParams struct {
	Provider   string
	ProviderID string
}

func (q *Queries) GetIDByOAuth(ctx context.Context, arg GetIDByOAuthParams) (uuid.UUID, error) {
	var userID uuid.UUID
	err := q.db.QueryRow(ctx, getIDByOAuth, arg.Provider, arg.ProviderID).Scan(&userID)
	return userID, err
}

const createOAuthAccount = `
INSERT INTO oauth_accounts (user_id, provider, provider_id)
VALUES ($1, $2, $3)
`

type CreateOAuthAccountParams struct {
	UserID     uuid.UUID
	Provider   string
	ProviderID string
}

func (q *Queries) CreateOAuthAccount(ctx context.Context, arg CreateOAuthAccountParams) error {
	_, err := q.db.Exec(ctx, createOAuthAccount, arg.UserID, arg.Provider, arg.ProviderID)
	return err
}
