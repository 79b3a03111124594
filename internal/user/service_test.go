package user

import (
	"context"
	"testing"

	"campuspoll/survey-backend/internal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// fakeQuerier is an in-memory Querier backing the credential flow tests.
type fakeQuerier struct {
	users       map[uuid.UUID]User
	credentials map[string]Credential
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		users:       make(map[uuid.UUID]User),
		credentials: make(map[string]Credential),
	}
}

func (f *fakeQuerier) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeQuerier) GetByID(_ context.Context, id uuid.UUID) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeQuerier) Create(_ context.Context, arg CreateParams) (User, error) {
	u := User{
		ID:         uuid.New(),
		Nickname:   arg.Nickname,
		SchoolName: arg.SchoolName,
		Role:       arg.Role,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeQuerier) Update(_ context.Context, arg UpdateParams) (User, error) {
	u, ok := f.users[arg.ID]
	if !ok {
		return User{}, pgx.ErrNoRows
	}
	u.Nickname = arg.Nickname
	u.SchoolName = arg.SchoolName
	f.users[arg.ID] = u
	return u, nil
}

func (f *fakeQuerier) UpdateRole(_ context.Context, arg UpdateRoleParams) (User, error) {
	u, ok := f.users[arg.ID]
	if !ok {
		return User{}, pgx.ErrNoRows
	}
	u.Role = arg.Role
	f.users[arg.ID] = u
	return u, nil
}

func (f *fakeQuerier) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.users, id)
	return nil
}

func (f *fakeQuerier) List(_ context.Context) ([]User, error) {
	users := make([]User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeQuerier) Count(_ context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeQuerier) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.credentials[email]
	return ok, nil
}

func (f *fakeQuerier) GetCredentialByEmail(_ context.Context, email string) (Credential, error) {
	c, ok := f.credentials[email]
	if !ok {
		return Credential{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeQuerier) CreateCredential(_ context.Context, arg CreateCredentialParams) error {
	f.credentials[arg.Email] = Credential{
		UserID:            arg.UserID,
		Email:             arg.Email,
		PasswordHash:      arg.PasswordHash,
		Confirmed:         false,
		ConfirmationToken: pgtype.UUID{Bytes: arg.ConfirmationToken, Valid: true},
	}
	return nil
}

func (f *fakeQuerier) ConfirmByToken(_ context.Context, token uuid.UUID) (uuid.UUID, error) {
	for email, c := range f.credentials {
		if c.ConfirmationToken.Valid && uuid.UUID(c.ConfirmationToken.Bytes) == token {
			c.Confirmed = true
			c.ConfirmationToken = pgtype.UUID{}
			f.credentials[email] = c
			return c.UserID, nil
		}
	}
	return uuid.Nil, pgx.ErrNoRows
}

func (f *fakeQuerier) RotateConfirmationToken(_ context.Context, arg RotateConfirmationTokenParams) (pgtype.UUID, error) {
	c, ok := f.credentials[arg.Email]
	if !ok || c.Confirmed {
		return pgtype.UUID{}, pgx.ErrNoRows
	}
	c.ConfirmationToken = pgtype.UUID{Bytes: arg.Token, Valid: true}
	f.credentials[arg.Email] = c
	return c.ConfirmationToken, nil
}

func (f *fakeQuerier) ExistsByOAuth(_ context.Context, _ ExistsByOAuthParams) (bool, error) {
	return false, nil
}

func (f *fakeQuerier) GetIDByOAuth(_ context.Context, _ GetIDByOAuthParams) (uuid.UUID, error) {
	return uuid.Nil, pgx.ErrNoRows
}

func (f *fakeQuerier) CreateOAuthAccount(_ context.Context, _ CreateOAuthAccountParams) error {
	return nil
}

func newTestService(q Querier) *Service {
	return &Service{
		logger:  zap.NewNop(),
		queries: q,
		tracer:  otel.Tracer("user/service"),
	}
}

func TestService_ConfirmThenLogin(t *testing.T) {
	ctx := context.Background()
	fake := newFakeQuerier()
	s := newTestService(fake)

	created, token, err := s.SignUp(ctx, "Student@Example.com", "hunter2-secure", "student", "NYCU")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, token)

	// Login before confirming is a distinguished failure.
	_, err = s.Authenticate(ctx, "student@example.com", "hunter2-secure")
	require.ErrorIs(t, err, internal.ErrEmailNotConfirmed)

	userID, err := s.ConfirmEmail(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, userID)

	// The token is single-use: confirming clears it.
	credential, err := fake.GetCredentialByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.True(t, credential.Confirmed)
	assert.False(t, credential.ConfirmationToken.Valid)

	authenticated, err := s.Authenticate(ctx, "student@example.com", "hunter2-secure")
	require.NoError(t, err)
	assert.Equal(t, created.ID, authenticated.ID)
}

func TestService_ConfirmEmail_UnknownToken(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeQuerier())

	_, _, err := s.SignUp(ctx, "student@example.com", "hunter2-secure", "student", "")
	require.NoError(t, err)

	_, err = s.ConfirmEmail(ctx, uuid.New())
	require.ErrorIs(t, err, internal.ErrConfirmTokenNotFound)
}

func TestService_Authenticate_WrongPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestService(newFakeQuerier())

	_, token, err := s.SignUp(ctx, "student@example.com", "hunter2-secure", "student", "")
	require.NoError(t, err)

	_, err = s.ConfirmEmail(ctx, token)
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "student@example.com", "wrong-password")
	require.ErrorIs(t, err, internal.ErrInvalidCredentials)
}
