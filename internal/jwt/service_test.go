package jwt

import (
	"context"
	"testing"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testUser() user.User {
	return user.User{
		ID:         uuid.New(),
		Nickname:   "tester",
		SchoolName: pgtype.Text{String: "NYCU", Valid: true},
		Role:       user.RoleUser,
	}
}

func TestService_NewAndParse(t *testing.T) {
	s := NewService(zap.NewNop(), nil, "test-secret", 15*time.Minute, 7*24*time.Hour)
	u := testUser()

	token, err := s.New(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := s.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, parsed.ID)
	assert.Equal(t, u.Nickname, parsed.Nickname)
	assert.Equal(t, u.SchoolName.String, parsed.SchoolName.String)
	assert.Equal(t, u.Role, parsed.Role)
}

func TestService_Parse_StripsBearerPrefix(t *testing.T) {
	s := NewService(zap.NewNop(), nil, "test-secret", 15*time.Minute, 7*24*time.Hour)
	u := testUser()

	token, err := s.New(context.Background(), u)
	require.NoError(t, err)

	parsed, err := s.Parse(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, parsed.ID)
}

func TestService_Parse_RejectsExpiredToken(t *testing.T) {
	s := NewService(zap.NewNop(), nil, "test-secret", -time.Minute, 7*24*time.Hour)

	token, err := s.New(context.Background(), testUser())
	require.NoError(t, err)

	_, err = s.Parse(context.Background(), token)
	require.ErrorIs(t, err, internal.ErrJWTTokenExpired)
}

func TestService_Parse_RejectsWrongSecret(t *testing.T) {
	signer := NewService(zap.NewNop(), nil, "secret-a", 15*time.Minute, 7*24*time.Hour)
	verifier := NewService(zap.NewNop(), nil, "secret-b", 15*time.Minute, 7*24*time.Hour)

	token, err := signer.New(context.Background(), testUser())
	require.NoError(t, err)

	_, err = verifier.Parse(context.Background(), token)
	require.ErrorIs(t, err, internal.ErrInvalidJWTToken)
}

func TestService_Parse_RejectsGarbage(t *testing.T) {
	s := NewService(zap.NewNop(), nil, "test-secret", 15*time.Minute, 7*24*time.Hour)

	_, err := s.Parse(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, internal.ErrInvalidJWTToken)
}

func TestService_StateRoundTrip(t *testing.T) {
	s := NewService(zap.NewNop(), nil, "test-secret", 15*time.Minute, 7*24*time.Hour)

	state, err := s.NewState(context.Background(), "google", "https://example.com/after-login")
	require.NoError(t, err)

	provider, redirectURL, err := s.ParseState(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "google", provider)
	assert.Equal(t, "https://example.com/after-login", redirectURL)
}
