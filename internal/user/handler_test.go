package user

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
)

func TestToProfileResponse(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		name     string
		input    User
		validate func(t *testing.T, got ProfileResponse)
	}{
		{
			name: "Should map all fields",
			input: User{
				ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
				Nickname:   gofakeit.Username(),
				SchoolName: pgtype.Text{String: "NYCU", Valid: true},
				Role:       RoleAdmin,
				CreatedAt:  pgtype.Timestamptz{Time: now, Valid: true},
			},
			validate: func(t *testing.T, got ProfileResponse) {
				assert.Equal(t, "11111111-1111-1111-1111-111111111111", got.ID)
				assert.NotEmpty(t, got.Nickname)
				assert.Equal(t, "NYCU", got.SchoolName)
				assert.Equal(t, "admin", got.Role)
				assert.Equal(t, now, got.CreatedAt)
			},
		},
		{
			name: "Should render a null school name as empty string",
			input: User{
				ID:       uuid.New(),
				Nickname: gofakeit.Username(),
				Role:     RoleUser,
			},
			validate: func(t *testing.T, got ProfileResponse) {
				assert.Empty(t, got.SchoolName)
				assert.Equal(t, "user", got.Role)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.validate(t, ToProfileResponse(tc.input))
		})
	}
}
