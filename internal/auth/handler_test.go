package auth

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"campuspoll/survey-backend/internal/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type fakeJWTStore struct {
	inactivated []uuid.UUID
}

func (f *fakeJWTStore) InactivateRefreshToken(_ context.Context, id uuid.UUID) error {
	f.inactivated = append(f.inactivated, id)
	return nil
}

func (f *fakeJWTStore) GetRefreshTokenByID(_ context.Context, id uuid.UUID) (jwt.RefreshToken, error) {
	return jwt.RefreshToken{}, nil
}

func newLogoutTestHandler(store *fakeJWTStore) *Handler {
	return &Handler{
		logger:                 zap.NewNop(),
		tracer:                 otel.Tracer("auth/handler"),
		jwtStore:               store,
		accessTokenExpiration:  15 * time.Minute,
		refreshTokenExpiration: 7 * 24 * time.Hour,
	}
}

func TestHandler_Logout_InactivatesRefreshToken(t *testing.T) {
	store := &fakeJWTStore{}
	h := newLogoutTestHandler(store)

	refreshTokenID := uuid.New()
	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: RefreshTokenCookieName, Value: refreshTokenID.String()})
	w := httptest.NewRecorder()

	h.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.inactivated, 1)
	assert.Equal(t, refreshTokenID, store.inactivated[0])

	cleared := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared[c.Name] = true
		}
	}
	assert.True(t, cleared[AccessTokenCookieName])
	assert.True(t, cleared[RefreshTokenCookieName])
}

func TestHandler_Logout_WithoutCookieStillSucceeds(t *testing.T) {
	store := &fakeJWTStore{}
	h := newLogoutTestHandler(store)

	r := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()

	h.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.inactivated)
}

// A browser only sends the refresh cookie to paths covered by its Path
// attribute, so the scope must include both the refresh and logout endpoints.
func TestRefreshCookie_PathCoversRefreshAndLogout(t *testing.T) {
	h := newLogoutTestHandler(&fakeJWTStore{})

	w := httptest.NewRecorder()
	h.setAccessAndRefreshCookies(w, "example.com", "access-token", uuid.New().String())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	origin, err := url.Parse("https://example.com/api/auth/login")
	require.NoError(t, err)
	jar.SetCookies(origin, w.Result().Cookies())

	sentTo := func(rawURL string) []string {
		u, parseErr := url.Parse(rawURL)
		require.NoError(t, parseErr)
		var names []string
		for _, c := range jar.Cookies(u) {
			names = append(names, c.Name)
		}
		return names
	}

	assert.Contains(t, sentTo("https://example.com/api/auth/refresh"), RefreshTokenCookieName)
	assert.Contains(t, sentTo("https://example.com/api/auth/logout"), RefreshTokenCookieName)
	assert.NotContains(t, sentTo("https://example.com/api/surveys"), RefreshTokenCookieName)
}
