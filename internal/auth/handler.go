package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/auth/oauthprovider"
	"campuspoll/survey-backend/internal/jwt"
	"campuspoll/survey-backend/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"

	// The refresh cookie covers every /api/auth endpoint that consumes it:
	// rotation on refresh and invalidation on logout.
	refreshTokenCookiePath = "/api/auth"
)

type SignUpRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Nickname        string `json:"nickname" validate:"required,nickname_rules"`
	SchoolName      string `json:"schoolName" validate:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ResendConfirmationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type TokenResponse struct {
	User user.ProfileResponse `json:"user"`
}

type JWTIssuer interface {
	New(ctx context.Context, u user.User) (string, error)
	NewState(ctx context.Context, provider, redirectURL string) (string, error)
	Parse(ctx context.Context, tokenString string) (user.User, error)
	ParseState(ctx context.Context, tokenString string) (string, string, error)
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (jwt.RefreshToken, error)
	GetUserIDByRefreshToken(ctx context.Context, refreshTokenID uuid.UUID) (uuid.UUID, error)
}

type JWTStore interface {
	InactivateRefreshToken(ctx context.Context, id uuid.UUID) error
	GetRefreshTokenByID(ctx context.Context, id uuid.UUID) (jwt.RefreshToken, error)
}

type UserStore interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	SignUp(ctx context.Context, email, password, nickname, schoolName string) (user.User, uuid.UUID, error)
	Authenticate(ctx context.Context, email, password string) (user.User, error)
	ConfirmEmail(ctx context.Context, token uuid.UUID) (uuid.UUID, error)
	ResendConfirmation(ctx context.Context, email string) (uuid.UUID, error)
	FindOrCreateOAuth(ctx context.Context, provider, providerID, nickname string) (uuid.UUID, error)
}

type OAuthProvider interface {
	Name() string
	Config() *oauth2.Config
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (oauthprovider.UserInfo, error)
}

type CallBackInfo struct {
	code       string
	oauthError string
	redirectTo string
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	baseURL string
	devMode bool

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	userStore UserStore
	jwtIssuer JWTIssuer
	jwtStore  JWTStore
	provider  map[string]OAuthProvider

	accessTokenExpiration  time.Duration
	refreshTokenExpiration time.Duration
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	userStore UserStore,
	jwtIssuer JWTIssuer,
	jwtStore JWTStore,
	providers map[string]OAuthProvider,

	baseURL string,
	devMode bool,

	accessTokenExpiration time.Duration,
	refreshTokenExpiration time.Duration,
) *Handler {
	return &Handler{
		logger: logger,
		tracer: otel.Tracer("auth/handler"),

		baseURL: baseURL,
		devMode: devMode,

		validator:     validator,
		problemWriter: problemWriter,

		userStore: userStore,
		jwtIssuer: jwtIssuer,
		jwtStore:  jwtStore,
		provider:  providers,

		accessTokenExpiration:  accessTokenExpiration,
		refreshTokenExpiration: refreshTokenExpiration,
	}
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SignUp")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req SignUpRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if req.Password != req.ConfirmPassword {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrPasswordMismatch, logger)
		return
	}

	newUser, confirmationToken, err := h.userStore.SignUp(traceCtx, req.Email, req.Password, req.Nickname, req.SchoolName)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	// The confirmation link is delivered out of band; the token is logged so
	// operators can relay it until a mail sender is wired up.
	logger.Info("Confirmation token issued",
		zap.String("user_id", newUser.ID.String()),
		zap.String("token", confirmationToken.String()))

	handlerutil.WriteJSONResponse(w, http.StatusCreated, TokenResponse{
		User: user.ToProfileResponse(newUser),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req LoginRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	currentUser, err := h.userStore.Authenticate(traceCtx, req.Email, req.Password)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	accessToken, refreshTokenID, err := h.generateJWT(traceCtx, currentUser.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	baseURL, err := url.Parse(h.baseURL)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInternalServerError, logger)
		return
	}

	h.setAccessAndRefreshCookies(w, baseURL.Host, accessToken, refreshTokenID)

	handlerutil.WriteJSONResponse(w, http.StatusOK, TokenResponse{
		User: user.ToProfileResponse(currentUser),
	})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Confirm")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	token, err := handlerutil.ParseUUID(r.PathValue("token"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	userID, err := h.userStore.ConfirmEmail(traceCtx, token)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	logger.Info("Email confirmed via link", zap.String("user_id", userID.String()))
	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Email confirmed, you can now log in"})
}

func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ResendConfirmation")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req ResendConfirmationRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	token, err := h.userStore.ResendConfirmation(traceCtx, req.Email)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	logger.Info("Confirmation token rotated", zap.String("token", token.String()))
	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Confirmation link sent"})
}

// Oauth2Start initiates the OAuth2 flow by redirecting the user to the provider's authorization URL
func (h *Handler) Oauth2Start(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Oauth2Start")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	providerName := r.PathValue("provider")
	provider := h.provider[providerName]
	if provider == nil {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: provider not found: %s", internal.ErrProviderNotFound, providerName), logger)
		return
	}

	redirectURL := r.URL.Query().Get("r")

	state, err := h.jwtIssuer.NewState(traceCtx, providerName, redirectURL)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	authURL := provider.Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Callback")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	providerName := r.PathValue("provider")
	provider := h.provider[providerName]
	if provider == nil {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: provider not found: %s", internal.ErrProviderNotFound, providerName), logger)
		return
	}

	callbackInfo, err := h.GetCallBackInfo(traceCtx, r.URL)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if callbackInfo.oauthError != "" {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: %s", internal.ErrOAuthError, callbackInfo.oauthError), logger)
		return
	}

	token, err := provider.Exchange(traceCtx, callbackInfo.code)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: %v", internal.ErrOAuthError, err), logger)
		return
	}

	userInfo, err := provider.GetUserInfo(traceCtx, token)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	userID, err := h.userStore.FindOrCreateOAuth(traceCtx, userInfo.Provider, userInfo.ProviderID, userInfo.Nickname)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	accessToken, refreshTokenID, err := h.generateJWT(traceCtx, userID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	baseURL, err := url.Parse(h.baseURL)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInternalServerError, logger)
		return
	}

	h.setAccessAndRefreshCookies(w, baseURL.Host, accessToken, refreshTokenID)

	redirectURL := callbackInfo.redirectTo
	if redirectURL == "" {
		redirectURL = "/"
	}

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

func (h *Handler) generateJWT(ctx context.Context, userID uuid.UUID) (string, string, error) {
	traceCtx, span := h.tracer.Start(ctx, "generateJWT")
	defer span.End()

	userEntity, err := h.userStore.GetByID(traceCtx, userID)
	if err != nil {
		return "", "", err
	}

	jwtToken, err := h.jwtIssuer.New(traceCtx, userEntity)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := h.jwtIssuer.GenerateRefreshToken(traceCtx, userID)
	if err != nil {
		return "", "", err
	}

	return jwtToken, refreshToken.ID.String(), nil
}

func (h *Handler) GetCallBackInfo(ctx context.Context, url *url.URL) (CallBackInfo, error) {
	code := url.Query().Get("code")
	state := url.Query().Get("state")
	oauthError := url.Query().Get("error")

	_, redirectURL, err := h.jwtIssuer.ParseState(ctx, state)
	if err != nil {
		return CallBackInfo{}, err
	}

	return CallBackInfo{
		code:       code,
		oauthError: oauthError,
		redirectTo: redirectURL,
	}, nil
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "Logout")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	refreshTokenCookie, err := r.Cookie(RefreshTokenCookieName)
	if err == nil {
		refreshTokenID, parseErr := uuid.Parse(refreshTokenCookie.Value)
		if parseErr == nil {
			if inactivateErr := h.jwtStore.InactivateRefreshToken(traceCtx, refreshTokenID); inactivateErr != nil {
				logger.Warn("Failed to inactivate refresh token during logout", zap.Error(inactivateErr))
			}
		}
	}

	h.clearAccessAndRefreshCookies(w)

	handlerutil.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "RefreshToken")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	refreshTokenCookie, err := r.Cookie(RefreshTokenCookieName)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrMissingAuthHeader, logger)
		return
	}
	refreshTokenStr := refreshTokenCookie.Value

	if refreshTokenStr == "" {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrMissingAuthHeader, logger)
		return
	}

	refreshTokenID, err := uuid.Parse(refreshTokenStr)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidAuthHeaderFormat, logger)
		return
	}

	userID, err := h.jwtIssuer.GetUserIDByRefreshToken(traceCtx, refreshTokenID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidRefreshToken, logger)
		return
	}

	err = h.jwtStore.InactivateRefreshToken(traceCtx, refreshTokenID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInternalServerError, logger)
		return
	}

	newAccessToken, newRefreshTokenID, err := h.generateJWT(traceCtx, userID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	baseURL, err := url.Parse(h.baseURL)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInternalServerError, logger)
		return
	}

	h.setAccessAndRefreshCookies(w, baseURL.Host, newAccessToken, newRefreshTokenID)

	w.WriteHeader(http.StatusNoContent)
}

// setAccessAndRefreshCookies sets the access/refresh cookies with HTTP-only and secure flags
func (h *Handler) setAccessAndRefreshCookies(w http.ResponseWriter, domain, accessToken, refreshTokenID string) {
	var sameSite http.SameSite
	if h.devMode {
		sameSite = http.SameSiteNoneMode
	} else {
		sameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookieName,
		Value:    accessToken,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
		Path:     "/",
		MaxAge:   int(h.accessTokenExpiration.Seconds()),
		Domain:   domain,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    refreshTokenID,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
		Path:     refreshTokenCookiePath,
		MaxAge:   int(h.refreshTokenExpiration.Seconds()),
		Domain:   domain,
	})
}

// clearAccessAndRefreshCookies sets the access/refresh cookies to empty values and negative MaxAge
// negative means the cookies will be deleted, zero means the cookies will expire at the end of the session
func (h *Handler) clearAccessAndRefreshCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    "",
		Path:     refreshTokenCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// CreateOAuthProviders builds the provider registry from configured credentials.
// Providers with no client ID configured are left out.
func CreateOAuthProviders(
	baseURL string,
	googleClientID, googleClientSecret string,
	kakaoClientID, kakaoClientSecret string,
) map[string]OAuthProvider {
	providers := make(map[string]OAuthProvider)

	if googleClientID != "" {
		callbackURL := fmt.Sprintf("%s/api/auth/login/oauth/google/callback", baseURL)
		providers["google"] = oauthprovider.NewGoogleConfig(googleClientID, googleClientSecret, callbackURL)
	}

	if kakaoClientID != "" {
		callbackURL := fmt.Sprintf("%s/api/auth/login/oauth/kakao/callback", baseURL)
		providers["kakao"] = oauthprovider.NewKakaoConfig(kakaoClientID, kakaoClientSecret, callbackURL)
	}

	return providers
}
