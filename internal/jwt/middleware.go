package jwt

import (
	"context"
	"net/http"
	"strings"

	"campuspoll/survey-backend/internal"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const CookieAccessToken = "access_token"

type Middleware struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	validator     *validator.Validate
	problemWriter *problem.HttpWriter
	jwtService    *Service
}

func NewMiddleware(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	jwtService *Service,
) *Middleware {
	return &Middleware{
		logger:        logger,
		tracer:        otel.Tracer("jwt/middleware"),
		validator:     validator,
		problemWriter: problemWriter,
		jwtService:    jwtService,
	}
}

// AuthenticateMiddleware resolves the access token from the Authorization
// header or the access_token cookie and stores the user in the request
// context for downstream handlers.
func (m *Middleware) AuthenticateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "AuthenticateMiddleware")
		defer span.End()
		logger := logutil.WithContext(traceCtx, m.logger)

		tokenString, err := extractToken(r)
		if err != nil {
			m.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}

		currentUser, err := m.jwtService.Parse(traceCtx, tokenString)
		if err != nil {
			m.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}

		ctx := context.WithValue(traceCtx, internal.UserContextKey, &currentUser)
		next(w, r.WithContext(ctx))
	}
}

// OptionalAuthenticateMiddleware attaches the user when a valid token is
// present but lets anonymous requests through, for endpoints whose behavior
// merely varies with identity.
func (m *Middleware) OptionalAuthenticateMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "OptionalAuthenticateMiddleware")
		defer span.End()

		tokenString, err := extractToken(r)
		if err != nil {
			next(w, r.WithContext(traceCtx))
			return
		}

		currentUser, err := m.jwtService.Parse(traceCtx, tokenString)
		if err != nil {
			next(w, r.WithContext(traceCtx))
			return
		}

		ctx := context.WithValue(traceCtx, internal.UserContextKey, &currentUser)
		next(w, r.WithContext(ctx))
	}
}

func extractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return "", internal.ErrInvalidAuthHeaderFormat
		}
		return strings.TrimPrefix(authHeader, "Bearer "), nil
	}

	cookie, err := r.Cookie(CookieAccessToken)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", internal.ErrMissingAuthHeader
}
