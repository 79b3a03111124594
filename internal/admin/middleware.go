// Package admin exposes the administration surface: platform stats, listings,
// role management, and hard deletes, all behind an admin role gate.
package admin

import (
	"net/http"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/user"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Middleware struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	problemWriter *problem.HttpWriter
}

func NewMiddleware(logger *zap.Logger, problemWriter *problem.HttpWriter) *Middleware {
	return &Middleware{
		logger:        logger,
		tracer:        otel.Tracer("admin/middleware"),
		problemWriter: problemWriter,
	}
}

// RequireAdmin rejects requests whose authenticated user does not carry the
// admin role. It assumes the JWT middleware already ran.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "RequireAdmin")
		defer span.End()
		logger := logutil.WithContext(traceCtx, m.logger)

		currentUser, ok := user.GetFromContext(traceCtx)
		if !ok {
			m.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
			return
		}

		if currentUser.Role != user.RoleAdmin {
			logger.Warn("Non-admin attempted admin route",
				zap.String("user_id", currentUser.ID.String()),
				zap.String("path", r.URL.Path))
			m.problemWriter.WriteError(traceCtx, w, internal.ErrAdminOnly, logger)
			return
		}

		next(w, r.WithContext(traceCtx))
	}
}
