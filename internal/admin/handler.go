package admin

import (
	"context"
	"net/http"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey"
	"campuspoll/survey-backend/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type StatsResponse struct {
	TotalUsers     int64 `json:"totalUsers"`
	TotalSurveys   int64 `json:"totalSurveys"`
	ActiveSurveys  int64 `json:"activeSurveys"`
	TotalResponses int64 `json:"totalResponses"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserStore interface {
	List(ctx context.Context) ([]user.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (user.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type SurveyStore interface {
	ListAll(ctx context.Context) ([]survey.ListPublishedRow, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorIsAdmin bool) error
}

type ResponseStore interface {
	CountAll(ctx context.Context) (int64, error)
}

type SessionStore interface {
	InactivateUserTokens(ctx context.Context, userID uuid.UUID) error
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	users     UserStore
	surveys   SurveyStore
	responses ResponseStore
	sessions  SessionStore
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	users UserStore,
	surveys SurveyStore,
	responses ResponseStore,
	sessions SessionStore,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("admin/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		users:         users,
		surveys:       surveys,
		responses:     responses,
		sessions:      sessions,
	}
}

func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "StatsHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	totalUsers, err := h.users.Count(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	totalSurveys, err := h.surveys.Count(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	activeSurveys, err := h.surveys.CountActive(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	totalResponses, err := h.responses.CountAll(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, StatsResponse{
		TotalUsers:     totalUsers,
		TotalSurveys:   totalSurveys,
		ActiveSurveys:  activeSurveys,
		TotalResponses: totalResponses,
	})
}

func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListUsersHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	users, err := h.users.List(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	items := make([]user.ProfileResponse, 0, len(users))
	for _, u := range users {
		items = append(items, user.ToProfileResponse(u))
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, items)
}

func (h *Handler) ListSurveysHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListSurveysHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	rows, err := h.surveys.ListAll(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, rows)
}

func (h *Handler) UpdateUserRoleHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateUserRoleHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("userId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req UpdateRoleRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	updated, err := h.users.UpdateRole(traceCtx, id, user.Role(req.Role))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, user.ToProfileResponse(updated))
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteUserHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("userId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.sessions.InactivateUserTokens(traceCtx, id); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.users.Delete(traceCtx, id); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	logger.Info("User hard-deleted by admin", zap.String("user_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteSurveyHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteSurveyHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	id, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	if err := h.surveys.Delete(traceCtx, id, currentUser.ID, true); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	logger.Info("Survey hard-deleted by admin", zap.String("survey_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}
