package user

import (
	"context"
	"net/http"
	"time"

	"campuspoll/survey-backend/internal"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UpdateProfileRequest struct {
	Nickname   string `json:"nickname" validate:"required,nickname_rules"`
	SchoolName string `json:"schoolName" validate:"omitempty,max=100"`
}

type ProfileResponse struct {
	ID         string    `json:"id"`
	Nickname   string    `json:"nickname"`
	SchoolName string    `json:"schoolName"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToProfileResponse(u User) ProfileResponse {
	return ProfileResponse{
		ID:         u.ID.String(),
		Nickname:   u.Nickname,
		SchoolName: u.SchoolName.String,
		Role:       string(u.Role),
		CreatedAt:  u.CreatedAt.Time,
	}
}

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, nickname, schoolName string) (User, error)
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	store Store
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	store Store,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("user/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetMeHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToProfileResponse(*currentUser))
}

func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateMeHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	var req UpdateProfileRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	updated, err := h.store.UpdateProfile(traceCtx, currentUser.ID, req.Nickname, req.SchoolName)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, ToProfileResponse(updated))
}
