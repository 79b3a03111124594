package submit

import (
	"context"
	"net/http"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey/response"
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

type AnswerRequest struct {
	QuestionID string   `json:"questionId" validate:"required,uuid"`
	Options    []string `json:"options"`
	Text       string   `json:"text"`
}

type Request struct {
	Answers []AnswerRequest `json:"answers" validate:"dive"`
}

type Response struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"surveyId"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Store interface {
	Submit(ctx context.Context, surveyID uuid.UUID, respondentID uuid.UUID, inputs []AnswerInput) (response.Response, error)
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
		tracer:        otel.Tracer("submit/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SubmitHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	inputs := make([]AnswerInput, 0, len(req.Answers))
	for _, a := range req.Answers {
		questionID, err := handlerutil.ParseUUID(a.QuestionID)
		if err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
		inputs = append(inputs, AnswerInput{
			QuestionID: questionID,
			Options:    a.Options,
			Text:       a.Text,
		})
	}

	created, err := h.store.Submit(traceCtx, surveyID, currentUser.ID, inputs)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, Response{
		ID:          created.ID.String(),
		SurveyID:    created.SurveyID.String(),
		SubmittedAt: created.CreatedAt.Time,
	})
}
