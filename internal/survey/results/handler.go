package results

import (
	"context"
	"net/http"
	"time"

	"campuspoll/survey-backend/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OptionResponse struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Count      int64  `json:"count"`
	Percentage string `json:"percentage"`
}

type TextAnswerResponse struct {
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type QuestionResponse struct {
	ID          string               `json:"id"`
	Text        string               `json:"text"`
	Type        string               `json:"type"`
	OrderIndex  int32                `json:"orderIndex"`
	IsRequired  bool                 `json:"isRequired"`
	Options     []OptionResponse     `json:"options,omitempty"`
	TextAnswers []TextAnswerResponse `json:"textAnswers,omitempty"`
}

type Response struct {
	SurveyID       string             `json:"surveyId"`
	Title          string             `json:"title"`
	TotalResponses int64              `json:"totalResponses"`
	Questions      []QuestionResponse `json:"questions"`
}

func toResponse(r Results) Response {
	questions := make([]QuestionResponse, 0, len(r.Questions))
	for _, q := range r.Questions {
		qr := QuestionResponse{
			ID:         q.QuestionID.String(),
			Text:       q.Text,
			Type:       q.Type,
			OrderIndex: q.OrderIndex,
			IsRequired: q.IsRequired,
		}
		for _, opt := range q.Options {
			qr.Options = append(qr.Options, OptionResponse{
				ID:         opt.OptionID.String(),
				Text:       opt.Text,
				Count:      opt.Count,
				Percentage: opt.Percentage,
			})
		}
		for _, text := range q.TextAnswers {
			qr.TextAnswers = append(qr.TextAnswers, TextAnswerResponse{
				Text:        text.Text,
				SubmittedAt: text.SubmittedAt,
			})
		}
		questions = append(questions, qr)
	}

	return Response{
		SurveyID:       r.Survey.ID.String(),
		Title:          r.Survey.Title,
		TotalResponses: r.TotalResponses,
		Questions:      questions,
	}
}

type Store interface {
	Get(ctx context.Context, surveyID uuid.UUID, requesterID uuid.UUID, authenticated bool) (Results, error)
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	problemWriter *problem.HttpWriter

	store Store
}

func NewHandler(
	logger *zap.Logger,
	problemWriter *problem.HttpWriter,
	store Store,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("results/handler"),
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) requester(ctx context.Context) (uuid.UUID, bool) {
	if currentUser, ok := user.GetFromContext(ctx); ok {
		return currentUser.ID, true
	}
	return uuid.Nil, false
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	requesterID, authenticated := h.requester(traceCtx)

	results, err := h.store.Get(traceCtx, surveyID, requesterID, authenticated)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, toResponse(results))
}

// ExportHandler serves the same aggregation as an xlsx workbook, behind the
// same visibility gate.
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ExportHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	surveyID, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	requesterID, authenticated := h.requester(traceCtx)

	results, err := h.store.Get(traceCtx, surveyID, requesterID, authenticated)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	workbook, err := BuildWorkbook(results)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="survey-results.xlsx"`)
	if err := workbook.Write(w); err != nil {
		logger.Error("Failed to stream results workbook", zap.Error(err))
	}
}
