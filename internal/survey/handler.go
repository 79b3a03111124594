package survey

import (
	"context"
	"net/http"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey/question"
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

type QuestionRequest struct {
	Text       string   `json:"text" validate:"required"`
	Type       string   `json:"type" validate:"required"`
	IsRequired bool     `json:"isRequired"`
	Options    []string `json:"options"`
}

type Request struct {
	Title            string            `json:"title" validate:"required,max=200"`
	Description      string            `json:"description" validate:"max=2000"`
	Category         string            `json:"category" validate:"required"`
	Deadline         string            `json:"deadline" validate:"required,calendar_date"`
	MaxResponses     *int32            `json:"maxResponses" validate:"omitempty,min=1"`
	IsPublic         *bool             `json:"isPublic"`
	ResultVisibility string            `json:"resultVisibility" validate:"required,oneof=public respondents private"`
	Questions        []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type OptionResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuestionResponse struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	Type       string           `json:"type"`
	OrderIndex int32            `json:"orderIndex"`
	IsRequired bool             `json:"isRequired"`
	Options    []OptionResponse `json:"options,omitempty"`
}

type Response struct {
	ID               string             `json:"id"`
	CreatorID        string             `json:"creatorId"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Category         string             `json:"category"`
	Deadline         string             `json:"deadline"`
	DDay             string             `json:"dDay"`
	MaxResponses     *int32             `json:"maxResponses"`
	IsPublic         bool               `json:"isPublic"`
	Status           string             `json:"status"`
	ResultVisibility string             `json:"resultVisibility"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
	Questions        []QuestionResponse `json:"questions,omitempty"`
}

type ListItemResponse struct {
	Response
	CreatorNickname string `json:"creatorNickname"`
	ResponseCount   int64  `json:"responseCount"`
}

type DetailResponse struct {
	Response
	ResponseCount int64 `json:"responseCount"`
	HasResponded  bool  `json:"hasResponded"`
}

type MyListItemResponse struct {
	Response
	ResponseCount int64 `json:"responseCount"`
	Editable      bool  `json:"editable"`
}

func toResponse(s Survey) Response {
	var maxResponses *int32
	if s.MaxResponses.Valid {
		v := s.MaxResponses.Int32
		maxResponses = &v
	}

	return Response{
		ID:               s.ID.String(),
		CreatorID:        s.CreatorID.String(),
		Title:            s.Title,
		Description:      s.Description.String,
		Category:         string(s.Category),
		Deadline:         s.Deadline.Time.Format(DateLayout),
		DDay:             DDayLabel(s.Deadline.Time, time.Now()),
		MaxResponses:     maxResponses,
		IsPublic:         s.IsPublic,
		Status:           string(s.Status),
		ResultVisibility: string(s.ResultVisibility),
		CreatedAt:        s.CreatedAt.Time,
		UpdatedAt:        s.UpdatedAt.Time,
	}
}

func toDetailBody(d Detail) Response {
	resp := toResponse(d.Survey)
	resp.Questions = make([]QuestionResponse, 0, len(d.Questions))
	for _, q := range d.Questions {
		qr := QuestionResponse{
			ID:         q.ID.String(),
			Text:       q.Text,
			Type:       string(q.Type),
			OrderIndex: q.OrderIndex,
			IsRequired: q.IsRequired,
		}
		for _, opt := range d.Options[q.ID] {
			qr.Options = append(qr.Options, OptionResponse{ID: opt.ID.String(), Text: opt.Text})
		}
		resp.Questions = append(resp.Questions, qr)
	}
	return resp
}

func toInput(req Request) Input {
	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	questions := make([]QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, QuestionInput{
			Text:       q.Text,
			Type:       question.Type(q.Type),
			IsRequired: q.IsRequired,
			Options:    q.Options,
		})
	}

	return Input{
		Title:            req.Title,
		Description:      req.Description,
		Category:         Category(req.Category),
		Deadline:         req.Deadline,
		MaxResponses:     req.MaxResponses,
		IsPublic:         isPublic,
		ResultVisibility: ResultVisibility(req.ResultVisibility),
		Questions:        questions,
	}
}

type Store interface {
	Create(ctx context.Context, creatorID uuid.UUID, input Input) (Detail, error)
	Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, input Input) (Detail, error)
	Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorIsAdmin bool) error
	GetDetail(ctx context.Context, id uuid.UUID) (Detail, error)
	ListPublished(ctx context.Context, category Category) ([]ListPublishedRow, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]ListByCreatorRow, error)
	CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error)
}

type respondedChecker interface {
	Exists(ctx context.Context, surveyID uuid.UUID, respondentID uuid.UUID) (bool, error)
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	store     Store
	responses respondedChecker
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	store Store,
	responses respondedChecker,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("survey/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
		responses:     responses,
	}
}

func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	detail, err := h.store.Create(traceCtx, currentUser.ID, toInput(req))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, toDetailBody(detail))
}

func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateHandler")
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

	var req Request
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	detail, err := h.store.Update(traceCtx, id, currentUser.ID, toInput(req))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, toDetailBody(detail))
}

func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteHandler")
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

	err = h.store.Delete(traceCtx, id, currentUser.ID, currentUser.Role == user.RoleAdmin)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("surveyId"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	detail, err := h.store.GetDetail(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	responseCount, err := h.store.CountResponses(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	hasResponded := false
	if currentUser, ok := user.GetFromContext(traceCtx); ok {
		hasResponded, err = h.responses.Exists(traceCtx, id, currentUser.ID)
		if err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, DetailResponse{
		Response:      toDetailBody(detail),
		ResponseCount: responseCount,
		HasResponded:  hasResponded,
	})
}

func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	category := Category(r.URL.Query().Get("category"))

	rows, err := h.store.ListPublished(traceCtx, category)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	items := make([]ListItemResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, ListItemResponse{
			Response:        toResponse(row.Survey),
			CreatorNickname: row.CreatorNickname,
			ResponseCount:   row.ResponseCount,
		})
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, items)
}

// ListMineHandler lists the requester's own surveys with response counts; a
// survey stays editable only while it has no responses and is still open.
func (h *Handler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListMineHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	rows, err := h.store.ListByCreator(traceCtx, currentUser.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	now := time.Now()
	items := make([]MyListItemResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, MyListItemResponse{
			Response:      toResponse(row.Survey),
			ResponseCount: row.ResponseCount,
			Editable:      row.ResponseCount == 0 && !IsClosed(row.Deadline.Time, now),
		})
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, items)
}
