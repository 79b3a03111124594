package response

import (
	"context"
	"net/http"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey"
	"campuspoll/survey-backend/internal/user"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type MyResponseItem struct {
	ResponseID     string    `json:"responseId"`
	SurveyID       string    `json:"surveyId"`
	SurveyTitle    string    `json:"surveyTitle"`
	SurveyCategory string    `json:"surveyCategory"`
	SurveyDeadline string    `json:"surveyDeadline"`
	DDay           string    `json:"dDay"`
	RespondedAt    time.Time `json:"respondedAt"`
}

type Store interface {
	ListByRespondent(ctx context.Context, respondentID uuid.UUID) ([]ListByRespondentRow, error)
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
		tracer:        otel.Tracer("response/handler"),
		problemWriter: problemWriter,
		store:         store,
	}
}

// ListMineHandler lists the surveys the requester has responded to, newest
// response first.
func (h *Handler) ListMineHandler(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListMineHandler")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	currentUser, ok := user.GetFromContext(traceCtx)
	if !ok {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoUserInContext, logger)
		return
	}

	rows, err := h.store.ListByRespondent(traceCtx, currentUser.ID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	now := time.Now()
	items := make([]MyResponseItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, MyResponseItem{
			ResponseID:     row.ID.String(),
			SurveyID:       row.SurveyID.String(),
			SurveyTitle:    row.SurveyTitle,
			SurveyCategory: row.SurveyCategory,
			SurveyDeadline: row.SurveyDeadline.Time.Format(survey.DateLayout),
			DDay:           survey.DDayLabel(row.SurveyDeadline.Time, now),
			RespondedAt:    row.CreatedAt.Time,
		})
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, items)
}
