// Package results aggregates survey answers into per-option counts and text
// answer listings, behind the survey's result visibility gate.
package results

import (
	"context"
	"fmt"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OptionResult struct {
	OptionID   uuid.UUID
	Text       string
	Count      int64
	Percentage string
}

type TextAnswer struct {
	Text        string
	SubmittedAt time.Time
}

type QuestionResult struct {
	QuestionID  uuid.UUID
	Text        string
	Type        string
	OrderIndex  int32
	IsRequired  bool
	Options     []OptionResult
	TextAnswers []TextAnswer
}

type Results struct {
	Survey         survey.Survey
	TotalResponses int64
	Questions      []QuestionResult
}

type SurveyStore interface {
	GetDetail(ctx context.Context, id uuid.UUID) (survey.Detail, error)
	CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error)
}

type respondedChecker interface {
	Exists(ctx context.Context, surveyID uuid.UUID, respondentID uuid.UUID) (bool, error)
}

type Service struct {
	logger    *zap.Logger
	queries   *Queries
	surveys   SurveyStore
	responses respondedChecker
	tracer    trace.Tracer
}

func NewService(logger *zap.Logger, db DBTX, surveys SurveyStore, responses respondedChecker) *Service {
	return &Service{
		logger:    logger,
		queries:   New(db),
		surveys:   surveys,
		responses: responses,
		tracer:    otel.Tracer("results/service"),
	}
}

// Percentage renders count/total as a share of one hundred with one decimal,
// "0.0" when the survey has no responses.
func Percentage(count, total int64) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(count)/float64(total)*100)
}

// authorize applies the result visibility gate. The author always passes;
// otherwise public results are open, respondent-gated results require a prior
// response by the requester, and private results are author-only. Admins are
// not implicitly allowed.
func (s *Service) authorize(ctx context.Context, sv survey.Survey, requesterID uuid.UUID, authenticated bool) error {
	if authenticated && sv.CreatorID == requesterID {
		return nil
	}

	switch sv.ResultVisibility {
	case survey.VisibilityPublic:
		return nil
	case survey.VisibilityRespondents:
		if !authenticated {
			return internal.ErrResultsRespondentsOnly
		}
		responded, err := s.responses.Exists(ctx, sv.ID, requesterID)
		if err != nil {
			return err
		}
		if !responded {
			return internal.ErrResultsRespondentsOnly
		}
		return nil
	default:
		return internal.ErrResultsAuthorOnly
	}
}

// Get aggregates the survey's results for a requester, enforcing the
// visibility gate first.
func (s *Service) Get(ctx context.Context, surveyID uuid.UUID, requesterID uuid.UUID, authenticated bool) (Results, error) {
	traceCtx, span := s.tracer.Start(ctx, "Get")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	detail, err := s.surveys.GetDetail(traceCtx, surveyID)
	if err != nil {
		return Results{}, err
	}

	if err := s.authorize(traceCtx, detail.Survey, requesterID, authenticated); err != nil {
		return Results{}, err
	}

	total, err := s.surveys.CountResponses(traceCtx, surveyID)
	if err != nil {
		return Results{}, err
	}

	optionRows, err := s.queries.OptionCounts(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "aggregate option counts")
		span.RecordError(err)
		return Results{}, err
	}

	textRows, err := s.queries.TextAnswers(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list text answers")
		span.RecordError(err)
		return Results{}, err
	}

	optionsByQuestion := make(map[uuid.UUID][]OptionResult)
	for _, row := range optionRows {
		optionsByQuestion[row.QuestionID] = append(optionsByQuestion[row.QuestionID], OptionResult{
			OptionID:   row.OptionID,
			Text:       row.OptionText,
			Count:      row.AnswerCount,
			Percentage: Percentage(row.AnswerCount, total),
		})
	}

	textsByQuestion := make(map[uuid.UUID][]TextAnswer)
	for _, row := range textRows {
		textsByQuestion[row.QuestionID] = append(textsByQuestion[row.QuestionID], TextAnswer{
			Text:        row.Text,
			SubmittedAt: row.CreatedAt.Time,
		})
	}

	questions := make([]QuestionResult, 0, len(detail.Questions))
	for _, q := range detail.Questions {
		result := QuestionResult{
			QuestionID: q.ID,
			Text:       q.Text,
			Type:       string(q.Type),
			OrderIndex: q.OrderIndex,
			IsRequired: q.IsRequired,
		}
		if q.Type.IsChoice() {
			result.Options = optionsByQuestion[q.ID]
		} else {
			result.TextAnswers = textsByQuestion[q.ID]
		}
		questions = append(questions, result)
	}

	return Results{
		Survey:         detail.Survey,
		TotalResponses: total,
		Questions:      questions,
	}, nil
}
