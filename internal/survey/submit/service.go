// Package submit implements survey response submission: precondition checks,
// required-question validation, option-label resolution, and the transactional
// write of a response with its answers.
package submit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey"
	"campuspoll/survey-backend/internal/survey/answer"
	"campuspoll/survey-backend/internal/survey/question"
	"campuspoll/survey-backend/internal/survey/response"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AnswerInput is one submitted answer: option labels for choice questions,
// free text for text questions.
type AnswerInput struct {
	QuestionID uuid.UUID
	Options    []string
	Text       string
}

type SurveyStore interface {
	GetDetail(ctx context.Context, id uuid.UUID) (survey.Detail, error)
}

type Service struct {
	logger    *zap.Logger
	pool      *pgxpool.Pool
	surveys   SurveyStore
	responses *response.Queries
	tracer    trace.Tracer
}

func NewService(logger *zap.Logger, pool *pgxpool.Pool, surveys SurveyStore) *Service {
	return &Service{
		logger:    logger,
		pool:      pool,
		surveys:   surveys,
		responses: response.New(pool),
		tracer:    otel.Tracer("submit/service"),
	}
}

// answered reports whether the input actually carries an answer: empty label
// lists and whitespace-only text count as unanswered.
func answered(in AnswerInput) bool {
	for _, opt := range in.Options {
		if strings.TrimSpace(opt) != "" {
			return true
		}
	}
	return strings.TrimSpace(in.Text) != ""
}

// Submit validates the submission against the survey and writes the response
// and its answers in a single transaction. Nothing is written when any part of
// the validation fails.
func (s *Service) Submit(ctx context.Context, surveyID uuid.UUID, respondentID uuid.UUID, inputs []AnswerInput) (response.Response, error) {
	traceCtx, span := s.tracer.Start(ctx, "Submit")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	detail, err := s.surveys.GetDetail(traceCtx, surveyID)
	if err != nil {
		return response.Response{}, err
	}

	if detail.Survey.Status != survey.StatusPublished {
		return response.Response{}, internal.ErrSurveyNotPublished
	}
	if survey.IsClosed(detail.Survey.Deadline.Time, time.Now()) {
		return response.Response{}, internal.ErrSurveyClosed
	}

	if detail.Survey.MaxResponses.Valid {
		count, err := s.responses.CountBySurvey(traceCtx, surveyID)
		if err != nil {
			err = databaseutil.WrapDBError(err, logger, "count responses for capacity check")
			span.RecordError(err)
			return response.Response{}, err
		}
		if count >= int64(detail.Survey.MaxResponses.Int32) {
			return response.Response{}, internal.ErrSurveyFull
		}
	}

	already, err := s.responses.Exists(traceCtx, response.ExistsParams{SurveyID: surveyID, RespondentID: respondentID})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check prior response")
		span.RecordError(err)
		return response.Response{}, err
	}
	if already {
		return response.Response{}, internal.ErrResponseAlreadyExists
	}

	values, err := buildAnswers(detail, inputs)
	if err != nil {
		return response.Response{}, err
	}

	tx, err := s.pool.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin submission transaction")
		span.RecordError(err)
		return response.Response{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	txResponses := s.responses.WithTx(tx)

	// The duplicate check is application-level (no DB uniqueness on
	// survey_id+respondent_id), so it is repeated inside the transaction to
	// narrow the race window.
	already, err = txResponses.Exists(traceCtx, response.ExistsParams{SurveyID: surveyID, RespondentID: respondentID})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "recheck prior response")
		span.RecordError(err)
		return response.Response{}, err
	}
	if already {
		return response.Response{}, internal.ErrResponseAlreadyExists
	}

	created, err := txResponses.Create(traceCtx, response.CreateParams{SurveyID: surveyID, RespondentID: respondentID})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create response")
		span.RecordError(err)
		return response.Response{}, err
	}

	for questionID, value := range values {
		_, err := txResponses.CreateAnswer(traceCtx, response.CreateAnswerParams{
			ResponseID: created.ID,
			QuestionID: questionID,
			Value:      value,
		})
		if err != nil {
			err = databaseutil.WrapDBError(err, logger, "create answer")
			span.RecordError(err)
			return response.Response{}, err
		}
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit submission transaction")
		span.RecordError(err)
		return response.Response{}, err
	}

	logger.Info("Response submitted",
		zap.String("survey_id", surveyID.String()),
		zap.String("response_id", created.ID.String()),
		zap.Int("answers", len(values)))

	return created, nil
}

// buildAnswers validates inputs against the survey's questions and resolves
// option labels to option IDs, producing the tagged answer value per question.
func buildAnswers(detail survey.Detail, inputs []AnswerInput) (map[uuid.UUID]answer.Value, error) {
	questionsByID := make(map[uuid.UUID]question.Question, len(detail.Questions))
	numberByID := make(map[uuid.UUID]int, len(detail.Questions))
	for i, q := range detail.Questions {
		questionsByID[q.ID] = q
		numberByID[q.ID] = i + 1
	}

	inputsByQuestion := make(map[uuid.UUID]AnswerInput, len(inputs))
	for _, in := range inputs {
		if _, known := questionsByID[in.QuestionID]; !known {
			return nil, fmt.Errorf("%w: %s", internal.ErrQuestionNotFound, in.QuestionID)
		}
		inputsByQuestion[in.QuestionID] = in
	}

	var missing []int
	for _, q := range detail.Questions {
		if !q.IsRequired {
			continue
		}
		in, ok := inputsByQuestion[q.ID]
		if !ok || !answered(in) {
			missing = append(missing, numberByID[q.ID])
		}
	}
	if len(missing) > 0 {
		return nil, internal.ErrRequiredQuestionsUnanswered{QuestionNumbers: missing}
	}

	values := make(map[uuid.UUID]answer.Value, len(inputsByQuestion))
	for questionID, in := range inputsByQuestion {
		if !answered(in) {
			continue
		}

		q := questionsByID[questionID]
		if !q.Type.Supported() {
			return nil, fmt.Errorf("%w: %q", internal.ErrUnsupportedQuestionType, q.Type)
		}

		if q.Type.IsText() {
			values[questionID] = answer.Text(strings.TrimSpace(in.Text))
			continue
		}

		optionIDs, err := resolveLabels(q, numberByID[questionID], detail.Options[questionID], in.Options)
		if err != nil {
			return nil, err
		}

		value, err := answer.For(q.Type, optionIDs, "")
		if err != nil {
			return nil, err
		}
		values[questionID] = value
	}

	return values, nil
}

// resolveLabels maps submitted option labels to the question's option IDs.
// Any label that does not match an option aborts the whole submission.
func resolveLabels(q question.Question, number int, options []question.Option, labels []string) ([]uuid.UUID, error) {
	idByLabel := make(map[string]uuid.UUID, len(options))
	for _, opt := range options {
		idByLabel[opt.Text] = opt.ID
	}

	var ids []uuid.UUID
	for _, label := range labels {
		trimmed := strings.TrimSpace(label)
		if trimmed == "" {
			continue
		}
		id, ok := idByLabel[trimmed]
		if !ok {
			return nil, internal.ErrQuestionOptionsInvalid{
				QuestionNumber: number,
				QuestionText:   q.Text,
				Reason:         fmt.Sprintf("option %q does not exist", trimmed),
			}
		}
		ids = append(ids, id)
	}

	if q.Type == question.TypeSingleChoice && len(ids) != 1 {
		return nil, internal.ErrQuestionOptionsInvalid{
			QuestionNumber: number,
			QuestionText:   q.Text,
			Reason:         fmt.Sprintf("single choice requires exactly one option, got %d", len(ids)),
		}
	}

	return ids, nil
}
