package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campuspoll/survey-backend/internal"
	"campuspoll/survey-backend/internal/survey/question"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type QuestionInput struct {
	Text       string
	Type       question.Type
	IsRequired bool
	Options    []string
}

type Input struct {
	Title            string
	Description      string
	Category         Category
	Deadline         string
	MaxResponses     *int32
	IsPublic         bool
	ResultVisibility ResultVisibility
	Questions        []QuestionInput
}

// Detail is a survey with its ordered questions and options loaded.
type Detail struct {
	Survey    Survey
	Questions []question.Question
	Options   map[uuid.UUID][]question.Option
}

type Service struct {
	logger    *zap.Logger
	pool      *pgxpool.Pool
	queries   *Queries
	questions *question.Queries
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
}

func NewService(logger *zap.Logger, pool *pgxpool.Pool) *Service {
	return &Service{
		logger:    logger,
		pool:      pool,
		queries:   New(pool),
		questions: question.New(pool),
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("survey/service"),
	}
}

// ValidateQuestions checks the authoring rules for a question list: at least
// one question, supported types only, non-empty text, and for choice questions
// at least two trimmed, case-insensitively unique option labels.
func ValidateQuestions(inputs []QuestionInput) error {
	if len(inputs) == 0 {
		return internal.ErrNoQuestions
	}

	for i, q := range inputs {
		number := i + 1

		if !q.Type.Supported() {
			return fmt.Errorf("%w: question %d has type %q", internal.ErrUnsupportedQuestionType, number, q.Type)
		}

		if strings.TrimSpace(q.Text) == "" {
			return internal.ErrQuestionOptionsInvalid{
				QuestionNumber: number,
				QuestionText:   q.Text,
				Reason:         "question text must not be empty",
			}
		}

		if !q.Type.IsChoice() {
			continue
		}

		seen := make(map[string]struct{}, len(q.Options))
		for _, opt := range q.Options {
			trimmed := strings.TrimSpace(opt)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			if _, dup := seen[key]; dup {
				return internal.ErrQuestionOptionsInvalid{
					QuestionNumber: number,
					QuestionText:   q.Text,
					Reason:         fmt.Sprintf("duplicate option %q", trimmed),
				}
			}
			seen[key] = struct{}{}
		}

		if len(seen) < 2 {
			return internal.ErrQuestionOptionsInvalid{
				QuestionNumber: number,
				QuestionText:   q.Text,
				Reason:         "choice questions require at least two distinct options",
			}
		}
	}

	return nil
}

func (s *Service) parseDeadline(deadline string) (pgtype.Date, error) {
	t, err := time.Parse(DateLayout, deadline)
	if err != nil {
		return pgtype.Date{}, internal.ErrInvalidDeadline
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}

func (s *Service) sanitizeInput(input *Input) {
	input.Title = strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	input.Description = strings.TrimSpace(s.sanitizer.Sanitize(input.Description))
	for i := range input.Questions {
		q := &input.Questions[i]
		q.Text = strings.TrimSpace(s.sanitizer.Sanitize(q.Text))
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(s.sanitizer.Sanitize(q.Options[j]))
		}
	}
}

// Create writes the survey with its questions and options in one transaction.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, input Input) (Detail, error) {
	traceCtx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	s.sanitizeInput(&input)

	if !ValidCategory(input.Category) {
		return Detail{}, internal.ErrInvalidCategory
	}
	if err := ValidateQuestions(input.Questions); err != nil {
		return Detail{}, err
	}
	deadline, err := s.parseDeadline(input.Deadline)
	if err != nil {
		return Detail{}, err
	}

	tx, err := s.pool.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin create survey transaction")
		span.RecordError(err)
		return Detail{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	created, err := s.queries.WithTx(tx).Create(traceCtx, CreateParams{
		CreatorID:        creatorID,
		Title:            input.Title,
		Description:      pgtype.Text{String: input.Description, Valid: input.Description != ""},
		Category:         input.Category,
		Deadline:         deadline,
		MaxResponses:     toMaxResponses(input.MaxResponses),
		IsPublic:         input.IsPublic,
		Status:           StatusPublished,
		ResultVisibility: input.ResultVisibility,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create survey")
		span.RecordError(err)
		return Detail{}, err
	}

	questions, options, err := s.writeQuestions(traceCtx, tx, created.ID, input.Questions)
	if err != nil {
		span.RecordError(err)
		return Detail{}, err
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit create survey transaction")
		span.RecordError(err)
		return Detail{}, err
	}

	logger.Info("Survey created",
		zap.String("survey_id", created.ID.String()),
		zap.String("creator_id", creatorID.String()),
		zap.Int("questions", len(questions)))

	return Detail{Survey: created, Questions: questions, Options: options}, nil
}

// Update replaces the survey and its entire question list in one transaction.
// Question and option IDs are not stable across edits.
func (s *Service) Update(ctx context.Context, id uuid.UUID, actorID uuid.UUID, input Input) (Detail, error) {
	traceCtx, span := s.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	current, err := s.GetByID(traceCtx, id)
	if err != nil {
		return Detail{}, err
	}
	if current.CreatorID != actorID {
		return Detail{}, internal.ErrNotSurveyAuthor
	}
	if IsClosed(current.Deadline.Time, time.Now()) {
		return Detail{}, internal.ErrSurveyClosed
	}

	responseCount, err := s.queries.CountResponses(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count survey responses")
		span.RecordError(err)
		return Detail{}, err
	}
	if responseCount > 0 {
		return Detail{}, internal.ErrSurveyHasResponses
	}

	s.sanitizeInput(&input)

	if !ValidCategory(input.Category) {
		return Detail{}, internal.ErrInvalidCategory
	}
	if err := ValidateQuestions(input.Questions); err != nil {
		return Detail{}, err
	}
	deadline, err := s.parseDeadline(input.Deadline)
	if err != nil {
		return Detail{}, err
	}

	tx, err := s.pool.Begin(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "begin update survey transaction")
		span.RecordError(err)
		return Detail{}, err
	}
	defer func() {
		_ = tx.Rollback(traceCtx)
	}()

	updated, err := s.queries.WithTx(tx).Update(traceCtx, UpdateParams{
		ID:               id,
		Title:            input.Title,
		Description:      pgtype.Text{String: input.Description, Valid: input.Description != ""},
		Category:         input.Category,
		Deadline:         deadline,
		MaxResponses:     toMaxResponses(input.MaxResponses),
		IsPublic:         input.IsPublic,
		Status:           current.Status,
		ResultVisibility: input.ResultVisibility,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "update survey")
		span.RecordError(err)
		return Detail{}, err
	}

	if err := s.questions.WithTx(tx).DeleteBySurvey(traceCtx, id); err != nil {
		err = databaseutil.WrapDBError(err, logger, "delete survey questions for replace")
		span.RecordError(err)
		return Detail{}, err
	}

	questions, options, err := s.writeQuestions(traceCtx, tx, id, input.Questions)
	if err != nil {
		span.RecordError(err)
		return Detail{}, err
	}

	if err := tx.Commit(traceCtx); err != nil {
		err = databaseutil.WrapDBError(err, logger, "commit update survey transaction")
		span.RecordError(err)
		return Detail{}, err
	}

	logger.Info("Survey updated", zap.String("survey_id", id.String()))

	return Detail{Survey: updated, Questions: questions, Options: options}, nil
}

func (s *Service) writeQuestions(ctx context.Context, tx pgx.Tx, surveyID uuid.UUID, inputs []QuestionInput) ([]question.Question, map[uuid.UUID][]question.Option, error) {
	logger := logutil.WithContext(ctx, s.logger)
	txQuestions := s.questions.WithTx(tx)

	questions := make([]question.Question, 0, len(inputs))
	options := make(map[uuid.UUID][]question.Option)

	for i, input := range inputs {
		created, err := txQuestions.Create(ctx, question.CreateParams{
			SurveyID:   surveyID,
			Text:       input.Text,
			Type:       input.Type,
			OrderIndex: int32(i + 1),
			IsRequired: input.IsRequired,
		})
		if err != nil {
			return nil, nil, databaseutil.WrapDBError(err, logger, "create question")
		}
		questions = append(questions, created)

		if !input.Type.IsChoice() {
			continue
		}

		order := int32(0)
		for _, label := range input.Options {
			trimmed := strings.TrimSpace(label)
			if trimmed == "" {
				continue
			}
			order++
			opt, err := txQuestions.CreateOption(ctx, question.CreateOptionParams{
				QuestionID: created.ID,
				Text:       trimmed,
				OrderIndex: order,
			})
			if err != nil {
				return nil, nil, databaseutil.WrapDBError(err, logger, "create question option")
			}
			options[created.ID] = append(options[created.ID], opt)
		}
	}

	return questions, options, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Survey, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	current, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Survey{}, internal.ErrSurveyNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get survey by id")
		span.RecordError(err)
		return Survey{}, err
	}
	return current, nil
}

// GetDetail loads a survey with its questions and options.
func (s *Service) GetDetail(ctx context.Context, id uuid.UUID) (Detail, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetDetail")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	current, err := s.GetByID(traceCtx, id)
	if err != nil {
		return Detail{}, err
	}

	questions, err := s.questions.ListBySurvey(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list survey questions")
		span.RecordError(err)
		return Detail{}, err
	}

	optionRows, err := s.questions.ListOptionsBySurvey(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list survey options")
		span.RecordError(err)
		return Detail{}, err
	}

	options := make(map[uuid.UUID][]question.Option)
	for _, opt := range optionRows {
		options[opt.QuestionID] = append(options[opt.QuestionID], opt)
	}

	return Detail{Survey: current, Questions: questions, Options: options}, nil
}

// Delete removes a survey and everything under it. Allowed for the author and
// for administrators.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID, actorIsAdmin bool) error {
	traceCtx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	current, err := s.GetByID(traceCtx, id)
	if err != nil {
		return err
	}
	if current.CreatorID != actorID && !actorIsAdmin {
		return internal.ErrNotSurveyAuthor
	}

	if err := s.queries.Delete(traceCtx, id); err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "surveys", "id", id.String(), logger, "delete survey")
		span.RecordError(err)
		return err
	}

	logger.Info("Survey deleted", zap.String("survey_id", id.String()), zap.String("actor_id", actorID.String()))
	return nil
}

func (s *Service) ListPublished(ctx context.Context, category Category) ([]ListPublishedRow, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListPublished")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if category != "" && !ValidCategory(category) {
		return nil, internal.ErrInvalidCategory
	}

	rows, err := s.queries.ListPublished(traceCtx, category)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list published surveys")
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]ListByCreatorRow, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListByCreator")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	rows, err := s.queries.ListByCreator(traceCtx, creatorID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list surveys by creator")
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) ListAll(ctx context.Context) ([]ListPublishedRow, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListAll")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	rows, err := s.queries.ListAll(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list all surveys")
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	traceCtx, span := s.tracer.Start(ctx, "Count")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	n, err := s.queries.Count(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count surveys")
		span.RecordError(err)
		return 0, err
	}
	return n, nil
}

// CountActive counts published surveys whose deadline has not passed.
func (s *Service) CountActive(ctx context.Context) (int64, error) {
	traceCtx, span := s.tracer.Start(ctx, "CountActive")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	today := pgtype.Date{Time: truncateToDate(time.Now()), Valid: true}
	n, err := s.queries.CountActive(traceCtx, today)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count active surveys")
		span.RecordError(err)
		return 0, err
	}
	return n, nil
}

// CountResponses reports how many responses a survey has received.
func (s *Service) CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	traceCtx, span := s.tracer.Start(ctx, "CountResponses")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	n, err := s.queries.CountResponses(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count survey responses")
		span.RecordError(err)
		return 0, err
	}
	return n, nil
}

func toMaxResponses(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}
