package response

import (
	"context"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Service struct {
	logger  *zap.Logger
	queries *Queries
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db DBTX) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		tracer:  otel.Tracer("response/service"),
	}
}

func (s *Service) Exists(ctx context.Context, surveyID uuid.UUID, respondentID uuid.UUID) (bool, error) {
	traceCtx, span := s.tracer.Start(ctx, "Exists")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	ok, err := s.queries.Exists(traceCtx, ExistsParams{SurveyID: surveyID, RespondentID: respondentID})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check response existence")
		span.RecordError(err)
		return false, err
	}
	return ok, nil
}

func (s *Service) CountBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	traceCtx, span := s.tracer.Start(ctx, "CountBySurvey")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	n, err := s.queries.CountBySurvey(traceCtx, surveyID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "responses", "survey_id", surveyID.String(), logger, "count responses by survey")
		span.RecordError(err)
		return 0, err
	}
	return n, nil
}

func (s *Service) CountAll(ctx context.Context) (int64, error) {
	traceCtx, span := s.tracer.Start(ctx, "CountAll")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	n, err := s.queries.CountAll(traceCtx)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count all responses")
		span.RecordError(err)
		return 0, err
	}
	return n, nil
}

// ListByRespondent lists the surveys a user has responded to, newest response
// first.
func (s *Service) ListByRespondent(ctx context.Context, respondentID uuid.UUID) ([]ListByRespondentRow, error) {
	traceCtx, span := s.tracer.Start(ctx, "ListByRespondent")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	rows, err := s.queries.ListByRespondent(traceCtx, respondentID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "responses", "respondent_id", respondentID.String(), logger, "list responses by respondent")
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}
