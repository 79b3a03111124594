package response

import (
	"context"

	"campuspoll/survey-backend/internal/survey/answer"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type Response struct {
	ID           uuid.UUID
	SurveyID     uuid.UUID
	RespondentID uuid.UUID
	CreatedAt    pgtype.Timestamptz
}

const create = `
INSERT INTO responses (survey_id, respondent_id)
VALUES ($1, $2)
RETURNING id, survey_id, respondent_id, created_at
`

type CreateParams struct {
	SurveyID     uuid.UUID
	RespondentID uuid.UUID
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Response, error) {
	row := q.db.QueryRow(ctx, create, arg.SurveyID, arg.RespondentID)
	var i Response
	err := row.Scan(&i.ID, &i.SurveyID, &i.RespondentID, &i.CreatedAt)
	return i, err
}

const exists = `
SELECT EXISTS (
    SELECT 1 FROM responses
    WHERE survey_id = $1 AND respondent_id = $2
)
`

type ExistsParams struct {
	SurveyID     uuid.UUID
	RespondentID uuid.UUID
}

func (q *Queries) Exists(ctx context.Context, arg ExistsParams) (bool, error) {
	row := q.db.QueryRow(ctx, exists, arg.SurveyID, arg.RespondentID)
	var ok bool
	err := row.Scan(&ok)
	return ok, err
}

const countBySurvey = `
SELECT count(*) FROM responses
WHERE survey_id = $1
`

func (q *Queries) CountBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countBySurvey, surveyID)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const countAll = `
SELECT count(*) FROM responses
`

func (q *Queries) CountAll(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAll)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const createAnswer = `
INSERT INTO answers (response_id, question_id, selected_option_id, selected_option_ids, text_answer)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

type CreateAnswerParams struct {
	ResponseID uuid.UUID
	QuestionID uuid.UUID
	Value      answer.Value
}

// CreateAnswer stores a tagged answer value, populating exactly one of the
// three payload columns.
func (q *Queries) CreateAnswer(ctx context.Context, arg CreateAnswerParams) (uuid.UUID, error) {
	var (
		optionID  *uuid.UUID
		optionIDs []uuid.UUID
		text      pgtype.Text
	)

	switch arg.Value.Kind() {
	case answer.KindSingleChoice:
		id := arg.Value.OptionID()
		optionID = &id
	case answer.KindMultipleChoice:
		optionIDs = arg.Value.OptionIDs()
	case answer.KindText:
		text = pgtype.Text{String: arg.Value.Text(), Valid: true}
	}

	row := q.db.QueryRow(ctx, createAnswer, arg.ResponseID, arg.QuestionID, optionID, optionIDs, text)
	var id uuid.UUID
	err := row.Scan(&id)
	return id, err
}

const listByRespondent = `
SELECT r.id, r.survey_id, r.respondent_id, r.created_at,
       s.title, s.category, s.deadline
FROM responses r
JOIN surveys s ON s.id = r.survey_id
WHERE r.respondent_id = $1
ORDER BY r.created_at DESC
`

type ListByRespondentRow struct {
	Response
	SurveyTitle    string
	SurveyCategory string
	SurveyDeadline pgtype.Date
}

func (q *Queries) ListByRespondent(ctx context.Context, respondentID uuid.UUID) ([]ListByRespondentRow, error) {
	rows, err := q.db.Query(ctx, listByRespondent, respondentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListByRespondentRow
	for rows.Next() {
		var i ListByRespondentRow
		if err := rows.Scan(
			&i.ID, &i.SurveyID, &i.RespondentID, &i.CreatedAt,
			&i.SurveyTitle, &i.SurveyCategory, &i.SurveyDeadline,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteResponse = `
DELETE FROM responses
WHERE id = $1
`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteResponse, id)
	return err
}
