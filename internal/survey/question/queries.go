package question

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Type string

const (
	TypeSingleChoice   Type = "single_choice"
	TypeMultipleChoice Type = "multiple_choice"
	TypeShortText      Type = "short_text"
	TypeLongText       Type = "long_text"
)

// IsChoice reports whether the type carries options.
func (t Type) IsChoice() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice
}

// IsText reports whether the type takes a free-text answer.
func (t Type) IsText() bool {
	return t == TypeShortText || t == TypeLongText
}

// Supported reports whether answers of this type can be authored and
// submitted.
func (t Type) Supported() bool {
	return t.IsChoice() || t.IsText()
}

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

type Question struct {
	ID         uuid.UUID
	SurveyID   uuid.UUID
	Text       string
	Type       Type
	OrderIndex int32
	IsRequired bool
}

type Option struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Text       string
	OrderIndex int32
}

const create = `
INSERT INTO questions (survey_id, question_text, question_type, order_index, is_required)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, survey_id, question_text, question_type, order_index, is_required
`

type CreateParams struct {
	SurveyID   uuid.UUID
	Text       string
	Type       Type
	OrderIndex int32
	IsRequired bool
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Question, error) {
	row := q.db.QueryRow(ctx, create, arg.SurveyID, arg.Text, arg.Type, arg.OrderIndex, arg.IsRequired)
	var i Question
	err := row.Scan(&i.ID, &i.SurveyID, &i.Text, &i.Type, &i.OrderIndex, &i.IsRequired)
	return i, err
}

const createOption = `
INSERT INTO question_options (question_id, option_text, order_index)
VALUES ($1, $2, $3)
RETURNING id, question_id, option_text, order_index
`

type CreateOptionParams struct {
	QuestionID uuid.UUID
	Text       string
	OrderIndex int32
}

func (q *Queries) CreateOption(ctx context.Context, arg CreateOptionParams) (Option, error) {
	row := q.db.QueryRow(ctx, createOption, arg.QuestionID, arg.Text, arg.OrderIndex)
	var i Option
	err := row.Scan(&i.ID, &i.QuestionID, &i.Text, &i.OrderIndex)
	return i, err
}

const listBySurvey = `
SELECT id, survey_id, question_text, question_type, order_index, is_required
FROM questions
WHERE survey_id = $1
ORDER BY order_index
`

func (q *Queries) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]Question, error) {
	rows, err := q.db.Query(ctx, listBySurvey, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Question
	for rows.Next() {
		var i Question
		if err := rows.Scan(&i.ID, &i.SurveyID, &i.Text, &i.Type, &i.OrderIndex, &i.IsRequired); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listOptionsBySurvey = `
SELECT o.id, o.question_id, o.option_text, o.order_index
FROM question_options o
JOIN questions q ON q.id = o.question_id
WHERE q.survey_id = $1
ORDER BY q.order_index, o.order_index
`

func (q *Queries) ListOptionsBySurvey(ctx context.Context, surveyID uuid.UUID) ([]Option, error) {
	rows, err := q.db.Query(ctx, listOptionsBySurvey, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Option
	for rows.Next() {
		var i Option
		if err := rows.Scan(&i.ID, &i.QuestionID, &i.Text, &i.OrderIndex); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteBySurvey = `
DELETE FROM questions
WHERE survey_id = $1
`

// DeleteBySurvey removes a survey's questions; options cascade at the
// database level.
func (q *Queries) DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteBySurvey, surveyID)
	return err
}
