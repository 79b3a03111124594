package results

import (
	"context"

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

const optionCounts = `
SELECT o.question_id, o.id, o.option_text, o.order_index,
       (SELECT count(*) FROM answers a
        WHERE a.selected_option_id = o.id
           OR o.id = ANY(a.selected_option_ids)) AS answer_count
FROM question_options o
JOIN questions q ON q.id = o.question_id
WHERE q.survey_id = $1
ORDER BY q.order_index, o.order_index
`

type OptionCountRow struct {
	QuestionID  uuid.UUID
	OptionID    uuid.UUID
	OptionText  string
	OrderIndex  int32
	AnswerCount int64
}

func (q *Queries) OptionCounts(ctx context.Context, surveyID uuid.UUID) ([]OptionCountRow, error) {
	rows, err := q.db.Query(ctx, optionCounts, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OptionCountRow
	for rows.Next() {
		var i OptionCountRow
		if err := rows.Scan(&i.QuestionID, &i.OptionID, &i.OptionText, &i.OrderIndex, &i.AnswerCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const textAnswers = `
SELECT a.question_id, a.text_answer, r.created_at
FROM answers a
JOIN responses r ON r.id = a.response_id
JOIN questions q ON q.id = a.question_id
WHERE q.survey_id = $1 AND a.text_answer IS NOT NULL
ORDER BY r.created_at DESC
`

type TextAnswerRow struct {
	QuestionID uuid.UUID
	Text       string
	CreatedAt  pgtype.Timestamptz
}

// TextAnswers returns every free-text answer for the survey, newest first.
func (q *Queries) TextAnswers(ctx context.Context, surveyID uuid.UUID) ([]TextAnswerRow, error) {
	rows, err := q.db.Query(ctx, textAnswers, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TextAnswerRow
	for rows.Next() {
		var i TextAnswerRow
		if err := rows.Scan(&i.QuestionID, &i.Text, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
