package survey

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

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

type ResultVisibility string

const (
	VisibilityPublic      ResultVisibility = "public"
	VisibilityRespondents ResultVisibility = "respondents"
	VisibilityPrivate     ResultVisibility = "private"
)

type Category string

const (
	CategoryAcademics  Category = "academics"
	CategoryCampusLife Category = "campus_life"
	CategoryInterests  Category = "interests"
	CategoryConsumer   Category = "consumer"
	CategorySociety    Category = "society"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryAcademics, CategoryCampusLife, CategoryInterests, CategoryConsumer, CategorySociety:
		return true
	}
	return false
}

type Survey struct {
	ID               uuid.UUID
	CreatorID        uuid.UUID
	Title            string
	Description      pgtype.Text
	Category         Category
	Deadline         pgtype.Date
	MaxResponses     pgtype.Int4
	IsPublic         bool
	Status           Status
	ResultVisibility ResultVisibility
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

const create = `
INSERT INTO surveys (creator_id, title, description, category, deadline, max_responses, is_public, status, result_visibility)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, creator_id, title, description, category, deadline, max_responses, is_public, status, result_visibility, created_at, updated_at
`

type CreateParams struct {
	CreatorID        uuid.UUID
	Title            string
	Description      pgtype.Text
	Category         Category
	Deadline         pgtype.Date
	MaxResponses     pgtype.Int4
	IsPublic         bool
	Status           Status
	ResultVisibility ResultVisibility
}

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Survey, error) {
	row := q.db.QueryRow(ctx, create,
		arg.CreatorID,
		arg.Title,
		arg.Description,
		arg.Category,
		arg.Deadline,
		arg.MaxResponses,
		arg.IsPublic,
		arg.Status,
		arg.ResultVisibility,
	)
	return scanSurvey(row)
}

const update = `
UPDATE surveys
SET title = $2, description = $3, category = $4, deadline = $5, max_responses = $6, is_public = $7, status = $8, result_visibility = $9, updated_at = now()
WHERE id = $1
RETURNING id, creator_id, title, description, category, deadline, max_responses, is_public, status, result_visibility, created_at, updated_at
`

type UpdateParams struct {
	ID               uuid.UUID
	Title            string
	Description      pgtype.Text
	Category         Category
	Deadline         pgtype.Date
	MaxResponses     pgtype.Int4
	IsPublic         bool
	Status           Status
	ResultVisibility ResultVisibility
}

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Survey, error) {
	row := q.db.QueryRow(ctx, update,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.Category,
		arg.Deadline,
		arg.MaxResponses,
		arg.IsPublic,
		arg.Status,
		arg.ResultVisibility,
	)
	return scanSurvey(row)
}

const getByID = `
SELECT id, creator_id, title, description, category, deadline, max_responses, is_public, status, result_visibility, created_at, updated_at
FROM surveys
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Survey, error) {
	row := q.db.QueryRow(ctx, getByID, id)
	return scanSurvey(row)
}

const deleteSurvey = `
DELETE FROM surveys
WHERE id = $1
`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteSurvey, id)
	return err
}

const listPublished = `
SELECT s.id, s.creator_id, s.title, s.description, s.category, s.deadline, s.max_responses, s.is_public, s.status, s.result_visibility, s.created_at, s.updated_at,
       u.nickname AS creator_nickname,
       (SELECT count(*) FROM responses r WHERE r.survey_id = s.id) AS response_count
FROM surveys s
JOIN users u ON u.id = s.creator_id
WHERE s.status = 'published' AND s.is_public = true
  AND ($1::text = '' OR s.category = $1)
ORDER BY s.created_at DESC
`

type ListPublishedRow struct {
	Survey
	CreatorNickname string
	ResponseCount   int64
}

func (q *Queries) ListPublished(ctx context.Context, category Category) ([]ListPublishedRow, error) {
	rows, err := q.db.Query(ctx, listPublished, string(category))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPublishedRow
	for rows.Next() {
		var i ListPublishedRow
		if err := rows.Scan(
			&i.ID, &i.CreatorID, &i.Title, &i.Description, &i.Category, &i.Deadline,
			&i.MaxResponses, &i.IsPublic, &i.Status, &i.ResultVisibility, &i.CreatedAt, &i.UpdatedAt,
			&i.CreatorNickname, &i.ResponseCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listByCreator = `
SELECT s.id, s.creator_id, s.title, s.description, s.category, s.deadline, s.max_responses, s.is_public, s.status, s.result_visibility, s.created_at, s.updated_at,
       (SELECT count(*) FROM responses r WHERE r.survey_id = s.id) AS response_count
FROM surveys s
WHERE s.creator_id = $1
ORDER BY s.created_at DESC
`

type ListByCreatorRow struct {
	Survey
	ResponseCount int64
}

func (q *Queries) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]ListByCreatorRow, error) {
	rows, err := q.db.Query(ctx, listByCreator, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListByCreatorRow
	for rows.Next() {
		var i ListByCreatorRow
		if err := rows.Scan(
			&i.ID, &i.CreatorID, &i.Title, &i.Description, &i.Category, &i.Deadline,
			&i.MaxResponses, &i.IsPublic, &i.Status, &i.ResultVisibility, &i.CreatedAt, &i.UpdatedAt,
			&i.ResponseCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listAll = `
SELECT s.id, s.creator_id, s.title, s.description, s.category, s.deadline, s.max_responses, s.is_public, s.status, s.result_visibility, s.created_at, s.updated_at,
       u.nickname AS creator_nickname,
       (SELECT count(*) FROM responses r WHERE r.survey_id = s.id) AS response_count
FROM surveys s
JOIN users u ON u.id = s.creator_id
ORDER BY s.created_at DESC
`

func (q *Queries) ListAll(ctx context.Context) ([]ListPublishedRow, error) {
	rows, err := q.db.Query(ctx, listAll)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPublishedRow
	for rows.Next() {
		var i ListPublishedRow
		if err := rows.Scan(
			&i.ID, &i.CreatorID, &i.Title, &i.Description, &i.Category, &i.Deadline,
			&i.MaxResponses, &i.IsPublic, &i.Status, &i.ResultVisibility, &i.CreatedAt, &i.UpdatedAt,
			&i.CreatorNickname, &i.ResponseCount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const count = `
SELECT count(*) FROM surveys
`

func (q *Queries) Count(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, count)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const countActive = `
SELECT count(*) FROM surveys
WHERE status = 'published' AND deadline >= $1
`

func (q *Queries) CountActive(ctx context.Context, today pgtype.Date) (int64, error) {
	row := q.db.QueryRow(ctx, countActive, today)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const countResponses = `
SELECT count(*) FROM responses
WHERE survey_id = $1
`

func (q *Queries) CountResponses(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countResponses, surveyID)
	var n int64
	err := row.Scan(&n)
	return n, err
}

func scanSurvey(row pgx.Row) (Survey, error) {
	var i Survey
	err := row.Scan(
		&i.ID, &i.CreatorID, &i.Title, &i.Description, &i.Category, &i.Deadline,
		&i.MaxResponses, &i.IsPublic, &i.Status, &i.ResultVisibility, &i.CreatedAt, &i.UpdatedAt,
	)
	return i, err
}
