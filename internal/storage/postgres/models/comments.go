package models

import (
	"context"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/storage"
	"imdb/proj/internal/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CommentModel struct {
	DB *pgxpool.Pool
}

func collectComment(rows pgx.Rows, err error) (*models.Comment, error) {
	if err != nil {
		return nil, postgres.MapError(err)
	}
	comment, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Comment])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return comment, nil
}

func (m *CommentModel) List(ctx context.Context, reviewID int64, filters filters.Filters) ([]models.Comment, int, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS count, c.id, c.review_id, c.author_id, u.username AS author, c.text, c.pub_date
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.review_id = $1
		ORDER BY c.pub_date DESC, c.id DESC
		LIMIT $2 OFFSET $3`,
		reviewID,
		filters.Limit(),
		filters.Offset(),
	)
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	type row struct {
		Count int `db:"count"`
		models.Comment
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	if len(outputRows) == 0 {
		return []models.Comment{}, 0, nil
	}
	comments := make([]models.Comment, 0, len(outputRows))
	for _, r := range outputRows {
		comments = append(comments, r.Comment)
	}
	return comments, outputRows[0].Count, nil
}

func (m *CommentModel) Get(ctx context.Context, reviewID, id int64) (*models.Comment, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT c.id, c.review_id, c.author_id, u.username AS author, c.text, c.pub_date
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.id = $1 AND c.review_id = $2`,
		id,
		reviewID,
	)
	return collectComment(rows, err)
}

func (m *CommentModel) Insert(ctx context.Context, reviewID, authorID int64, text string) (*models.Comment, error) {
	rows, err := m.DB.Query(
		ctx,
		`WITH ins AS (
			INSERT INTO comments (review_id, author_id, text) VALUES ($1, $2, $3)
			RETURNING id, review_id, author_id, text, pub_date
		)
		SELECT ins.id, ins.review_id, ins.author_id, u.username AS author, ins.text, ins.pub_date
		FROM ins JOIN users u ON u.id = ins.author_id`,
		reviewID,
		authorID,
		text,
	)
	return collectComment(rows, err)
}

func (m *CommentModel) Update(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	rows, err := m.DB.Query(
		ctx,
		`WITH upd AS (
			UPDATE comments SET text = $1 WHERE id = $2 AND review_id = $3
			RETURNING id, review_id, author_id, text, pub_date
		)
		SELECT upd.id, upd.review_id, upd.author_id, u.username AS author, upd.text, upd.pub_date
		FROM upd JOIN users u ON u.id = upd.author_id`,
		comment.Text,
		comment.ID,
		comment.ReviewID,
	)
	return collectComment(rows, err)
}

func (m *CommentModel) Delete(ctx context.Context, reviewID, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM comments WHERE id = $1 AND review_id = $2", id, reviewID)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
