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

type ReviewModel struct {
	DB *pgxpool.Pool
}

func collectReview(rows pgx.Rows, err error) (*models.Review, error) {
	if err != nil {
		return nil, postgres.MapError(err)
	}
	review, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Review])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return review, nil
}

func (m *ReviewModel) List(ctx context.Context, titleID int64, filters filters.Filters) ([]models.Review, int, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS count, r.id, r.title_id, r.author_id, u.username AS author, r.text, r.score, r.pub_date
		FROM reviews r JOIN users u ON u.id = r.author_id
		WHERE r.title_id = $1
		ORDER BY r.pub_date DESC, r.id DESC
		LIMIT $2 OFFSET $3`,
		titleID,
		filters.Limit(),
		filters.Offset(),
	)
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	type row struct {
		Count int `db:"count"`
		models.Review
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	if len(outputRows) == 0 {
		return []models.Review{}, 0, nil
	}
	reviews := make([]models.Review, 0, len(outputRows))
	for _, r := range outputRows {
		reviews = append(reviews, r.Review)
	}
	return reviews, outputRows[0].Count, nil
}

// Get returns the review only when it belongs to the given title.
func (m *ReviewModel) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	rows, err := m.DB.Query(
		ctx,
		`SELECT r.id, r.title_id, r.author_id, u.username AS author, r.text, r.score, r.pub_date
		FROM reviews r JOIN users u ON u.id = r.author_id
		WHERE r.id = $1 AND r.title_id = $2`,
		id,
		titleID,
	)
	return collectReview(rows, err)
}

func (m *ReviewModel) Insert(ctx context.Context, titleID, authorID int64, text string, score int16) (*models.Review, error) {
	rows, err := m.DB.Query(
		ctx,
		`WITH ins AS (
			INSERT INTO reviews (title_id, author_id, text, score) VALUES ($1, $2, $3, $4)
			RETURNING id, title_id, author_id, text, score, pub_date
		)
		SELECT ins.id, ins.title_id, ins.author_id, u.username AS author, ins.text, ins.score, ins.pub_date
		FROM ins JOIN users u ON u.id = ins.author_id`,
		titleID,
		authorID,
		text,
		score,
	)
	return collectReview(rows, err)
}

func (m *ReviewModel) Update(ctx context.Context, review *models.Review) (*models.Review, error) {
	rows, err := m.DB.Query(
		ctx,
		`WITH upd AS (
			UPDATE reviews SET text = $1, score = $2 WHERE id = $3 AND title_id = $4
			RETURNING id, title_id, author_id, text, score, pub_date
		)
		SELECT upd.id, upd.title_id, upd.author_id, u.username AS author, upd.text, upd.score, upd.pub_date
		FROM upd JOIN users u ON u.id = upd.author_id`,
		review.Text,
		review.Score,
		review.ID,
		review.TitleID,
	)
	return collectReview(rows, err)
}

func (m *ReviewModel) Delete(ctx context.Context, titleID, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM reviews WHERE id = $1 AND title_id = $2", id, titleID)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
