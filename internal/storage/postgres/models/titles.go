package models

import (
	"context"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/storage"
	"imdb/proj/internal/storage/postgres"
	"imdb/proj/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const titleSelect = `
	t.id, t.name, t.year,
	c.id AS category_id, c.name AS category_name, c.slug AS category_slug,
	(SELECT AVG(r.score)::float8 FROM reviews r WHERE r.title_id = t.id) AS rating
	FROM titles t LEFT JOIN categories c ON c.id = t.category_id`

type TitleModel struct {
	DB *pgxpool.Pool
}

type titleRow struct {
	ID           int64    `db:"id"`
	Name         string   `db:"name"`
	Year         int32    `db:"year"`
	CategoryID   *int64   `db:"category_id"`
	CategoryName *string  `db:"category_name"`
	CategorySlug *string  `db:"category_slug"`
	Rating       *float64 `db:"rating"`
}

func (r titleRow) toTitle() models.Title {
	title := models.Title{
		ID:     r.ID,
		Name:   r.Name,
		Year:   r.Year,
		Genres: []models.Genre{},
		Rating: r.Rating,
	}
	if r.CategoryID != nil {
		title.Category = &models.Category{ID: *r.CategoryID, Name: *r.CategoryName, Slug: *r.CategorySlug}
	}
	return title
}

func (m *TitleModel) List(ctx context.Context, tf filters.TitleFilters, filters filters.Filters) ([]models.Title, int, error) {
	genres := tf.Genres
	if genres == nil {
		genres = []string{}
	}
	rows, err := m.DB.Query(
		ctx,
		`SELECT count(*) OVER() AS count, `+titleSelect+`
		WHERE ($1::text = '' OR t.name ILIKE '%' || $1 || '%')
		AND ($2::integer IS NULL OR t.year = $2)
		AND ($3::text = '' OR c.slug = $3)
		AND (cardinality($4::text[]) = 0 OR EXISTS (
			SELECT 1 FROM title_genres tg JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug = ANY($4)
		))
		ORDER BY t.name ASC, t.id ASC
		LIMIT $5 OFFSET $6`,
		utils.EscapeLike(tf.Name),
		tf.Year,
		tf.Category,
		genres,
		filters.Limit(),
		filters.Offset(),
	)
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	type row struct {
		Count int `db:"count"`
		titleRow
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	if len(outputRows) == 0 {
		return []models.Title{}, 0, nil
	}
	titles := make([]models.Title, 0, len(outputRows))
	for _, r := range outputRows {
		titles = append(titles, r.toTitle())
	}
	if err := m.attachGenres(ctx, titles); err != nil {
		return nil, 0, err
	}
	return titles, outputRows[0].Count, nil
}

func (m *TitleModel) Get(ctx context.Context, id int64) (*models.Title, error) {
	rows, err := m.DB.Query(ctx, `SELECT `+titleSelect+` WHERE t.id = $1`, id)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[titleRow])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	titles := []models.Title{row.toTitle()}
	if err := m.attachGenres(ctx, titles); err != nil {
		return nil, err
	}
	return &titles[0], nil
}

// attachGenres loads the genres of all given titles with a single query.
func (m *TitleModel) attachGenres(ctx context.Context, titles []models.Title) error {
	ids := make([]int64, 0, len(titles))
	index := make(map[int64]int, len(titles))
	for i, t := range titles {
		ids = append(ids, t.ID)
		index[t.ID] = i
	}
	rows, err := m.DB.Query(
		ctx,
		`SELECT tg.title_id, g.id, g.name, g.slug FROM title_genres tg
		JOIN genres g ON g.id = tg.genre_id
		WHERE tg.title_id = ANY($1)
		ORDER BY g.name ASC`,
		ids,
	)
	if err != nil {
		return postgres.MapError(err)
	}
	type row struct {
		TitleID int64 `db:"title_id"`
		models.Genre
	}
	genreRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return postgres.MapError(err)
	}
	for _, r := range genreRows {
		i := index[r.TitleID]
		titles[i].Genres = append(titles[i].Genres, r.Genre)
	}
	return nil
}

func (m *TitleModel) Insert(ctx context.Context, rec storage.TitleRecord) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		err := tx.QueryRow(
			ctx,
			"INSERT INTO titles (name, year, category_id) VALUES ($1, $2, $3) RETURNING id",
			rec.Name,
			rec.Year,
			rec.CategoryID,
		).Scan(&id)
		if err != nil {
			return err
		}
		return setTitleGenres(ctx, tx, id, rec.GenreIDs)
	})
	if err != nil {
		return 0, postgres.MapError(err)
	}
	return id, nil
}

// Update replaces every writable column of the title and its genre set.
func (m *TitleModel) Update(ctx context.Context, id int64, rec storage.TitleRecord) error {
	err := pgx.BeginFunc(ctx, m.DB, func(tx pgx.Tx) error {
		status, err := tx.Exec(
			ctx,
			"UPDATE titles SET name = $1, year = $2, category_id = $3 WHERE id = $4",
			rec.Name,
			rec.Year,
			rec.CategoryID,
			id,
		)
		if err != nil {
			return err
		}
		if status.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM title_genres WHERE title_id = $1", id); err != nil {
			return err
		}
		return setTitleGenres(ctx, tx, id, rec.GenreIDs)
	})
	return postgres.MapError(err)
}

func setTitleGenres(ctx context.Context, tx pgx.Tx, titleID int64, genreIDs []int64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(
		ctx,
		`INSERT INTO title_genres (title_id, genre_id)
		SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		titleID,
		genreIDs,
	)
	return err
}

func (m *TitleModel) Delete(ctx context.Context, id int64) error {
	status, err := m.DB.Exec(ctx, "DELETE FROM titles WHERE id = $1", id)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *TitleModel) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := m.DB.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM titles WHERE id = $1)", id).Scan(&exists)
	return exists, postgres.MapError(err)
}
