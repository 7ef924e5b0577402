package models

import (
	"context"
	"fmt"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/storage"
	"imdb/proj/internal/storage/postgres"
	"imdb/proj/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Taxonomy is a flat name/slug classifier stored in its own table.
type Taxonomy interface {
	models.Category | models.Genre
}

// taxonomyRow shares its underlying type with every Taxonomy member.
type taxonomyRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

type TaxonomyModel[T Taxonomy] struct {
	DB    *pgxpool.Pool
	table string
}

type (
	CategoryModel = TaxonomyModel[models.Category]
	GenreModel    = TaxonomyModel[models.Genre]
)

func NewCategoryModel(db *pgxpool.Pool) *CategoryModel {
	return &CategoryModel{DB: db, table: "categories"}
}

func NewGenreModel(db *pgxpool.Pool) *GenreModel {
	return &GenreModel{DB: db, table: "genres"}
}

func (m *TaxonomyModel[T]) List(ctx context.Context, search string, filters filters.Filters) ([]T, int, error) {
	query := fmt.Sprintf(`
	SELECT count(*) OVER() AS count, id, name, slug FROM %s
	WHERE ($1::text = '' OR name ILIKE '%%' || $1 || '%%')
	ORDER BY name ASC, id ASC
	LIMIT $2 OFFSET $3`, m.table)
	rows, err := m.DB.Query(ctx, query, utils.EscapeLike(search), filters.Limit(), filters.Offset())
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	type row struct {
		Count int `db:"count"`
		taxonomyRow
	}
	outputRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, 0, postgres.MapError(err)
	}
	if len(outputRows) == 0 {
		return []T{}, 0, nil
	}
	items := make([]T, 0, len(outputRows))
	for _, r := range outputRows {
		items = append(items, T(r.taxonomyRow))
	}
	return items, outputRows[0].Count, nil
}

func (m *TaxonomyModel[T]) Insert(ctx context.Context, name, slug string) (*T, error) {
	rows, err := m.DB.Query(
		ctx,
		fmt.Sprintf("INSERT INTO %s (name, slug) VALUES ($1, $2) RETURNING id, name, slug", m.table),
		name,
		slug,
	)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return item, nil
}

func (m *TaxonomyModel[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	rows, err := m.DB.Query(ctx, fmt.Sprintf("SELECT id, name, slug FROM %s WHERE slug = $1", m.table), slug)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return item, nil
}

// GetBySlugs returns the rows matching slugs; missing slugs are simply absent from the result.
func (m *TaxonomyModel[T]) GetBySlugs(ctx context.Context, slugs []string) ([]T, error) {
	if len(slugs) == 0 {
		return []T{}, nil
	}
	rows, err := m.DB.Query(
		ctx,
		fmt.Sprintf("SELECT id, name, slug FROM %s WHERE slug = ANY($1) ORDER BY name ASC", m.table),
		slugs,
	)
	if err != nil {
		return nil, postgres.MapError(err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return items, nil
}

func (m *TaxonomyModel[T]) DeleteBySlug(ctx context.Context, slug string) error {
	status, err := m.DB.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE slug = $1", m.table), slug)
	if err != nil {
		return postgres.MapError(err)
	}
	if status.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
