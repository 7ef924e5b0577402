package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"imdb/proj/internal/cache"
	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/domain/policy"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
)

type TitleStorage interface {
	List(ctx context.Context, tf filters.TitleFilters, filters filters.Filters) ([]models.Title, int, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Insert(ctx context.Context, rec storage.TitleRecord) (int64, error)
	Update(ctx context.Context, id int64, rec storage.TitleRecord) error
	Delete(ctx context.Context, id int64) error
}

// TitleInput is the full writable representation of a title. Category and genres are given by slug.
type TitleInput struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Year     *int32   `json:"year" validate:"required,gte=0,notfutureyear"`
	Category string   `json:"category" validate:"omitempty,max=50,slug"`
	Genres   []string `json:"genre" validate:"dive,max=50,slug"`
}

// TitlePatch holds the fields of a partial update. An empty category clears it.
type TitlePatch struct {
	Name     *string   `json:"name"`
	Year     *int32    `json:"year"`
	Category *string   `json:"category"`
	Genres   *[]string `json:"genre"`
}

type TitleService struct {
	log        *slog.Logger
	validator  *govalidator.Validate
	storage    TitleStorage
	categories TaxonomyStorage[models.Category]
	genres     TaxonomyStorage[models.Genre]
	cache      Cache
}

func NewTitleService(
	log *slog.Logger,
	storage TitleStorage,
	categories TaxonomyStorage[models.Category],
	genres TaxonomyStorage[models.Genre],
	cache Cache,
) *TitleService {
	return &TitleService{
		log:        log,
		validator:  validator.New(),
		storage:    storage,
		categories: categories,
		genres:     genres,
		cache:      cache,
	}
}

type cachedTitlesPage struct {
	Titles []models.Title `json:"titles"`
	Total  int            `json:"total"`
}

func titlesListKey(tf filters.TitleFilters, f filters.Filters) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s&page=%d&page_size=%d", tf.Key(), f.Page, f.PageSize))
	return TitlesCachePrefix + "list:" + hex.EncodeToString(sum[:])
}

func (s *TitleService) List(ctx context.Context, tf filters.TitleFilters, f filters.Filters) ([]models.Title, filters.Metadata, error) {
	const op = "catalog.TitleService.List"
	log := s.log.With("op", op)
	// the cache key and the query must see the same name
	tf.Name = strings.TrimSpace(tf.Name)
	errs := make(validator.Errors)
	maps.Copy(errs, validator.ValidateStruct(s.validator, &f))
	maps.Copy(errs, validator.ValidateStruct(s.validator, &tf))
	if len(errs) > 0 {
		return nil, filters.Metadata{}, errs
	}
	key := titlesListKey(tf, f)
	if s.cache != nil {
		var page cachedTitlesPage
		err := s.cache.Get(ctx, key, &page)
		if err == nil {
			return page.Titles, filters.CalculateMetadata(page.Total, f.Page, f.PageSize), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("failed to read titles cache", sl.Err(err))
		}
	}
	titles, total, err := s.storage.List(ctx, tf, f)
	if err != nil {
		log.Error("failed to list titles", sl.Err(err))
		return nil, filters.Metadata{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, cachedTitlesPage{Titles: titles, Total: total}); err != nil {
			log.Warn("failed to write titles cache", sl.Err(err))
		}
	}
	return titles, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *TitleService) Get(ctx context.Context, id int64) (*models.Title, error) {
	const op = "catalog.TitleService.Get"
	log := s.log.With("op", op, "id", id)
	title, err := s.storage.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return nil, ErrTitleNotFound
		}
		log.Error("failed to get title", sl.Err(err))
		return nil, err
	}
	return title, nil
}

func (s *TitleService) Create(ctx context.Context, actor *models.User, input TitleInput) (*models.Title, error) {
	const op = "catalog.TitleService.Create"
	log := s.log.With("op", op, "name", input.Name)
	if err := policy.Authorize(actor, policy.CatalogWritePolicy(actor, policy.Create)); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	rec, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	id, err := s.storage.Insert(ctx, rec)
	if err != nil {
		return nil, s.mapWriteError(log, err)
	}
	InvalidateTitles(ctx, s.cache, log)
	log.Info("title created", "id", id)
	return s.Get(ctx, id)
}

// Update replaces the title with input.
func (s *TitleService) Update(ctx context.Context, actor *models.User, id int64, input TitleInput) (*models.Title, error) {
	const op = "catalog.TitleService.Update"
	log := s.log.With("op", op, "id", id)
	if err := policy.Authorize(actor, policy.CatalogWritePolicy(actor, policy.Update)); err != nil {
		return nil, err
	}
	return s.update(ctx, log, id, input)
}

// Patch applies the non-nil fields of patch on top of the stored title.
func (s *TitleService) Patch(ctx context.Context, actor *models.User, id int64, patch TitlePatch) (*models.Title, error) {
	const op = "catalog.TitleService.Patch"
	log := s.log.With("op", op, "id", id)
	if err := policy.Authorize(actor, policy.CatalogWritePolicy(actor, policy.Update)); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	input := inputFromTitle(current)
	if patch.Name != nil {
		input.Name = *patch.Name
	}
	if patch.Year != nil {
		input.Year = patch.Year
	}
	if patch.Category != nil {
		input.Category = *patch.Category
	}
	if patch.Genres != nil {
		input.Genres = *patch.Genres
	}
	return s.update(ctx, log, id, input)
}

func (s *TitleService) update(ctx context.Context, log *slog.Logger, id int64, input TitleInput) (*models.Title, error) {
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	rec, err := s.resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Update(ctx, id, rec); err != nil {
		return nil, s.mapWriteError(log, err)
	}
	InvalidateTitles(ctx, s.cache, log)
	return s.Get(ctx, id)
}

func (s *TitleService) Delete(ctx context.Context, actor *models.User, id int64) error {
	const op = "catalog.TitleService.Delete"
	log := s.log.With("op", op, "id", id)
	if err := policy.Authorize(actor, policy.CatalogWritePolicy(actor, policy.Delete)); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("title not found")
			return ErrTitleNotFound
		}
		log.Error("failed to delete title", sl.Err(err))
		return err
	}
	InvalidateTitles(ctx, s.cache, log)
	return nil
}

func inputFromTitle(t *models.Title) TitleInput {
	year := t.Year
	input := TitleInput{Name: t.Name, Year: &year, Genres: make([]string, 0, len(t.Genres))}
	if t.Category != nil {
		input.Category = t.Category.Slug
	}
	for _, g := range t.Genres {
		input.Genres = append(input.Genres, g.Slug)
	}
	return input
}

// resolve turns category and genre slugs into ids.
func (s *TitleService) resolve(ctx context.Context, input TitleInput) (storage.TitleRecord, error) {
	const op = "catalog.TitleService.resolve"
	log := s.log.With("op", op)
	rec := storage.TitleRecord{Name: input.Name, Year: *input.Year}
	if input.Category != "" {
		category, err := s.categories.GetBySlug(ctx, input.Category)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Info("unknown category", "slug", input.Category)
				return rec, ErrCategoryNotFound
			}
			log.Error("failed to get category", sl.Err(err))
			return rec, err
		}
		rec.CategoryID = &category.ID
	}
	slugs := filters.ParseSlugList(input.Genres)
	if len(slugs) == 0 {
		return rec, nil
	}
	genres, err := s.genres.GetBySlugs(ctx, slugs)
	if err != nil {
		log.Error("failed to get genres", sl.Err(err))
		return rec, err
	}
	if len(genres) != len(slugs) {
		log.Info("unknown genre", "slugs", slugs)
		return rec, ErrGenreNotFound
	}
	rec.GenreIDs = make([]int64, 0, len(genres))
	for _, g := range genres {
		rec.GenreIDs = append(rec.GenreIDs, g.ID)
	}
	return rec, nil
}

func (s *TitleService) mapWriteError(log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Info("title not found")
		return ErrTitleNotFound
	case errors.Is(err, storage.ErrConstraint):
		return validator.NewError("year", "Year is out of range")
	case errors.Is(err, storage.ErrInvalidReference):
		// category or genre deleted between resolve and write
		return ErrCategoryNotFound
	}
	log.Error("failed to write title", sl.Err(err))
	return err
}
