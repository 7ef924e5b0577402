package catalog

import (
	"context"
	"errors"
	"log/slog"

	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/domain/policy"
	"imdb/proj/internal/lib/logger/sl"
	"imdb/proj/internal/lib/validator"
	"imdb/proj/internal/storage"

	govalidator "github.com/go-playground/validator/v10"
)

type Taxonomy interface {
	models.Category | models.Genre
}

type TaxonomyStorage[T Taxonomy] interface {
	List(ctx context.Context, search string, filters filters.Filters) ([]T, int, error)
	Insert(ctx context.Context, name, slug string) (*T, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
	GetBySlugs(ctx context.Context, slugs []string) ([]T, error)
	DeleteBySlug(ctx context.Context, slug string) error
}

type TaxonomyInput struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=50,slug"`
}

// TaxonomyService serves categories and genres, which differ only in their table.
type TaxonomyService[T Taxonomy] struct {
	log         *slog.Logger
	validator   *govalidator.Validate
	storage     TaxonomyStorage[T]
	cache       Cache
	name        string
	errNotFound error
}

type (
	CategoryService = TaxonomyService[models.Category]
	GenreService    = TaxonomyService[models.Genre]
)

func NewCategoryService(log *slog.Logger, storage TaxonomyStorage[models.Category], cache Cache) *CategoryService {
	return &CategoryService{
		log:         log,
		validator:   validator.New(),
		storage:     storage,
		cache:       cache,
		name:        "category",
		errNotFound: ErrCategoryNotFound,
	}
}

func NewGenreService(log *slog.Logger, storage TaxonomyStorage[models.Genre], cache Cache) *GenreService {
	return &GenreService{
		log:         log,
		validator:   validator.New(),
		storage:     storage,
		cache:       cache,
		name:        "genre",
		errNotFound: ErrGenreNotFound,
	}
}

func (s *TaxonomyService[T]) List(ctx context.Context, search string, f filters.Filters) ([]T, filters.Metadata, error) {
	const op = "catalog.TaxonomyService.List"
	log := s.log.With("op", op, "kind", s.name, "search", search)
	if errs := validator.ValidateStruct(s.validator, &f); errs != nil {
		return nil, filters.Metadata{}, errs
	}
	items, total, err := s.storage.List(ctx, search, f)
	if err != nil {
		log.Error("failed to list", sl.Err(err))
		return nil, filters.Metadata{}, err
	}
	return items, filters.CalculateMetadata(total, f.Page, f.PageSize), nil
}

func (s *TaxonomyService[T]) Create(ctx context.Context, actor *models.User, input TaxonomyInput) (*T, error) {
	const op = "catalog.TaxonomyService.Create"
	log := s.log.With("op", op, "kind", s.name, "slug", input.Slug)
	if err := policy.Authorize(actor, policy.CatalogWritePolicy(actor, policy.Create)); err != nil {
		return nil, err
	}
	if errs := validator.ValidateStruct(s.validator, &input); errs != nil {
		return nil, errs
	}
	item, err := s.storage.Insert(ctx, input.Name, input.Slug)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("slug already exists")
			return nil, validator.NewError("slug", s.name+" with this slug already exists")
		}
		log.Error("failed to insert", sl.Err(err))
		return nil, err
	}
	return item, nil
}

func (s *TaxonomyService[T]) Delete(ctx context.Context, actor *models.User, slug string) error {
	const op = "catalog.TaxonomyService.Delete"
	log := s.log.With("op", op, "kind", s.name, "slug", slug)
	if err := policy.Authorize(actor, policy.CatalogWritePolicy(actor, policy.Delete)); err != nil {
		return err
	}
	if err := s.storage.DeleteBySlug(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("not found")
			return s.errNotFound
		}
		log.Error("failed to delete", sl.Err(err))
		return err
	}
	// listings embed categories and genres
	InvalidateTitles(ctx, s.cache, log)
	return nil
}
