package main

import (
	"context"
	"log/slog"
	"sync"

	"imdb/proj/internal/config"
	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/services"
	"imdb/proj/internal/services/auth"
	"imdb/proj/internal/services/catalog"
	"imdb/proj/internal/services/feedback"
)

type authService interface {
	Signup(ctx context.Context, input auth.SignupInput) (string, error)
	Confirm(ctx context.Context, input auth.ConfirmInput) (string, error)
	ResendCode(ctx context.Context, input auth.ResendInput) error
	UserByToken(ctx context.Context, token string) (*models.User, error)
}

type taxonomyService[T catalog.Taxonomy] interface {
	List(ctx context.Context, search string, f filters.Filters) ([]T, filters.Metadata, error)
	Create(ctx context.Context, actor *models.User, input catalog.TaxonomyInput) (*T, error)
	Delete(ctx context.Context, actor *models.User, slug string) error
}

type titleService interface {
	List(ctx context.Context, tf filters.TitleFilters, f filters.Filters) ([]models.Title, filters.Metadata, error)
	Get(ctx context.Context, id int64) (*models.Title, error)
	Create(ctx context.Context, actor *models.User, input catalog.TitleInput) (*models.Title, error)
	Update(ctx context.Context, actor *models.User, id int64, input catalog.TitleInput) (*models.Title, error)
	Patch(ctx context.Context, actor *models.User, id int64, patch catalog.TitlePatch) (*models.Title, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type reviewService interface {
	List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, filters.Metadata, error)
	Get(ctx context.Context, titleID, id int64) (*models.Review, error)
	Create(ctx context.Context, actor *models.User, titleID int64, input feedback.ReviewInput) (*models.Review, error)
	Update(ctx context.Context, actor *models.User, titleID, id int64, input feedback.ReviewInput) (*models.Review, error)
	Patch(ctx context.Context, actor *models.User, titleID, id int64, patch feedback.ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, actor *models.User, titleID, id int64) error
}

type commentService interface {
	List(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, filters.Metadata, error)
	Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error)
	Create(ctx context.Context, actor *models.User, titleID, reviewID int64, input feedback.CommentInput) (*models.Comment, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID, id int64, input feedback.CommentInput) (*models.Comment, error)
	Patch(ctx context.Context, actor *models.User, titleID, reviewID, id int64, patch feedback.CommentPatch) (*models.Comment, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID, id int64) error
}

type Application struct {
	cfg        *config.Config
	log        *slog.Logger
	Http       *Http
	auth       authService
	categories taxonomyService[models.Category]
	genres     taxonomyService[models.Genre]
	titles     titleService
	reviews    reviewService
	comments   commentService
	done       chan struct{}
	closeOnce  sync.Once
}

func NewApplication(cfg *config.Config, log *slog.Logger, svc *services.Services) *Application {
	return &Application{
		cfg:        cfg,
		log:        log,
		auth:       svc.Auth,
		categories: svc.Categories,
		genres:     svc.Genres,
		titles:     svc.Titles,
		reviews:    svc.Reviews,
		comments:   svc.Comments,
		done:       make(chan struct{}),
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
}

// Close stops the background goroutines started by the middlewares.
func (app *Application) Close() {
	app.closeOnce.Do(func() { close(app.done) })
}
