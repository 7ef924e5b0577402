package services

import (
	"log/slog"

	"imdb/proj/internal/config"
	"imdb/proj/internal/lib/confirmation"
	"imdb/proj/internal/lib/jwt"
	"imdb/proj/internal/services/auth"
	"imdb/proj/internal/services/catalog"
	"imdb/proj/internal/services/feedback"
	"imdb/proj/internal/storage/postgres/models"
)

type Services struct {
	Auth       *auth.AuthService
	Categories *catalog.CategoryService
	Genres     *catalog.GenreService
	Titles     *catalog.TitleService
	Reviews    *feedback.ReviewService
	Comments   *feedback.CommentService
}

func New(
	log *slog.Logger,
	cfg *config.Config,
	storage *models.Models,
	cache catalog.Cache,
	queue auth.TaskQueue,
	taskExecutor auth.TaskExecutor,
) *Services {
	codes := confirmation.New(cfg.AppSecret, cfg.Tokens.ConfirmationTTL)
	tokens := jwt.NewIssuer(cfg.AppSecret, cfg.Tokens.AccessTTL)
	reviews := feedback.NewReviewService(log, storage.Title, storage.Review, cache)
	return &Services{
		Auth:       auth.New(log, storage.User, codes, tokens, queue, taskExecutor, cfg.Tokens.ConfirmationTTL),
		Categories: catalog.NewCategoryService(log, storage.Category, cache),
		Genres:     catalog.NewGenreService(log, storage.Genre, cache),
		Titles:     catalog.NewTitleService(log, storage.Title, storage.Category, storage.Genre, cache),
		Reviews:    reviews,
		Comments:   feedback.NewCommentService(log, reviews, storage.Comment),
	}
}
