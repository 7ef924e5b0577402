package main

import (
	"context"
	"testing"

	"imdb/proj/internal/config"
	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/lib/logger"
	"imdb/proj/internal/services/auth"
	"imdb/proj/internal/services/catalog"
	"imdb/proj/internal/services/feedback"

	"github.com/stretchr/testify/mock"
)

type mockAuth struct{ mock.Mock }

func (m *mockAuth) Signup(ctx context.Context, input auth.SignupInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) Confirm(ctx context.Context, input auth.ConfirmInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockAuth) ResendCode(ctx context.Context, input auth.ResendInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *mockAuth) UserByToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type mockTaxonomy[T catalog.Taxonomy] struct{ mock.Mock }

func (m *mockTaxonomy[T]) List(ctx context.Context, search string, f filters.Filters) ([]T, filters.Metadata, error) {
	args := m.Called(ctx, search, f)
	items, _ := args.Get(0).([]T)
	return items, args.Get(1).(filters.Metadata), args.Error(2)
}

func (m *mockTaxonomy[T]) Create(ctx context.Context, actor *models.User, input catalog.TaxonomyInput) (*T, error) {
	args := m.Called(ctx, actor, input)
	item, _ := args.Get(0).(*T)
	return item, args.Error(1)
}

func (m *mockTaxonomy[T]) Delete(ctx context.Context, actor *models.User, slug string) error {
	return m.Called(ctx, actor, slug).Error(0)
}

type mockTitles struct{ mock.Mock }

func (m *mockTitles) List(ctx context.Context, tf filters.TitleFilters, f filters.Filters) ([]models.Title, filters.Metadata, error) {
	args := m.Called(ctx, tf, f)
	titles, _ := args.Get(0).([]models.Title)
	return titles, args.Get(1).(filters.Metadata), args.Error(2)
}

func (m *mockTitles) Get(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	title, _ := args.Get(0).(*models.Title)
	return title, args.Error(1)
}

func (m *mockTitles) Create(ctx context.Context, actor *models.User, input catalog.TitleInput) (*models.Title, error) {
	args := m.Called(ctx, actor, input)
	title, _ := args.Get(0).(*models.Title)
	return title, args.Error(1)
}

func (m *mockTitles) Update(ctx context.Context, actor *models.User, id int64, input catalog.TitleInput) (*models.Title, error) {
	args := m.Called(ctx, actor, id, input)
	title, _ := args.Get(0).(*models.Title)
	return title, args.Error(1)
}

func (m *mockTitles) Patch(ctx context.Context, actor *models.User, id int64, patch catalog.TitlePatch) (*models.Title, error) {
	args := m.Called(ctx, actor, id, patch)
	title, _ := args.Get(0).(*models.Title)
	return title, args.Error(1)
}

func (m *mockTitles) Delete(ctx context.Context, actor *models.User, id int64) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) List(ctx context.Context, titleID int64, f filters.Filters) ([]models.Review, filters.Metadata, error) {
	args := m.Called(ctx, titleID, f)
	reviews, _ := args.Get(0).([]models.Review)
	return reviews, args.Get(1).(filters.Metadata), args.Error(2)
}

func (m *mockReviews) Get(ctx context.Context, titleID, id int64) (*models.Review, error) {
	args := m.Called(ctx, titleID, id)
	review, _ := args.Get(0).(*models.Review)
	return review, args.Error(1)
}

func (m *mockReviews) Create(ctx context.Context, actor *models.User, titleID int64, input feedback.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, actor, titleID, input)
	review, _ := args.Get(0).(*models.Review)
	return review, args.Error(1)
}

func (m *mockReviews) Update(ctx context.Context, actor *models.User, titleID, id int64, input feedback.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, actor, titleID, id, input)
	review, _ := args.Get(0).(*models.Review)
	return review, args.Error(1)
}

func (m *mockReviews) Patch(ctx context.Context, actor *models.User, titleID, id int64, patch feedback.ReviewPatch) (*models.Review, error) {
	args := m.Called(ctx, actor, titleID, id, patch)
	review, _ := args.Get(0).(*models.Review)
	return review, args.Error(1)
}

func (m *mockReviews) Delete(ctx context.Context, actor *models.User, titleID, id int64) error {
	return m.Called(ctx, actor, titleID, id).Error(0)
}

type mockComments struct{ mock.Mock }

func (m *mockComments) List(ctx context.Context, titleID, reviewID int64, f filters.Filters) ([]models.Comment, filters.Metadata, error) {
	args := m.Called(ctx, titleID, reviewID, f)
	comments, _ := args.Get(0).([]models.Comment)
	return comments, args.Get(1).(filters.Metadata), args.Error(2)
}

func (m *mockComments) Get(ctx context.Context, titleID, reviewID, id int64) (*models.Comment, error) {
	args := m.Called(ctx, titleID, reviewID, id)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockComments) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, input feedback.CommentInput) (*models.Comment, error) {
	args := m.Called(ctx, actor, titleID, reviewID, input)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockComments) Update(ctx context.Context, actor *models.User, titleID, reviewID, id int64, input feedback.CommentInput) (*models.Comment, error) {
	args := m.Called(ctx, actor, titleID, reviewID, id, input)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockComments) Patch(ctx context.Context, actor *models.User, titleID, reviewID, id int64, patch feedback.CommentPatch) (*models.Comment, error) {
	args := m.Called(ctx, actor, titleID, reviewID, id, patch)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *mockComments) Delete(ctx context.Context, actor *models.User, titleID, reviewID, id int64) error {
	return m.Called(ctx, actor, titleID, reviewID, id).Error(0)
}

type testMocks struct {
	auth       *mockAuth
	categories *mockTaxonomy[models.Category]
	genres     *mockTaxonomy[models.Genre]
	titles     *mockTitles
	reviews    *mockReviews
	comments   *mockComments
}

var (
	testAdmin = &models.User{ID: 1, Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}
	testUser  = &models.User{ID: 2, Username: "user", Email: "user@example.com", Role: models.RoleUser, IsActive: true}
)

func NewTestApplication(cfg *config.Config, t *testing.T) (*Application, *testMocks) {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{
			Pagination: config.Pagination{DefaultPageSize: 20},
		}
	}
	m := &testMocks{
		auth:       &mockAuth{},
		categories: &mockTaxonomy[models.Category]{},
		genres:     &mockTaxonomy[models.Genre]{},
		titles:     &mockTitles{},
		reviews:    &mockReviews{},
		comments:   &mockComments{},
	}
	m.auth.On("UserByToken", mock.Anything, "admin-token").Return(testAdmin, nil).Maybe()
	m.auth.On("UserByToken", mock.Anything, "user-token").Return(testUser, nil).Maybe()
	log := logger.Discard()
	app := &Application{
		cfg:        cfg,
		log:        log,
		Http:       &Http{log: log, cfg: cfg},
		auth:       m.auth,
		categories: m.categories,
		genres:     m.genres,
		titles:     m.titles,
		reviews:    m.reviews,
		comments:   m.comments,
		done:       make(chan struct{}),
	}
	t.Cleanup(app.Close)
	return app, m
}
