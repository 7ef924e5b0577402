package catalog

import (
	"context"
	"testing"
	"time"

	"imdb/proj/internal/cache"
	"imdb/proj/internal/domain/filters"
	"imdb/proj/internal/domain/models"
	"imdb/proj/internal/lib/logger"
	"imdb/proj/internal/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTaxonomyStorage[T Taxonomy] struct {
	mock.Mock
}

func (m *mockTaxonomyStorage[T]) List(ctx context.Context, search string, f filters.Filters) ([]T, int, error) {
	args := m.Called(ctx, search, f)
	items, _ := args.Get(0).([]T)
	return items, args.Int(1), args.Error(2)
}

func (m *mockTaxonomyStorage[T]) Insert(ctx context.Context, name, slug string) (*T, error) {
	args := m.Called(ctx, name, slug)
	item, _ := args.Get(0).(*T)
	return item, args.Error(1)
}

func (m *mockTaxonomyStorage[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	args := m.Called(ctx, slug)
	item, _ := args.Get(0).(*T)
	return item, args.Error(1)
}

func (m *mockTaxonomyStorage[T]) GetBySlugs(ctx context.Context, slugs []string) ([]T, error) {
	args := m.Called(ctx, slugs)
	items, _ := args.Get(0).([]T)
	return items, args.Error(1)
}

func (m *mockTaxonomyStorage[T]) DeleteBySlug(ctx context.Context, slug string) error {
	return m.Called(ctx, slug).Error(0)
}

type mockTitleStorage struct {
	mock.Mock
}

func (m *mockTitleStorage) List(ctx context.Context, tf filters.TitleFilters, f filters.Filters) ([]models.Title, int, error) {
	args := m.Called(ctx, tf, f)
	titles, _ := args.Get(0).([]models.Title)
	return titles, args.Int(1), args.Error(2)
}

func (m *mockTitleStorage) Get(ctx context.Context, id int64) (*models.Title, error) {
	args := m.Called(ctx, id)
	title, _ := args.Get(0).(*models.Title)
	return title, args.Error(1)
}

func (m *mockTitleStorage) Insert(ctx context.Context, rec storage.TitleRecord) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTitleStorage) Update(ctx context.Context, id int64, rec storage.TitleRecord) error {
	return m.Called(ctx, id, rec).Error(0)
}

func (m *mockTitleStorage) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	c := cache.New(db, time.Minute, logger.Discard())
	t.Cleanup(func() { c.Close() })
	return c
}

var (
	admin     = &models.User{ID: 1, Role: models.RoleAdmin, IsActive: true}
	moderator = &models.User{ID: 2, Role: models.RoleModerator, IsActive: true}
	user      = &models.User{ID: 3, Role: models.RoleUser, IsActive: true}
)

func int32Ptr(v int32) *int32 { return &v }
