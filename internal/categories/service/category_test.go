package service

import (
	"context"
	"fmt"
	categorieserrors "meshwar/internal/categories/errors"
	"meshwar/internal/categories/validator"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"
	"meshwar/pkg/sanitizer"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCategoryRepository struct {
	mu         sync.Mutex
	categories map[string]model.Category
	locations  map[string]int64
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{
		categories: make(map[string]model.Category),
		locations:  make(map[string]int64),
	}
}

func (m *mockCategoryRepository) Create(_ context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID().Hex()
	m.categories[c.ID] = *c
	return nil
}

func (m *mockCategoryRepository) FindByID(_ context.Context, id string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", categorieserrors.ErrInvalidID, id)
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", categorieserrors.ErrNotFound, id)
	}
	return &c, nil
}

// FindByName mimics the case-insensitive collation of the real index.
func (m *mockCategoryRepository) FindByName(_ context.Context, name string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if sanitizer.NormalizeNameForComparison(c.Name) == sanitizer.NormalizeNameForComparison(name) {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", categorieserrors.ErrNotFound, name)
}

func (m *mockCategoryRepository) FindAll(context.Context, int, int64) ([]*model.Category, error) {
	return []*model.Category{}, nil
}

func (m *mockCategoryRepository) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.categories)), nil
}

func (m *mockCategoryRepository) Update(_ context.Context, id string, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[id] = *c
	return nil
}

func (m *mockCategoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return fmt.Errorf("%w: %s", categorieserrors.ErrNotFound, id)
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) CountLocations(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locations[id], nil
}

func (m *mockCategoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func newTestService(repo *mockCategoryRepository) CategoryService {
	cfg := &config.Config{Log: logger.Discard(), ReadTimeout: 5 * time.Second}
	return NewCategoryService(repo, validator.NewCategoryValidator(), cfg)
}

func TestCreate_NameUniqueIgnoringCase(t *testing.T) {
	svc := newTestService(newMockCategoryRepository())
	ctx := context.Background()

	first := &model.Category{Name: "  Hiking  ", Icon: "boot"}
	require.NoError(t, svc.Create(ctx, first))
	assert.Equal(t, "Hiking", first.Name)

	err := svc.Create(ctx, &model.Category{Name: "HIKING"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(newMockCategoryRepository())

	err := svc.Create(context.Background(), &model.Category{Name: "x"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdate(t *testing.T) {
	repo := newMockCategoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	museums := &model.Category{Name: "Museums"}
	parks := &model.Category{Name: "Parks"}
	require.NoError(t, svc.Create(ctx, museums))
	require.NoError(t, svc.Create(ctx, parks))

	desc := "  Old   things "
	require.NoError(t, svc.Update(ctx, museums.ID, &model.CategoryUpdate{Name: "museums", Description: &desc}))
	got, err := svc.GetByID(ctx, museums.ID)
	require.NoError(t, err)
	assert.Equal(t, "museums", got.Name)
	assert.Equal(t, "Old things", got.Description)

	err = svc.Update(ctx, museums.ID, &model.CategoryUpdate{Name: "PARKS"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	err = svc.Update(ctx, "zzz", &model.CategoryUpdate{Name: "Other"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestDelete_RefusedWhileReferenced(t *testing.T) {
	repo := newMockCategoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	category := &model.Category{Name: "Restaurants"}
	require.NoError(t, svc.Create(ctx, category))
	repo.locations[category.ID] = 2

	err := svc.Delete(ctx, category.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	assert.Equal(t, int64(2), apperrors.AsAppError(err).Details["locations"])

	repo.locations[category.ID] = 0
	require.NoError(t, svc.Delete(ctx, category.ID))

	err = svc.Delete(ctx, category.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
