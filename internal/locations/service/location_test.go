package service

import (
	"context"
	"fmt"
	locationserrors "meshwar/internal/locations/errors"
	"meshwar/internal/locations/validator"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockLocationRepository struct {
	mu         sync.Mutex
	locations  map[string]model.Location
	categories map[string]bool
	activities map[string]int64

	lastFilter model.LocationFilter
}

func newMockLocationRepository() *mockLocationRepository {
	return &mockLocationRepository{
		locations:  make(map[string]model.Location),
		categories: make(map[string]bool),
		activities: make(map[string]int64),
	}
}

func (m *mockLocationRepository) Create(_ context.Context, l *model.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = primitive.NewObjectID().Hex()
	m.locations[l.ID] = *l
	return nil
}

func (m *mockLocationRepository) FindByID(_ context.Context, id string) (*model.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", locationserrors.ErrNotFound, id)
	}
	return &l, nil
}

func (m *mockLocationRepository) FindAll(_ context.Context, filter model.LocationFilter, _ int, _ int64) ([]*model.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	out := []*model.Location{}
	for _, l := range m.locations {
		if filter.CategoryID != "" && l.CategoryID != filter.CategoryID {
			continue
		}
		l := l
		out = append(out, &l)
	}
	return out, nil
}

func (m *mockLocationRepository) Count(_ context.Context, _ model.LocationFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.locations)), nil
}

func (m *mockLocationRepository) Update(_ context.Context, id string, l *model.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[id] = *l
	return nil
}

func (m *mockLocationRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.locations[id]; !ok {
		return fmt.Errorf("%w: %s", locationserrors.ErrNotFound, id)
	}
	delete(m.locations, id)
	return nil
}

func (m *mockLocationRepository) CategoryExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[id], nil
}

func (m *mockLocationRepository) CountActivities(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activities[id], nil
}

func (m *mockLocationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

func newTestService(repo *mockLocationRepository) LocationService {
	cfg := &config.Config{Log: logger.Discard(), ReadTimeout: 5 * time.Second}
	return NewLocationService(repo, validator.NewLocationValidator(), cfg)
}

func newLocation(categoryID string) *model.Location {
	return &model.Location{
		Name:       "  Citadel   Hill ",
		CategoryID: categoryID,
		City:       " Amman ",
		Latitude:   31.9539,
		Longitude:  35.9342,
		ImageURLs:  []string{"http://Images.Example.com/a.jpg", "https://images.example.com/a.jpg/", "https://IMAGES.example.com/a.jpg", " "},
	}
}

func TestCreate_RequiresExistingCategory(t *testing.T) {
	repo := newMockLocationRepository()
	svc := newTestService(repo)
	categoryID := primitive.NewObjectID().Hex()

	err := svc.Create(context.Background(), newLocation(categoryID))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	repo.categories[categoryID] = true
	location := newLocation(categoryID)
	require.NoError(t, svc.Create(context.Background(), location))

	assert.Equal(t, "Citadel Hill", location.Name)
	assert.Equal(t, "Amman", location.City)
	assert.Equal(t, []string{"http://images.example.com/a.jpg", "https://images.example.com/a.jpg"}, location.ImageURLs)
}

func TestCreate_RejectsNonHTTPImageURLs(t *testing.T) {
	repo := newMockLocationRepository()
	svc := newTestService(repo)
	categoryID := primitive.NewObjectID().Hex()
	repo.categories[categoryID] = true

	for _, raw := range []string{"ftp://files.example.com/a.jpg", "javascript:alert(1)"} {
		location := newLocation(categoryID)
		location.ImageURLs = []string{raw}

		err := svc.Create(context.Background(), location)
		require.Error(t, err, raw)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), raw)
	}
	assert.Empty(t, repo.locations)
}

func TestCreate_CoordinateValidation(t *testing.T) {
	repo := newMockLocationRepository()
	svc := newTestService(repo)
	categoryID := primitive.NewObjectID().Hex()
	repo.categories[categoryID] = true

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude out of range", 91, 35},
		{"longitude out of range", 31, -181},
		{"missing coordinates", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location := newLocation(categoryID)
			location.Latitude, location.Longitude = tt.lat, tt.lon
			err := svc.Create(context.Background(), location)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
		})
	}
}

func TestUpdate_CategoryChangeChecked(t *testing.T) {
	repo := newMockLocationRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	categoryID := primitive.NewObjectID().Hex()
	repo.categories[categoryID] = true

	location := newLocation(categoryID)
	require.NoError(t, svc.Create(ctx, location))

	err := svc.Update(ctx, location.ID, &model.LocationUpdate{CategoryID: primitive.NewObjectID().Hex()})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	lat := 32.5
	require.NoError(t, svc.Update(ctx, location.ID, &model.LocationUpdate{City: "irbid ", Latitude: &lat}))
	got, err := svc.GetByID(ctx, location.ID)
	require.NoError(t, err)
	assert.Equal(t, "irbid", got.City)
	assert.Equal(t, 32.5, got.Latitude)
}

func TestSearch(t *testing.T) {
	repo := newMockLocationRepository()
	svc := newTestService(repo)

	_, _, err := svc.Search(context.Background(), model.LocationFilter{}, 10, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))

	_, _, err = svc.Search(context.Background(), model.LocationFilter{CategoryID: "bad"}, 10, 0)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, _, err = svc.Search(context.Background(), model.LocationFilter{City: "  Aqaba  "}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "Aqaba", repo.lastFilter.City)
}

func TestDelete_RefusedWhileActivitiesExist(t *testing.T) {
	repo := newMockLocationRepository()
	svc := newTestService(repo)
	categoryID := primitive.NewObjectID().Hex()
	repo.categories[categoryID] = true

	location := newLocation(categoryID)
	require.NoError(t, svc.Create(context.Background(), location))
	repo.activities[location.ID] = 1

	err := svc.Delete(context.Background(), location.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	repo.activities[location.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), location.ID))
}
