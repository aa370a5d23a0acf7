package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"meshwar/internal/dashboard/repository"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countKey struct {
	collection string
	from       time.Time
}

type fakeStats struct {
	counts    map[countKey]int64
	statuses  []repository.StatusCount
	buckets   []repository.BucketCount
	top       []*model.Activity
	err       error
	gotLimit  int
	gotBucket string
}

func (f *fakeStats) Count(_ context.Context, collection string, from, _ time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[countKey{collection, from}], nil
}

func (f *fakeStats) BookingsByStatus(context.Context) ([]repository.StatusCount, error) {
	return f.statuses, f.err
}

func (f *fakeStats) BookingBuckets(_ context.Context, _, _ time.Time, granularity string) ([]repository.BucketCount, error) {
	f.gotBucket = granularity
	return f.buckets, f.err
}

func (f *fakeStats) TopActivities(_ context.Context, limit int) ([]*model.Activity, error) {
	f.gotLimit = limit
	return f.top, f.err
}

func newTestConfig() *config.Config {
	return &config.Config{
		Log:          logger.Discard(),
		ReadTimeout:  5 * time.Second,
		GrowthWindow: 7 * 24 * time.Hour,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGrowthPercent(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"from zero", 4, 0, 100},
		{"doubled", 10, 5, 100},
		{"unchanged", 7, 7, 0},
		{"halved", 5, 10, -50},
		{"rounded to one decimal", 4, 3, 33.3},
		{"rounded up", 5, 3, 66.7},
		{"dropped to zero", 0, 9, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GrowthPercent(tt.current, tt.previous))
		})
	}
}

func TestBucketStart(t *testing.T) {
	// Thursday afternoon.
	ts := time.Date(2026, time.October, 15, 17, 45, 0, 0, time.UTC)

	assert.Equal(t, date(2026, time.October, 15), BucketStart(ts, repository.GranularityDay))
	assert.Equal(t, date(2026, time.October, 12), BucketStart(ts, repository.GranularityWeek))
	assert.Equal(t, date(2026, time.October, 1), BucketStart(ts, repository.GranularityMonth))

	sunday := time.Date(2026, time.October, 18, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, date(2026, time.October, 12), BucketStart(sunday, repository.GranularityWeek))

	amman := time.FixedZone("UTC+3", 3*3600)
	early := time.Date(2026, time.October, 16, 1, 0, 0, 0, amman)
	assert.Equal(t, date(2026, time.October, 15), BucketStart(early, repository.GranularityDay))
}

func TestFillBuckets(t *testing.T) {
	t.Run("fills missing days with zero", func(t *testing.T) {
		buckets := []repository.BucketCount{
			{Start: date(2026, time.March, 2), Count: 3},
			{Start: date(2026, time.March, 4), Count: 1},
		}

		points := FillBuckets(date(2026, time.March, 1), date(2026, time.March, 5), repository.GranularityDay, buckets)

		require.Len(t, points, 4)
		assert.Equal(t, []int64{0, 3, 0, 1}, counts(points))
		assert.Equal(t, date(2026, time.March, 1), points[0].Start)
		assert.Equal(t, date(2026, time.March, 4), points[3].Start)
	})

	t.Run("months", func(t *testing.T) {
		buckets := []repository.BucketCount{{Start: date(2026, time.February, 1), Count: 8}}

		points := FillBuckets(date(2026, time.January, 20), date(2026, time.April, 2), repository.GranularityMonth, buckets)

		require.Len(t, points, 4)
		assert.Equal(t, []int64{0, 8, 0, 0}, counts(points))
		assert.Equal(t, date(2026, time.January, 1), points[0].Start)
	})

	t.Run("weeks start on monday", func(t *testing.T) {
		buckets := []repository.BucketCount{{Start: date(2026, time.October, 12), Count: 2}}

		points := FillBuckets(date(2026, time.October, 7), date(2026, time.October, 20), repository.GranularityWeek, buckets)

		require.Len(t, points, 3)
		assert.Equal(t, date(2026, time.October, 5), points[0].Start)
		assert.Equal(t, []int64{0, 2, 0}, counts(points))
	})

	t.Run("no buckets", func(t *testing.T) {
		points := FillBuckets(date(2026, time.March, 1), date(2026, time.March, 3), repository.GranularityDay, nil)
		assert.Equal(t, []int64{0, 0}, counts(points))
	})
}

func counts(points []ChartPoint) []int64 {
	out := make([]int64, len(points))
	for i, p := range points {
		out[i] = p.Count
	}
	return out
}

func TestSummary(t *testing.T) {
	now := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour
	current := now.Add(-week)
	previous := current.Add(-week)

	stats := &fakeStats{
		counts: map[countKey]int64{
			{mongotx.UsersCollection, time.Time{}}:      120,
			{mongotx.CategoriesCollection, time.Time{}}: 6,
			{mongotx.LocationsCollection, time.Time{}}:  30,
			{mongotx.ActivitiesCollection, time.Time{}}: 45,
			{mongotx.BookingsCollection, time.Time{}}:   300,

			{mongotx.UsersCollection, current}:       12,
			{mongotx.UsersCollection, previous}:      8,
			{mongotx.BookingsCollection, current}:    40,
			{mongotx.BookingsCollection, previous}:   0,
			{mongotx.ActivitiesCollection, current}:  3,
			{mongotx.ActivitiesCollection, previous}: 6,
		},
		statuses: []repository.StatusCount{
			{Status: model.BookingStatusConfirmed, Count: 200},
			{Status: model.BookingStatusPending, Count: 100},
		},
	}
	svc := NewDashboardService(stats, newTestConfig())

	summary, err := svc.Summary(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, Totals{Users: 120, Categories: 6, Locations: 30, Activities: 45, Bookings: 300}, summary.Totals)
	assert.Equal(t, 7, summary.WindowDays)
	assert.Equal(t, map[string]int64{
		model.BookingStatusConfirmed: 200,
		model.BookingStatusPending:   100,
		model.BookingStatusCancelled: 0,
	}, summary.BookingsByStatus)
	assert.Equal(t, Growth{Current: 12, Previous: 8, Percent: 50}, summary.Growth["users"])
	assert.Equal(t, Growth{Current: 40, Previous: 0, Percent: 100}, summary.Growth["bookings"])
	assert.Equal(t, Growth{Current: 3, Previous: 6, Percent: -50}, summary.Growth["activities"])
}

func TestSummary_RepositoryFailure(t *testing.T) {
	svc := NewDashboardService(&fakeStats{err: errors.New("connection reset")}, newTestConfig())

	_, err := svc.Summary(context.Background(), time.Now())

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestBookingsChart(t *testing.T) {
	from := date(2026, time.March, 1)
	to := date(2026, time.March, 4)

	t.Run("defaults to days", func(t *testing.T) {
		stats := &fakeStats{buckets: []repository.BucketCount{{Start: date(2026, time.March, 2), Count: 5}}}
		svc := NewDashboardService(stats, newTestConfig())

		points, err := svc.BookingsChart(context.Background(), from, to, "")

		require.NoError(t, err)
		assert.Equal(t, repository.GranularityDay, stats.gotBucket)
		assert.Equal(t, []int64{0, 5, 0}, counts(points))
	})

	tests := []struct {
		name        string
		from, to    time.Time
		granularity string
	}{
		{"unknown granularity", from, to, "hour"},
		{"reversed range", to, from, repository.GranularityDay},
		{"empty range", from, from, repository.GranularityDay},
		{"too many points", date(2020, time.January, 1), date(2026, time.January, 1), repository.GranularityDay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDashboardService(&fakeStats{}, newTestConfig())

			_, err := svc.BookingsChart(context.Background(), tt.from, tt.to, tt.granularity)

			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
		})
	}
}

func TestTopActivities_ClampsLimit(t *testing.T) {
	stats := &fakeStats{top: []*model.Activity{{Title: "Wadi Rum hike"}}}
	svc := NewDashboardService(stats, newTestConfig())

	got, err := svc.TopActivities(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, DefaultTopActivities, stats.gotLimit)

	_, err = svc.TopActivities(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, maxTopActivities, stats.gotLimit)
}
