package service

import (
	"context"
	"math"
	"meshwar/internal/dashboard/repository"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTopActivities = 5
	maxTopActivities     = 50
	// maxChartPoints bounds the zero-filled series a single request can produce.
	maxChartPoints = 1000
)

type Totals struct {
	Users      int64 `json:"users"`
	Categories int64 `json:"categories"`
	Locations  int64 `json:"locations"`
	Activities int64 `json:"activities"`
	Bookings   int64 `json:"bookings"`
}

type Growth struct {
	Current  int64   `json:"current"`
	Previous int64   `json:"previous"`
	Percent  float64 `json:"percent"`
}

type Summary struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	WindowDays       int               `json:"window_days"`
	Totals           Totals            `json:"totals"`
	BookingsByStatus map[string]int64  `json:"bookings_by_status"`
	Growth           map[string]Growth `json:"growth"`
}

type ChartPoint struct {
	Start time.Time `json:"start"`
	Count int64     `json:"count"`
}

type DashboardService interface {
	Summary(ctx context.Context, now time.Time) (*Summary, error)
	BookingsChart(ctx context.Context, from, to time.Time, granularity string) ([]ChartPoint, error)
	TopActivities(ctx context.Context, limit int) ([]*model.Activity, error)
}

type dashboardService struct {
	repo repository.StatsRepository
	cfg  *config.Config
}

func NewDashboardService(repo repository.StatsRepository, cfg *config.Config) DashboardService {
	return &dashboardService{repo: repo, cfg: cfg}
}

// Summary compares the window ending at now with the window before it.
func (s *dashboardService) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	now = now.UTC()
	window := s.cfg.GrowthWindow
	if window <= 0 {
		window = config.DefaultGrowthWindow
	}
	currentFrom := now.Add(-window)
	previousFrom := currentFrom.Add(-window)

	summary := &Summary{
		GeneratedAt:      now,
		WindowDays:       int(window / (24 * time.Hour)),
		BookingsByStatus: make(map[string]int64),
		Growth:           make(map[string]Growth),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	totals := map[string]*int64{
		mongotx.UsersCollection:      &summary.Totals.Users,
		mongotx.CategoriesCollection: &summary.Totals.Categories,
		mongotx.LocationsCollection:  &summary.Totals.Locations,
		mongotx.ActivitiesCollection: &summary.Totals.Activities,
		mongotx.BookingsCollection:   &summary.Totals.Bookings,
	}
	for collection, dst := range totals {
		g.Go(func() error {
			n, err := s.repo.Count(gctx, collection, time.Time{}, time.Time{})
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	growthKeys := map[string]string{
		mongotx.UsersCollection:      "users",
		mongotx.BookingsCollection:   "bookings",
		mongotx.ActivitiesCollection: "activities",
	}
	for collection, key := range growthKeys {
		g.Go(func() error {
			current, err := s.repo.Count(gctx, collection, currentFrom, now)
			if err != nil {
				return err
			}
			previous, err := s.repo.Count(gctx, collection, previousFrom, currentFrom)
			if err != nil {
				return err
			}
			mu.Lock()
			summary.Growth[key] = Growth{
				Current:  current,
				Previous: previous,
				Percent:  GrowthPercent(current, previous),
			}
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		counts, err := s.repo.BookingsByStatus(gctx)
		if err != nil {
			return err
		}
		mu.Lock()
		for _, c := range counts {
			summary.BookingsByStatus[c.Status] = c.Count
		}
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to build dashboard summary", "error", err)
		return nil, apperrors.Internal("Failed to build dashboard summary", err)
	}

	for _, status := range []string{model.BookingStatusPending, model.BookingStatusConfirmed, model.BookingStatusCancelled} {
		if _, ok := summary.BookingsByStatus[status]; !ok {
			summary.BookingsByStatus[status] = 0
		}
	}

	return summary, nil
}

func (s *dashboardService) BookingsChart(ctx context.Context, from, to time.Time, granularity string) ([]ChartPoint, error) {
	if granularity == "" {
		granularity = repository.GranularityDay
	}
	if !validGranularity(granularity) {
		return nil, apperrors.InvalidInput("granularity must be one of: day week month")
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-s.growthWindow())
	}
	from, to = from.UTC(), to.UTC()
	if !from.Before(to) {
		return nil, apperrors.InvalidInput("from must be before to")
	}
	if points := estimatePoints(from, to, granularity); points > maxChartPoints {
		return nil, apperrors.InvalidInput("requested range is too large for the chosen granularity")
	}

	buckets, err := s.repo.BookingBuckets(ctx, from, to, granularity)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate bookings chart",
			"from", from,
			"to", to,
			"granularity", granularity,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to build bookings chart", err)
	}

	return FillBuckets(from, to, granularity, buckets), nil
}

func (s *dashboardService) TopActivities(ctx context.Context, limit int) ([]*model.Activity, error) {
	if limit <= 0 {
		limit = DefaultTopActivities
	}
	limit = min(limit, maxTopActivities)

	activities, err := s.repo.TopActivities(ctx, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to get top activities", "limit", limit, "error", err)
		return nil, apperrors.Internal("Failed to retrieve top activities", err)
	}
	return activities, nil
}

func (s *dashboardService) growthWindow() time.Duration {
	if s.cfg.GrowthWindow > 0 {
		return s.cfg.GrowthWindow
	}
	return config.DefaultGrowthWindow
}

// GrowthPercent is the change from previous to current in percent, rounded to one
// decimal. From zero it is 100 when anything appeared and 0 otherwise.
func GrowthPercent(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	pct := float64(current-previous) / float64(previous) * 100
	return math.Round(pct*10) / 10
}

// FillBuckets returns one point per bucket between from and to, using zero for
// buckets the aggregation did not return.
func FillBuckets(from, to time.Time, granularity string, buckets []repository.BucketCount) []ChartPoint {
	counts := make(map[time.Time]int64, len(buckets))
	for _, b := range buckets {
		counts[BucketStart(b.Start, granularity)] += b.Count
	}

	var points []ChartPoint
	for start := BucketStart(from, granularity); start.Before(to); start = nextBucket(start, granularity) {
		points = append(points, ChartPoint{Start: start, Count: counts[start]})
	}
	return points
}

// BucketStart truncates t to the start of its bucket in UTC. Weeks start on Monday.
func BucketStart(t time.Time, granularity string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch granularity {
	case repository.GranularityWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case repository.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

func nextBucket(start time.Time, granularity string) time.Time {
	switch granularity {
	case repository.GranularityWeek:
		return start.AddDate(0, 0, 7)
	case repository.GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func estimatePoints(from, to time.Time, granularity string) int {
	days := int(to.Sub(from).Hours()/24) + 1
	switch granularity {
	case repository.GranularityWeek:
		return days/7 + 1
	case repository.GranularityMonth:
		return days/28 + 1
	default:
		return days
	}
}

func validGranularity(g string) bool {
	switch g {
	case repository.GranularityDay, repository.GranularityWeek, repository.GranularityMonth:
		return true
	}
	return false
}
