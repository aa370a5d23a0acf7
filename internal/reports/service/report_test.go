package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	reportserrors "meshwar/internal/reports/errors"
	"meshwar/pkg/config"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/logger"
	"meshwar/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	users      []*model.User
	categories []*model.Category
	locations  []*model.Location
	activities []*model.Activity
	bookings   []*model.Booking
	err        error

	gotFrom, gotTo time.Time
	gotLimit       int
}

func (f *fakeRepo) Users(_ context.Context, from, to time.Time, limit int) ([]*model.User, error) {
	f.gotFrom, f.gotTo, f.gotLimit = from, to, limit
	return f.users, f.err
}

func (f *fakeRepo) Locations(_ context.Context, from, to time.Time, limit int) ([]*model.Location, error) {
	f.gotFrom, f.gotTo, f.gotLimit = from, to, limit
	return f.locations, f.err
}

func (f *fakeRepo) Activities(_ context.Context, from, to time.Time, limit int) ([]*model.Activity, error) {
	f.gotFrom, f.gotTo, f.gotLimit = from, to, limit
	return f.activities, f.err
}

func (f *fakeRepo) Bookings(_ context.Context, from, to time.Time, limit int) ([]*model.Booking, error) {
	f.gotFrom, f.gotTo, f.gotLimit = from, to, limit
	return f.bookings, f.err
}

func (f *fakeRepo) Booking(_ context.Context, id string) (*model.Booking, error) {
	if id == "bad" {
		return nil, fmt.Errorf("%w: %s", reportserrors.ErrInvalidID, id)
	}
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", reportserrors.ErrBookingNotFound, id)
}

func (f *fakeRepo) UsersByID(_ context.Context, ids []string) (map[string]*model.User, error) {
	out := map[string]*model.User{}
	for _, u := range f.users {
		out[u.ID] = u
	}
	return pick(out, ids), nil
}

func (f *fakeRepo) CategoriesByID(_ context.Context, ids []string) (map[string]*model.Category, error) {
	out := map[string]*model.Category{}
	for _, c := range f.categories {
		out[c.ID] = c
	}
	return pick(out, ids), nil
}

func (f *fakeRepo) LocationsByID(_ context.Context, ids []string) (map[string]*model.Location, error) {
	out := map[string]*model.Location{}
	for _, l := range f.locations {
		out[l.ID] = l
	}
	return pick(out, ids), nil
}

func (f *fakeRepo) ActivitiesByID(_ context.Context, ids []string) (map[string]*model.Activity, error) {
	out := map[string]*model.Activity{}
	for _, a := range f.activities {
		out[a.ID] = a
	}
	return pick(out, ids), nil
}

func pick[T any](all map[string]T, ids []string) map[string]T {
	out := map[string]T{}
	for _, id := range ids {
		if v, ok := all[id]; ok {
			out[id] = v
		}
	}
	return out
}

var fixedNow = time.Date(2026, time.March, 17, 8, 0, 0, 0, time.UTC)

func newService(repo *fakeRepo) *reportService {
	svc := NewReportService(repo, &config.Config{Log: logger.Discard()}).(*reportService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func seededRepo() *fakeRepo {
	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return &fakeRepo{
		users: []*model.User{
			{ID: "u1", DisplayName: "Sara Haddad", Email: "sara@example.com", Role: model.RoleUser, CreatedAt: created},
			{ID: "u2", DisplayName: "Omar Nasser", Email: "omar@example.com", Role: model.RoleAdmin, CreatedAt: created},
		},
		categories: []*model.Category{{ID: "c1", Name: "Nature"}},
		locations: []*model.Location{
			{ID: "l1", Name: "Wadi Rum", City: "Aqaba", CategoryID: "c1", Latitude: 29.5765, Longitude: 35.4196},
		},
		activities: []*model.Activity{
			{ID: "a1", LocationID: "l1", Title: "Desert Camp", Price: 45, ParticipantLimit: 2, CurrentParticipants: 2},
			{ID: "a2", LocationID: "gone", Title: "Stargazing", ParticipantLimit: 0, CurrentParticipants: 7},
		},
		bookings: []*model.Booking{
			{ID: "b1", UserID: "u1", ActivityID: "a1", Status: model.BookingStatusConfirmed, CreatedAt: created},
			{ID: "b2", UserID: "u2", ActivityID: "a1", Status: model.BookingStatusPending, CreatedAt: created},
			{ID: "b3", UserID: "u9", ActivityID: "a2", Status: model.BookingStatusPending, CreatedAt: created},
		},
	}
}

func TestBuild_Bookings(t *testing.T) {
	svc := newService(seededRepo())

	report, err := svc.Build(context.Background(), KindBookings, time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.Equal(t, "Bookings", report.Title)
	assert.Equal(t, fixedNow, report.GeneratedAt)
	require.Len(t, report.Rows, 3)
	assert.Equal(t, []string{"b1", "sara@example.com", "Desert Camp", "confirmed", "2026-03-01 12:00"}, report.Rows[0])
	// Unknown user falls back to the raw id.
	assert.Equal(t, "u9", report.Rows[2][1])
	assert.Equal(t, []string{
		"Total bookings: 3",
		"Status confirmed: 1",
		"Status pending: 2",
	}, report.Summary)
}

func TestBuild_Activities(t *testing.T) {
	svc := newService(seededRepo())

	report, err := svc.Build(context.Background(), KindActivities, time.Time{}, time.Time{})

	require.NoError(t, err)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, "Wadi Rum", report.Rows[0][2])
	assert.Equal(t, "2/2", report.Rows[0][6])
	assert.Equal(t, "gone", report.Rows[1][2])
	assert.Equal(t, "7 (unlimited)", report.Rows[1][6])
	assert.Contains(t, report.Summary, "Participants booked: 9")
	assert.Contains(t, report.Summary, "Fully booked: 1")
}

func TestBuild_UsersAndLocations(t *testing.T) {
	svc := newService(seededRepo())

	users, err := svc.Build(context.Background(), KindUsers, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Contains(t, users.Summary, "Role admin: 1")
	assert.Contains(t, users.Summary, "Role user: 1")

	locations, err := svc.Build(context.Background(), KindLocations, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "Wadi Rum", "Aqaba", "Nature", "29.57650", "35.41960", ""}, locations.Rows[0])
}

func TestBuild_Range(t *testing.T) {
	repo := seededRepo()
	svc := newService(repo)
	from := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)

	report, err := svc.Build(context.Background(), KindBookings, from, to)

	require.NoError(t, err)
	assert.Equal(t, from, repo.gotFrom)
	assert.Equal(t, to, repo.gotTo)
	assert.Equal(t, MaxReportRows, repo.gotLimit)
	assert.Contains(t, report.Summary, "Created between 2026-03-01 00:00 and 2026-03-08 00:00")
}

func TestBuild_Errors(t *testing.T) {
	t.Run("unknown kind", func(t *testing.T) {
		_, err := newService(seededRepo()).Build(context.Background(), "payments", time.Time{}, time.Time{})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
	})

	t.Run("reversed range", func(t *testing.T) {
		now := time.Now()
		_, err := newService(seededRepo()).Build(context.Background(), KindUsers, now, now.Add(-time.Hour))
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
	})

	t.Run("repository failure", func(t *testing.T) {
		_, err := newService(&fakeRepo{err: errors.New("timeout")}).Build(context.Background(), KindUsers, time.Time{}, time.Time{})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
	})
}

func TestExport(t *testing.T) {
	svc := newService(seededRepo())

	doc, err := svc.Export(context.Background(), KindBookings, "CSV", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "bookings-20260317.csv", doc.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("ID,User,Activity,Status,Booked\n")))

	doc, err = svc.Export(context.Background(), KindUsers, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "users-20260317.txt", doc.Filename)

	_, err = svc.Export(context.Background(), KindUsers, "docx", time.Time{}, time.Time{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestReceipt(t *testing.T) {
	svc := newService(seededRepo())

	doc, err := svc.Receipt(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "receipt-b1.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF-")))

	_, err = svc.Receipt(context.Background(), "b404")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.Receipt(context.Background(), "bad")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
