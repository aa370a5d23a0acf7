package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	reportserrors "meshwar/internal/reports/errors"
	"meshwar/internal/reports/render"
	"meshwar/internal/reports/repository"
	"meshwar/pkg/config"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	KindUsers      = "users"
	KindLocations  = "locations"
	KindActivities = "activities"
	KindBookings   = "bookings"

	// MaxReportRows caps how many documents a single report reads.
	MaxReportRows = 5000

	dateLayout = "2006-01-02 15:04"
)

var Kinds = []string{KindUsers, KindLocations, KindActivities, KindBookings}

// Document is a rendered report ready to be sent or saved.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type ReportService interface {
	Build(ctx context.Context, kind string, from, to time.Time) (*render.Report, error)
	Export(ctx context.Context, kind, format string, from, to time.Time) (*Document, error)
	Receipt(ctx context.Context, bookingID string) (*Document, error)
}

type reportService struct {
	repo repository.ReportRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewReportService(repo repository.ReportRepository, cfg *config.Config) ReportService {
	return &reportService{
		repo: repo,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) Build(ctx context.Context, kind string, from, to time.Time) (*render.Report, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, apperrors.InvalidInput("from must be before to")
	}

	var (
		report *render.Report
		err    error
	)
	switch kind {
	case KindUsers:
		report, err = s.usersReport(ctx, from, to)
	case KindLocations:
		report, err = s.locationsReport(ctx, from, to)
	case KindActivities:
		report, err = s.activitiesReport(ctx, from, to)
	case KindBookings:
		report, err = s.bookingsReport(ctx, from, to)
	default:
		return nil, apperrors.InvalidInput("unknown report kind: " + kind).
			WithDetails(map[string]any{"supported": Kinds})
	}
	if err != nil {
		s.cfg.Log.Error("Failed to build report",
			"kind", kind,
			"from", from,
			"to", to,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to build report", err)
	}

	report.GeneratedAt = s.now()
	if !from.IsZero() || !to.IsZero() {
		report.Summary = append(report.Summary, rangeLine(from, to))
	}
	if len(report.Rows) >= MaxReportRows {
		report.Summary = append(report.Summary, fmt.Sprintf("Limited to the first %d rows", MaxReportRows))
	}
	return report, nil
}

func (s *reportService) Export(ctx context.Context, kind, format string, from, to time.Time) (*Document, error) {
	if format == "" {
		format = render.FormatText
	}
	format = strings.ToLower(format)
	if !render.Supported(format) {
		return nil, apperrors.InvalidInput("unsupported report format: " + format).
			WithDetails(map[string]any{"supported": []string{render.FormatText, render.FormatHTML, render.FormatCSV, render.FormatPDF}})
	}

	report, err := s.Build(ctx, kind, from, to)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, report, format); err != nil {
		s.cfg.Log.Error("Failed to render report", "kind", kind, "format", format, "error", err)
		return nil, apperrors.Internal("Failed to render report", err)
	}

	s.cfg.Log.Info("Report generated",
		"kind", kind,
		"format", format,
		"rows", len(report.Rows),
		"bytes", buf.Len(),
	)

	return &Document{
		Filename:    render.Filename(report, format),
		ContentType: render.ContentType(format),
		Body:        buf.Bytes(),
	}, nil
}

func (s *reportService) Receipt(ctx context.Context, bookingID string) (*Document, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID is required")
	}

	booking, err := s.repo.Booking(ctx, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, reportserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		case errors.Is(err, reportserrors.ErrBookingNotFound):
			return nil, apperrors.NotFoundWithID("Booking", bookingID)
		}
		s.cfg.Log.Error("Failed to load booking for receipt", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to load booking", err)
	}

	receipt := &render.Receipt{
		BookingID:   booking.ID,
		Status:      booking.Status,
		BookedAt:    booking.CreatedAt,
		GeneratedAt: s.now(),
	}

	users, err := s.repo.UsersByID(ctx, []string{booking.UserID})
	if err != nil {
		return nil, s.receiptLookupFailed(bookingID, err)
	}
	if u, ok := users[booking.UserID]; ok {
		receipt.UserName = u.DisplayName
		receipt.UserEmail = u.Email
	}

	activities, err := s.repo.ActivitiesByID(ctx, []string{booking.ActivityID})
	if err != nil {
		return nil, s.receiptLookupFailed(bookingID, err)
	}
	if a, ok := activities[booking.ActivityID]; ok {
		receipt.ActivityTitle = a.Title
		receipt.StartDate = a.StartDate
		receipt.EndDate = a.EndDate
		receipt.Price = a.Price

		locations, err := s.repo.LocationsByID(ctx, []string{a.LocationID})
		if err != nil {
			return nil, s.receiptLookupFailed(bookingID, err)
		}
		if l, ok := locations[a.LocationID]; ok {
			receipt.LocationName = l.Name
			receipt.City = l.City
		}
	} else {
		receipt.ActivityTitle = "(activity removed)"
	}

	var buf bytes.Buffer
	if err := render.ReceiptPDF(&buf, receipt); err != nil {
		s.cfg.Log.Error("Failed to render receipt", "booking_id", bookingID, "error", err)
		return nil, apperrors.Internal("Failed to render receipt", err)
	}

	return &Document{
		Filename:    "receipt-" + booking.ID + ".pdf",
		ContentType: render.ContentType(render.FormatPDF),
		Body:        buf.Bytes(),
	}, nil
}

func (s *reportService) receiptLookupFailed(bookingID string, err error) error {
	s.cfg.Log.Error("Failed to load receipt details", "booking_id", bookingID, "error", err)
	return apperrors.Internal("Failed to load booking details", err)
}

func (s *reportService) usersReport(ctx context.Context, from, to time.Time) (*render.Report, error) {
	users, err := s.repo.Users(ctx, from, to, MaxReportRows)
	if err != nil {
		return nil, err
	}

	report := &render.Report{
		Title:   "Users",
		Columns: []string{"ID", "Name", "Email", "Phone", "Role", "Joined"},
	}
	roles := map[string]int{}
	for _, u := range users {
		roles[u.Role]++
		report.Rows = append(report.Rows, []string{
			u.ID, u.DisplayName, u.Email, u.Phone, u.Role, formatDate(u.CreatedAt),
		})
	}

	report.Summary = append(report.Summary, fmt.Sprintf("Total users: %d", len(users)))
	report.Summary = append(report.Summary, countLines("Role", roles)...)
	return report, nil
}

func (s *reportService) locationsReport(ctx context.Context, from, to time.Time) (*render.Report, error) {
	locations, err := s.repo.Locations(ctx, from, to, MaxReportRows)
	if err != nil {
		return nil, err
	}

	categoryIDs := make([]string, len(locations))
	for i, l := range locations {
		categoryIDs[i] = l.CategoryID
	}
	categories, err := s.repo.CategoriesByID(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	report := &render.Report{
		Title:   "Locations",
		Columns: []string{"ID", "Name", "City", "Category", "Latitude", "Longitude", "Added"},
	}
	cities := map[string]int{}
	for _, l := range locations {
		cities[l.City]++
		report.Rows = append(report.Rows, []string{
			l.ID,
			l.Name,
			l.City,
			categoryName(categories, l.CategoryID),
			strconv.FormatFloat(l.Latitude, 'f', 5, 64),
			strconv.FormatFloat(l.Longitude, 'f', 5, 64),
			formatDate(l.CreatedAt),
		})
	}

	report.Summary = append(report.Summary, fmt.Sprintf("Total locations: %d", len(locations)))
	report.Summary = append(report.Summary, countLines("City", cities)...)
	return report, nil
}

func (s *reportService) activitiesReport(ctx context.Context, from, to time.Time) (*render.Report, error) {
	activities, err := s.repo.Activities(ctx, from, to, MaxReportRows)
	if err != nil {
		return nil, err
	}

	locationIDs := make([]string, len(activities))
	for i, a := range activities {
		locationIDs[i] = a.LocationID
	}
	locations, err := s.repo.LocationsByID(ctx, locationIDs)
	if err != nil {
		return nil, err
	}

	report := &render.Report{
		Title:   "Activities",
		Columns: []string{"ID", "Title", "Location", "Starts", "Ends", "Price", "Participants"},
	}
	var participants, full int
	for _, a := range activities {
		participants += a.CurrentParticipants
		if !a.HasCapacity() {
			full++
		}
		location := a.LocationID
		if l, ok := locations[a.LocationID]; ok {
			location = l.Name
		}
		report.Rows = append(report.Rows, []string{
			a.ID,
			a.Title,
			location,
			formatDate(a.StartDate),
			formatDate(a.EndDate),
			strconv.FormatFloat(a.Price, 'f', 2, 64),
			participantsCell(a),
		})
	}

	report.Summary = append(report.Summary,
		fmt.Sprintf("Total activities: %d", len(activities)),
		fmt.Sprintf("Participants booked: %d", participants),
		fmt.Sprintf("Fully booked: %d", full),
	)
	return report, nil
}

func (s *reportService) bookingsReport(ctx context.Context, from, to time.Time) (*render.Report, error) {
	bookings, err := s.repo.Bookings(ctx, from, to, MaxReportRows)
	if err != nil {
		return nil, err
	}

	userIDs := make([]string, len(bookings))
	activityIDs := make([]string, len(bookings))
	for i, b := range bookings {
		userIDs[i] = b.UserID
		activityIDs[i] = b.ActivityID
	}
	users, err := s.repo.UsersByID(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.ActivitiesByID(ctx, activityIDs)
	if err != nil {
		return nil, err
	}

	report := &render.Report{
		Title:   "Bookings",
		Columns: []string{"ID", "User", "Activity", "Status", "Booked"},
	}
	statuses := map[string]int{}
	for _, b := range bookings {
		statuses[b.Status]++
		user := b.UserID
		if u, ok := users[b.UserID]; ok {
			user = u.Email
		}
		activity := b.ActivityID
		if a, ok := activities[b.ActivityID]; ok {
			activity = a.Title
		}
		report.Rows = append(report.Rows, []string{b.ID, user, activity, b.Status, formatDate(b.CreatedAt)})
	}

	report.Summary = append(report.Summary, fmt.Sprintf("Total bookings: %d", len(bookings)))
	report.Summary = append(report.Summary, countLines("Status", statuses)...)
	return report, nil
}

func categoryName(categories map[string]*model.Category, id string) string {
	if c, ok := categories[id]; ok {
		return c.Name
	}
	return id
}

func participantsCell(a *model.Activity) string {
	if a.ParticipantLimit == 0 {
		return strconv.Itoa(a.CurrentParticipants) + " (unlimited)"
	}
	return fmt.Sprintf("%d/%d", a.CurrentParticipants, a.ParticipantLimit)
}

// countLines renders "<label> <key>: <n>" lines sorted by key.
func countLines(label string, counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s %s: %d", label, k, counts[k])
	}
	return lines
}

func rangeLine(from, to time.Time) string {
	start, end := "beginning", "now"
	if !from.IsZero() {
		start = formatDate(from)
	}
	if !to.IsZero() {
		end = formatDate(to)
	}
	return fmt.Sprintf("Created between %s and %s", start, end)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
