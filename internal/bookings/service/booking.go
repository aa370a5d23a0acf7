package service

import (
	"context"
	"errors"
	bookingserrors "meshwar/internal/bookings/errors"
	"meshwar/internal/bookings/events"
	"meshwar/internal/bookings/repository"
	"meshwar/internal/bookings/validator"
	"meshwar/pkg/config"
	mongotx "meshwar/pkg/db/mongo"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"meshwar/pkg/validation"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	// Create admits a booking: the activity must exist and have room, and the user must
	// not already hold a pending or confirmed booking for it.
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	// ChangeStatus updates status only. The activity's participant counter is left as is.
	// Reactivating a cancelled booking fails while another active booking holds the pair.
	ChangeStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	// Delete removes the booking and gives its place back to the activity.
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo       repository.BookingRepository
	activities repository.ActivityCounter
	users      repository.UserLookup
	publisher  events.Publisher
	validator  *validator.BookingValidator
	retry      mongotx.RetryPolicy
	cfg        *config.Config
	now        func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	activities repository.ActivityCounter,
	users repository.UserLookup,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &bookingService{
		repo:       repo,
		activities: activities,
		users:      users,
		publisher:  publisher,
		validator:  validator,
		retry:      cfg.BookingRetryPolicy(),
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)
	if req.Status == "" {
		req.Status = model.BookingStatusPending
	}
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "user_id", req.UserID, "activity_id", req.ActivityID, "error", err)
		return nil, validation.ToAppError("Booking validation failed", err)
	}

	if err := s.ensureUserExists(ctx, req.UserID); err != nil {
		return nil, err
	}

	// The id is fixed across attempts so a retry can recognise a commit it never heard back from.
	booking := &model.Booking{
		ID:         primitive.NewObjectID().Hex(),
		UserID:     req.UserID,
		ActivityID: req.ActivityID,
		Status:     req.Status,
	}

	err := s.retry.Do(ctx, func(attemptCtx context.Context) error {
		return s.repo.ExecuteTransaction(attemptCtx, func(txCtx context.Context) error {
			return s.admit(txCtx, booking)
		})
	}, s.logRetry("create", booking.ActivityID))
	if err != nil {
		err = s.transactionError(err, "Failed to create booking")
		s.logOutcome("Booking admission rejected", err,
			"user_id", booking.UserID,
			"activity_id", booking.ActivityID,
		)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"user_id", booking.UserID,
		"activity_id", booking.ActivityID,
		"status", booking.Status,
	)
	s.publish(ctx, events.NewEvent(events.TypeCreated, booking))

	return booking, nil
}

// admit runs inside the transaction. Every read uses the transaction's snapshot, and the
// conditional increment re-checks capacity at write time, so a concurrent admission
// either aborts this transaction with a write conflict or is seen as a full activity.
func (s *bookingService) admit(ctx context.Context, booking *model.Booking) error {
	stored, err := s.repo.FindByID(ctx, booking.ID)
	switch {
	case err == nil:
		*booking = *stored
		return nil
	case !errors.Is(err, bookingserrors.ErrNotFound):
		return err
	}

	activity, err := s.activities.FindByID(ctx, booking.ActivityID)
	if err != nil {
		return mapLookupError(err, "Activity", booking.ActivityID)
	}

	if !activity.HasCapacity() {
		return apperrors.CapacityExceeded(booking.ActivityID, activity.ParticipantLimit)
	}

	exists, err := s.repo.ExistsActive(ctx, booking.UserID, booking.ActivityID, "")
	if err != nil {
		return err
	}
	if exists {
		return apperrors.DuplicateBooking(booking.UserID, booking.ActivityID)
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		return err
	}

	incremented, err := s.activities.IncrementParticipants(ctx, booking.ActivityID, booking.CreatedAt)
	if err != nil {
		return err
	}
	if !incremented {
		return apperrors.CapacityExceeded(booking.ActivityID, activity.ParticipantLimit)
	}

	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, mapLookupError(err, "Booking", id)
		}
		s.cfg.Log.Error("Failed to get booking by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, 0, validation.ToAppError("Invalid booking filter", err)
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		var err error
		bookings, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	update.Status = strings.ToLower(strings.TrimSpace(update.Status))
	if err := s.validator.ValidateStatus(update); err != nil {
		return nil, validation.ToAppError("Booking status validation failed", err)
	}

	now := s.now()
	var previous *model.Booking

	err := s.retry.Do(ctx, func(attemptCtx context.Context) error {
		return s.repo.ExecuteTransaction(attemptCtx, func(txCtx context.Context) error {
			current, err := s.repo.FindByID(txCtx, id)
			if err != nil {
				return mapLookupError(err, "Booking", id)
			}

			if err := s.checkReactivation(txCtx, current, update.Status, now); err != nil {
				return err
			}

			previous, err = s.repo.UpdateStatus(txCtx, id, update.Status, now)
			if err != nil {
				return mapLookupError(err, "Booking", id)
			}
			return nil
		})
	}, s.logRetry("change_status", id))
	if err != nil {
		err = s.transactionError(err, "Failed to change booking status")
		s.logOutcome("Booking status change rejected", err, "id", id, "status", update.Status)
		return nil, err
	}

	updated := *previous
	updated.Status = update.Status
	updated.UpdatedAt = now

	s.cfg.Log.Info("Booking status changed",
		"id", id,
		"activity_id", updated.ActivityID,
		"from", previous.Status,
		"to", updated.Status,
	)

	event := events.NewEvent(events.TypeStatusChanged, &updated)
	event.PreviousStatus = previous.Status
	s.publish(ctx, event)

	return &updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var deleted *model.Booking
	var decremented, uncertain bool

	err := s.retry.Do(ctx, func(attemptCtx context.Context) error {
		err := s.repo.ExecuteTransaction(attemptCtx, func(txCtx context.Context) error {
			booking, err := s.repo.FindByID(txCtx, id)
			if err != nil {
				// The previous attempt committed after all.
				if uncertain && deleted != nil && errors.Is(err, bookingserrors.ErrNotFound) {
					return nil
				}
				if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
					return mapLookupError(err, "Booking", id)
				}
				return err
			}

			if err := s.repo.Delete(txCtx, id); err != nil {
				return err
			}

			ok, err := s.activities.DecrementParticipants(txCtx, booking.ActivityID, s.now())
			if err != nil {
				return err
			}

			deleted, decremented = booking, ok
			return nil
		})
		uncertain = mongotx.IsUnknownCommitResult(err)
		return err
	}, s.logRetry("delete", id))
	if err != nil {
		err = s.transactionError(err, "Failed to delete booking")
		s.logOutcome("Booking deletion failed", err, "id", id)
		return err
	}

	if !decremented {
		s.cfg.Log.Warn("Participant counter not decremented: already zero or activity missing",
			"booking_id", deleted.ID,
			"activity_id", deleted.ActivityID,
		)
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id, "activity_id", deleted.ActivityID)
	s.publish(ctx, events.NewEvent(events.TypeDeleted, deleted))

	return nil
}

// --- Helpers ---

// checkReactivation rejects moving a cancelled booking back to pending or confirmed while the
// user holds another active booking for the same activity. The activity is touched so that a
// concurrent admission for the pair aborts one of the two transactions.
func (s *bookingService) checkReactivation(ctx context.Context, current *model.Booking, status string, now time.Time) error {
	target := model.Booking{Status: status}
	if current.IsActive() || !target.IsActive() {
		return nil
	}

	if err := s.activities.Touch(ctx, current.ActivityID, now); err != nil {
		return err
	}

	exists, err := s.repo.ExistsActive(ctx, current.UserID, current.ActivityID, current.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.DuplicateBooking(current.UserID, current.ActivityID)
	}
	return nil
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.ActivityID = strings.TrimSpace(req.ActivityID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
}

func (s *bookingService) ensureUserExists(ctx context.Context, userID string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid user ID format")
		}
		s.cfg.Log.Error("Failed to look up booking user", "user_id", userID, "error", err)
		if mongotx.IsTransient(err) {
			return apperrors.Transient("User lookup failed, retry the request", err)
		}
		return apperrors.Internal("Failed to look up user", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("User", userID)
	}
	return nil
}

// transactionError turns the outcome of a retried transaction into an AppError. Domain
// errors pass through; conflicts and timeouts that outlived the retries become Transient.
func (s *bookingService) transactionError(err error, message string) error {
	if mongotx.IsTransient(err) {
		return apperrors.Transient("Booking store is busy, retry the request", err)
	}
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.Internal(message, err)
}

func (s *bookingService) logRetry(op, id string) mongotx.RetryNotify {
	return func(err error, attempt int, wait time.Duration) {
		s.cfg.Log.Warn("Retrying booking transaction",
			"operation", op,
			"id", id,
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
	}
}

func (s *bookingService) logOutcome(msg string, err error, args ...any) {
	args = append(args, "error", err)
	switch {
	case apperrors.HasCode(err, apperrors.CodeInternal), apperrors.HasCode(err, apperrors.CodeTransient):
		s.cfg.Log.Error(msg, args...)
	default:
		s.cfg.Log.Info(msg, args...)
	}
}

// publish is best-effort: the booking change is already committed.
func (s *bookingService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", event.Type,
			"booking_id", event.BookingID,
			"error", err,
		)
	}
}

func mapLookupError(err error, resource, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid " + strings.ToLower(resource) + " ID format")
	case errors.Is(err, bookingserrors.ErrNotFound),
		errors.Is(err, bookingserrors.ErrActivityNotFound),
		errors.Is(err, bookingserrors.ErrUserNotFound):
		return apperrors.NotFoundWithID(resource, id)
	default:
		return err
	}
}
