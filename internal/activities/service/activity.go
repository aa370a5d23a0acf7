package service

import (
	"context"
	"errors"
	"fmt"
	activitieserrors "meshwar/internal/activities/errors"
	"meshwar/internal/activities/repository"
	"meshwar/internal/activities/validator"
	"meshwar/pkg/config"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"meshwar/pkg/sanitizer"
	"meshwar/pkg/validation"
	"strings"
	"sync"
)

type ActivityService interface {
	Create(ctx context.Context, activity *model.Activity) error
	GetByID(ctx context.Context, id string) (*model.Activity, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Activity, int64, error)
	Search(ctx context.Context, filter model.ActivityFilter, limit int, offset int64) ([]*model.Activity, int64, error)
	Update(ctx context.Context, id string, updates *model.ActivityUpdate) error
	Delete(ctx context.Context, id string) error
}

type activityService struct {
	repo      repository.ActivityRepository
	validator *validator.ActivityValidator
	cfg       *config.Config
}

func NewActivityService(
	repo repository.ActivityRepository,
	validator *validator.ActivityValidator,
	cfg *config.Config,
) ActivityService {
	return &activityService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *activityService) Create(ctx context.Context, activity *model.Activity) error {
	s.sanitize(activity)
	activity.CurrentParticipants = 0

	if err := s.validator.Validate(activity); err != nil {
		s.cfg.Log.Warn("Activity validation failed", "title", activity.Title, "error", err)
		return validation.ToAppError("Activity validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureLocationExists(txCtx, activity.LocationID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, activity); err != nil {
			return fmt.Errorf("failed to create activity: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to create activity", "title", activity.Title)
	}

	s.cfg.Log.Info("Activity created successfully",
		"id", activity.ID,
		"title", activity.Title,
		"location_id", activity.LocationID,
		"participant_limit", activity.ParticipantLimit,
	)
	return nil
}

func (s *activityService) GetByID(ctx context.Context, id string) (*model.Activity, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Activity ID cannot be empty")
	}

	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return nil, mapped
		}
		s.cfg.Log.Error("Failed to get activity by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve activity", err)
	}
	return activity, nil
}

func (s *activityService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Activity, int64, error) {
	return s.list(ctx, model.ActivityFilter{}, limit, offset)
}

func (s *activityService) Search(ctx context.Context, filter model.ActivityFilter, limit int, offset int64) ([]*model.Activity, int64, error) {
	filter.LocationID = strings.TrimSpace(filter.LocationID)
	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, 0, validation.ToAppError("Invalid activity search", err)
	}
	return s.list(ctx, filter, limit, offset)
}

func (s *activityService) list(ctx context.Context, filter model.ActivityFilter, limit int, offset int64) ([]*model.Activity, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var activities []*model.Activity
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count activities", "error", err)
			errCount = apperrors.Internal("Failed to count activities", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		activities, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get activities", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve activities", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return activities, count, nil
}

func (s *activityService) Update(ctx context.Context, id string, updates *model.ActivityUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Activity ID cannot be empty")
	}

	s.sanitizeUpdate(updates)

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			if mapped := mapLookupError(err, id); mapped != nil {
				return mapped
			}
			return fmt.Errorf("failed to check activity existence: %w", err)
		}

		merged := mergeActivityUpdates(existing, updates)
		if err := s.validator.Validate(merged); err != nil {
			s.cfg.Log.Warn("Activity validation failed", "id", id, "error", err)
			return validation.ToAppError("Activity validation failed", err)
		}

		if merged.ParticipantLimit > 0 && merged.ParticipantLimit < existing.CurrentParticipants {
			return limitConflict(id, merged.ParticipantLimit, existing.CurrentParticipants)
		}

		if merged.LocationID != existing.LocationID {
			if err := s.ensureLocationExists(txCtx, merged.LocationID); err != nil {
				return err
			}
		}

		if err := s.repo.Update(txCtx, id, merged); err != nil {
			if errors.Is(err, activitieserrors.ErrLimitBelowParticipants) {
				return limitConflict(id, merged.ParticipantLimit, existing.CurrentParticipants)
			}
			if mapped := mapLookupError(err, id); mapped != nil {
				return mapped
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to update activity", "id", id)
	}

	s.cfg.Log.Info("Activity updated successfully", "id", id)
	return nil
}

// Delete refuses to remove an activity that still has bookings, so no booking is left
// pointing at a missing activity.
func (s *activityService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Activity ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		bookings, err := s.repo.CountBookings(txCtx, id)
		if err != nil {
			return err
		}
		if bookings > 0 {
			return apperrors.Conflict(fmt.Sprintf("Activity still has %d booking(s)", bookings)).
				WithDetails(map[string]any{"activity_id": id, "bookings": bookings})
		}

		if err := s.repo.Delete(txCtx, id); err != nil {
			if mapped := mapLookupError(err, id); mapped != nil {
				return mapped
			}
			return err
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to delete activity", "id", id)
	}

	s.cfg.Log.Info("Activity deleted successfully", "id", id)
	return nil
}

func (s *activityService) ensureLocationExists(ctx context.Context, locationID string) error {
	exists, err := s.repo.LocationExists(ctx, locationID)
	if err != nil {
		if errors.Is(err, activitieserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid location ID format")
		}
		return err
	}
	if !exists {
		return apperrors.NotFoundWithID("Location", locationID)
	}
	return nil
}

func (s *activityService) mapWriteError(err error, message string, args ...any) error {
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func (s *activityService) sanitize(activity *model.Activity) {
	activity.Title = sanitizer.NormalizeName(activity.Title)
	activity.Description = strings.TrimSpace(activity.Description)
	activity.LocationID = strings.TrimSpace(activity.LocationID)
	activity.StartDate = activity.StartDate.UTC()
	activity.EndDate = activity.EndDate.UTC()
}

func (s *activityService) sanitizeUpdate(updates *model.ActivityUpdate) {
	if updates.Title != "" {
		updates.Title = sanitizer.NormalizeName(updates.Title)
	}
	if updates.Description != nil {
		trimmed := strings.TrimSpace(*updates.Description)
		updates.Description = &trimmed
	}
	updates.LocationID = strings.TrimSpace(updates.LocationID)
	if updates.StartDate != nil {
		utc := updates.StartDate.UTC()
		updates.StartDate = &utc
	}
	if updates.EndDate != nil {
		utc := updates.EndDate.UTC()
		updates.EndDate = &utc
	}
}

func mergeActivityUpdates(existing *model.Activity, updates *model.ActivityUpdate) *model.Activity {
	merged := *existing
	if updates.LocationID != "" {
		merged.LocationID = updates.LocationID
	}
	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.StartDate != nil {
		merged.StartDate = *updates.StartDate
	}
	if updates.EndDate != nil {
		merged.EndDate = *updates.EndDate
	}
	if updates.ParticipantLimit != nil {
		merged.ParticipantLimit = *updates.ParticipantLimit
	}
	return &merged
}

func limitConflict(id string, limit, current int) error {
	return apperrors.Conflict("Participant limit cannot be lower than current participants").
		WithDetails(map[string]any{
			"activity_id":          id,
			"participant_limit":    limit,
			"current_participants": current,
		})
}

func mapLookupError(err error, id string) error {
	switch {
	case errors.Is(err, activitieserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Activity", id)
	case errors.Is(err, activitieserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid activity ID format")
	default:
		return nil
	}
}
