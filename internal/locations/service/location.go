package service

import (
	"context"
	"errors"
	"fmt"
	locationserrors "meshwar/internal/locations/errors"
	"meshwar/internal/locations/repository"
	"meshwar/internal/locations/validator"
	"meshwar/pkg/config"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"meshwar/pkg/sanitizer"
	"meshwar/pkg/validation"
	"sync"
)

type LocationService interface {
	Create(ctx context.Context, location *model.Location) error
	GetByID(ctx context.Context, id string) (*model.Location, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Location, int64, error)
	Search(ctx context.Context, filter model.LocationFilter, limit int, offset int64) ([]*model.Location, int64, error)
	Update(ctx context.Context, id string, updates *model.LocationUpdate) error
	Delete(ctx context.Context, id string) error
}

type locationService struct {
	repo      repository.LocationRepository
	validator *validator.LocationValidator
	cfg       *config.Config
}

func NewLocationService(
	repo repository.LocationRepository,
	validator *validator.LocationValidator,
	cfg *config.Config,
) LocationService {
	return &locationService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *locationService) Create(ctx context.Context, location *model.Location) error {
	s.sanitize(location)

	if err := s.validator.Validate(location); err != nil {
		s.cfg.Log.Warn("Location validation failed", "name", location.Name, "error", err)
		return validation.ToAppError("Location validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureCategoryExists(txCtx, location.CategoryID); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, location); err != nil {
			return fmt.Errorf("failed to create location: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to create location", "name", location.Name)
	}

	s.cfg.Log.Info("Location created successfully",
		"id", location.ID,
		"name", location.Name,
		"city", location.City,
		"category_id", location.CategoryID,
	)
	return nil
}

func (s *locationService) GetByID(ctx context.Context, id string) (*model.Location, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Location ID cannot be empty")
	}

	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return nil, mapped
		}
		s.cfg.Log.Error("Failed to get location by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve location", err)
	}
	return location, nil
}

func (s *locationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Location, int64, error) {
	return s.list(ctx, model.LocationFilter{}, limit, offset)
}

// Search lists locations in a city and/or category. At least one criterion is required.
func (s *locationService) Search(ctx context.Context, filter model.LocationFilter, limit int, offset int64) ([]*model.Location, int64, error) {
	filter.City = sanitizer.NormalizeCity(filter.City)
	filter.CategoryID = sanitizer.TrimAndNormalize(filter.CategoryID)
	if filter.City == "" && filter.CategoryID == "" {
		return nil, 0, apperrors.InvalidInput("At least one search criterion (city or category_id) must be provided")
	}
	if err := s.validator.ValidateFilter(filter); err != nil {
		return nil, 0, validation.ToAppError("Invalid location search", err)
	}

	locations, total, err := s.list(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	s.cfg.Log.Debug("Location search completed",
		"city", filter.City,
		"category_id", filter.CategoryID,
		"results_count", len(locations),
	)
	return locations, total, nil
}

func (s *locationService) list(ctx context.Context, filter model.LocationFilter, limit int, offset int64) ([]*model.Location, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var locations []*model.Location
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
			s.cfg.Log.Error("Failed to count locations", "error", err)
			errCount = apperrors.Internal("Failed to count locations", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		locations, err = s.repo.FindAll(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get locations", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve locations", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return locations, count, nil
}

func (s *locationService) Update(ctx context.Context, id string, updates *model.LocationUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Location ID cannot be empty")
	}

	s.sanitizeUpdate(updates)

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			if mapped := mapLookupError(err, id); mapped != nil {
				return mapped
			}
			return fmt.Errorf("failed to check location existence: %w", err)
		}

		merged := mergeLocationUpdates(existing, updates)
		if err := s.validator.Validate(merged); err != nil {
			s.cfg.Log.Warn("Location validation failed", "id", id, "error", err)
			return validation.ToAppError("Location validation failed", err)
		}

		if merged.CategoryID != existing.CategoryID {
			if err := s.ensureCategoryExists(txCtx, merged.CategoryID); err != nil {
				return err
			}
		}
		return s.repo.Update(txCtx, id, merged)
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to update location", "id", id)
	}

	s.cfg.Log.Info("Location updated successfully", "id", id)
	return nil
}

// Delete refuses to remove a location that still has activities.
func (s *locationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Location ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		activities, err := s.repo.CountActivities(txCtx, id)
		if err != nil {
			return err
		}
		if activities > 0 {
			return apperrors.Conflict(fmt.Sprintf("Location still has %d activities", activities)).
				WithDetails(map[string]any{"location_id": id, "activities": activities})
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
		return s.mapWriteError(err, "Failed to delete location", "id", id)
	}

	s.cfg.Log.Info("Location deleted successfully", "id", id)
	return nil
}

func (s *locationService) ensureCategoryExists(ctx context.Context, categoryID string) error {
	exists, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		if errors.Is(err, locationserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid category ID format")
		}
		return err
	}
	if !exists {
		return apperrors.NotFoundWithID("Category", categoryID)
	}
	return nil
}

func (s *locationService) mapWriteError(err error, message string, args ...any) error {
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func (s *locationService) sanitize(location *model.Location) {
	location.Name = sanitizer.NormalizeName(location.Name)
	location.Description = sanitizer.TrimAndNormalize(location.Description)
	location.CategoryID = sanitizer.TrimAndNormalize(location.CategoryID)
	location.Address = sanitizer.TrimAndNormalize(location.Address)
	location.City = sanitizer.NormalizeCity(location.City)
	location.ImageURLs = sanitizer.NormalizeImageURLs(location.ImageURLs)
}

func (s *locationService) sanitizeUpdate(updates *model.LocationUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Description != nil {
		normalized := sanitizer.TrimAndNormalize(*updates.Description)
		updates.Description = &normalized
	}
	if updates.CategoryID != "" {
		updates.CategoryID = sanitizer.TrimAndNormalize(updates.CategoryID)
	}
	if updates.Address != nil {
		normalized := sanitizer.TrimAndNormalize(*updates.Address)
		updates.Address = &normalized
	}
	if updates.City != "" {
		updates.City = sanitizer.NormalizeCity(updates.City)
	}
	if updates.ImageURLs != nil {
		normalized := sanitizer.NormalizeImageURLs(*updates.ImageURLs)
		updates.ImageURLs = &normalized
	}
}

func mergeLocationUpdates(existing *model.Location, updates *model.LocationUpdate) *model.Location {
	merged := *existing
	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.CategoryID != "" {
		merged.CategoryID = updates.CategoryID
	}
	if updates.Address != nil {
		merged.Address = *updates.Address
	}
	if updates.City != "" {
		merged.City = updates.City
	}
	if updates.Latitude != nil {
		merged.Latitude = *updates.Latitude
	}
	if updates.Longitude != nil {
		merged.Longitude = *updates.Longitude
	}
	if updates.ImageURLs != nil {
		merged.ImageURLs = *updates.ImageURLs
	}
	return &merged
}

func mapLookupError(err error, id string) error {
	switch {
	case errors.Is(err, locationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Location", id)
	case errors.Is(err, locationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid location ID format")
	default:
		return nil
	}
}
