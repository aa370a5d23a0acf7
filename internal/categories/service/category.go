package service

import (
	"context"
	"errors"
	"fmt"
	categorieserrors "meshwar/internal/categories/errors"
	"meshwar/internal/categories/repository"
	"meshwar/internal/categories/validator"
	"meshwar/pkg/config"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"meshwar/pkg/sanitizer"
	"meshwar/pkg/validation"
	"sync"
)

type CategoryService interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id string) (*model.Category, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Category, int64, error)
	Update(ctx context.Context, id string, updates *model.CategoryUpdate) error
	// Delete refuses to remove a category that locations still reference.
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	repo      repository.CategoryRepository
	validator *validator.CategoryValidator
	cfg       *config.Config
}

func NewCategoryService(
	repo repository.CategoryRepository,
	validator *validator.CategoryValidator,
	cfg *config.Config,
) CategoryService {
	return &categoryService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *categoryService) Create(ctx context.Context, category *model.Category) error {
	s.sanitize(category)

	if err := s.validator.Validate(category); err != nil {
		s.cfg.Log.Warn("Category validation failed", "name", category.Name, "error", err)
		return validation.ToAppError("Category validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureNameFree(txCtx, category.Name, ""); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, category); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to create category", "name", category.Name)
	}

	s.cfg.Log.Info("Category created successfully", "id", category.ID, "name", category.Name)
	return nil
}

func (s *categoryService) GetByID(ctx context.Context, id string) (*model.Category, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Category ID cannot be empty")
	}

	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return nil, mapped
		}
		s.cfg.Log.Error("Failed to get category by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve category", err)
	}
	return category, nil
}

func (s *categoryService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Category, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var categories []*model.Category
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count categories", "error", err)
			errCount = apperrors.Internal("Failed to count categories", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		categories, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all categories", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve categories", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return categories, count, nil
}

func (s *categoryService) Update(ctx context.Context, id string, updates *model.CategoryUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Category ID cannot be empty")
	}

	s.sanitizeUpdate(updates)

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			if mapped := mapLookupError(err, id); mapped != nil {
				return mapped
			}
			return fmt.Errorf("failed to check category existence: %w", err)
		}

		merged := mergeCategoryUpdates(existing, updates)
		if err := s.validator.Validate(merged); err != nil {
			s.cfg.Log.Warn("Category validation failed", "id", id, "error", err)
			return validation.ToAppError("Category validation failed", err)
		}

		if sanitizer.NormalizeNameForComparison(merged.Name) != sanitizer.NormalizeNameForComparison(existing.Name) {
			if err := s.ensureNameFree(txCtx, merged.Name, id); err != nil {
				return err
			}
		}
		return s.repo.Update(txCtx, id, merged)
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to update category", "id", id)
	}

	s.cfg.Log.Info("Category updated successfully", "id", id)
	return nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Category ID cannot be empty")
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		inUse, err := s.repo.CountLocations(txCtx, id)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return apperrors.Conflict(fmt.Sprintf("Category is used by %d location(s)", inUse)).
				WithDetails(map[string]any{"category_id": id, "locations": inUse})
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
		return s.mapWriteError(err, "Failed to delete category", "id", id)
	}

	s.cfg.Log.Info("Category deleted successfully", "id", id)
	return nil
}

func (s *categoryService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, categorieserrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check for duplicate category: %w", err)
	}
	if existing.ID != selfID {
		return apperrors.Conflict(fmt.Sprintf("Category %q already exists (id: %s)", existing.Name, existing.ID))
	}
	return nil
}

func (s *categoryService) mapWriteError(err error, message string, args ...any) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, categorieserrors.ErrDuplicateName) {
		return apperrors.Conflict("Category with this name already exists")
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func (s *categoryService) sanitize(category *model.Category) {
	category.Name = sanitizer.NormalizeName(category.Name)
	category.Description = sanitizer.TrimAndNormalize(category.Description)
	category.Icon = sanitizer.TrimAndNormalize(category.Icon)
}

func (s *categoryService) sanitizeUpdate(updates *model.CategoryUpdate) {
	if updates.Name != "" {
		updates.Name = sanitizer.NormalizeName(updates.Name)
	}
	if updates.Description != nil {
		normalized := sanitizer.TrimAndNormalize(*updates.Description)
		updates.Description = &normalized
	}
	if updates.Icon != nil {
		normalized := sanitizer.TrimAndNormalize(*updates.Icon)
		updates.Icon = &normalized
	}
}

func mergeCategoryUpdates(existing *model.Category, updates *model.CategoryUpdate) *model.Category {
	merged := *existing
	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Description != nil {
		merged.Description = *updates.Description
	}
	if updates.Icon != nil {
		merged.Icon = *updates.Icon
	}
	return &merged
}

func mapLookupError(err error, id string) error {
	switch {
	case errors.Is(err, categorieserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Category", id)
	case errors.Is(err, categorieserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid category ID format")
	default:
		return nil
	}
}
