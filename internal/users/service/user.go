package service

import (
	"context"
	"errors"
	"fmt"
	userserrors "meshwar/internal/users/errors"
	"meshwar/internal/users/repository"
	"meshwar/internal/users/validator"
	"meshwar/pkg/config"
	apperrors "meshwar/pkg/errors"
	"meshwar/pkg/model"
	"meshwar/pkg/sanitizer"
	"meshwar/pkg/validation"
	"sync"
)

type UserService interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	Update(ctx context.Context, id string, updates *model.UserUpdate) error
	Delete(ctx context.Context, id string) error
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *userService) Create(ctx context.Context, user *model.User) error {
	s.sanitize(user)
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	if err := s.validator.Validate(user); err != nil {
		s.cfg.Log.Warn("User validation failed", "email", user.Email, "error", err)
		return validation.ToAppError("User validation failed", err)
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailFree(txCtx, user.Email, ""); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to create user", "email", user.Email)
	}

	s.cfg.Log.Info("User created successfully",
		"id", user.ID,
		"email", user.Email,
		"role", user.Role,
	)
	return nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return nil, mapped
		}
		s.cfg.Log.Error("Failed to get user by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var users []*model.User
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
			s.cfg.Log.Error("Failed to count users", "error", err)
			errCount = apperrors.Internal("Failed to count users", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
		defer cancel()
		users, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all users",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve users", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return users, count, nil
}

func (s *userService) Update(ctx context.Context, id string, updates *model.UserUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	s.sanitizeUpdate(updates)

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			if mapped := mapLookupError(err, id); mapped != nil {
				return mapped
			}
			return fmt.Errorf("failed to check user existence: %w", err)
		}

		merged := mergeUserUpdates(existing, updates)
		if err := s.validator.Validate(merged); err != nil {
			s.cfg.Log.Warn("User validation failed", "id", id, "error", err)
			return validation.ToAppError("User validation failed", err)
		}

		if merged.Email != existing.Email {
			if err := s.ensureEmailFree(txCtx, merged.Email, id); err != nil {
				return err
			}
		}

		return s.repo.Update(txCtx, id, merged)
	})
	if err != nil {
		return s.mapWriteError(err, "Failed to update user", "id", id)
	}

	s.cfg.Log.Info("User updated successfully", "id", id)
	return nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("User ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if mapped := mapLookupError(err, id); mapped != nil {
			return mapped
		}
		s.cfg.Log.Error("Failed to delete user", "id", id, "error", err)
		return apperrors.Internal("Failed to delete user", err)
	}

	s.cfg.Log.Info("User deleted successfully", "id", id)
	return nil
}

func (s *userService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check for duplicate email: %w", err)
	}
	if existing.ID != selfID {
		return apperrors.Conflict(fmt.Sprintf("User with email %s already exists (id: %s)", email, existing.ID))
	}
	return nil
}

func (s *userService) mapWriteError(err error, message string, args ...any) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, userserrors.ErrDuplicateEmail) {
		return apperrors.Conflict("User with this email already exists")
	}
	s.cfg.Log.Error(message, append(args, "error", err)...)
	return apperrors.Internal(message, err)
}

func (s *userService) sanitize(user *model.User) {
	user.Email = sanitizer.NormalizeEmail(user.Email)
	user.DisplayName = sanitizer.NormalizeName(user.DisplayName)
	user.Role = sanitizer.NormalizeNameForComparison(user.Role)
	if user.Phone != "" {
		if normalized := sanitizer.NormalizePhone(user.Phone); normalized != "" {
			user.Phone = normalized
		}
	}
}

func (s *userService) sanitizeUpdate(updates *model.UserUpdate) {
	if updates.Email != "" {
		updates.Email = sanitizer.NormalizeEmail(updates.Email)
	}
	if updates.DisplayName != "" {
		updates.DisplayName = sanitizer.NormalizeName(updates.DisplayName)
	}
	if updates.Role != "" {
		updates.Role = sanitizer.NormalizeNameForComparison(updates.Role)
	}
	if updates.Phone != "" {
		if normalized := sanitizer.NormalizePhone(updates.Phone); normalized != "" {
			updates.Phone = normalized
		}
	}
}

func mergeUserUpdates(existing *model.User, updates *model.UserUpdate) *model.User {
	merged := *existing
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.DisplayName != "" {
		merged.DisplayName = updates.DisplayName
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Role != "" {
		merged.Role = updates.Role
	}
	return &merged
}

func mapLookupError(err error, id string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	default:
		return nil
	}
}
