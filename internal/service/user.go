package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/joinagame/internal/apperror"
	"github.com/sakif/joinagame/internal/model"
	"github.com/sakif/joinagame/internal/repository"
)

const MaxUserNameLength = 100

type CreateUserInput struct {
	Name       string
	Phone      string
	SkillLevel string
	Profile    map[string]string
}

// UpdateUserInput is a partial update: nil fields are left untouched and
// Profile keys are merged into the existing profile.
type UpdateUserInput struct {
	Name       *string
	Phone      *string
	SkillLevel *string
	Profile    map[string]string
}

// UserService manages player profiles. Users are not linked to game rosters:
// deleting or renaming a user never touches games.
type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	name, err := validateUserName(in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := model.User{
		ID:         xid.New().String(),
		Name:       name,
		Phone:      strings.TrimSpace(in.Phone),
		SkillLevel: strings.TrimSpace(in.SkillLevel),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if len(in.Profile) > 0 {
		user.Profile = maps.Clone(in.Profile)
	}

	err = s.repo.MutateUsers(ctx, func(users []model.User) ([]model.User, error) {
		return append(users, user), nil
	})
	if err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", slog.String("id", user.ID))
	return &user, nil
}

// Update applies a partial update. Returns apperror.ErrNotFound if the user
// doesn't exist.
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	var name string
	if in.Name != nil {
		var err error
		if name, err = validateUserName(*in.Name); err != nil {
			return nil, err
		}
	}

	var updated model.User
	err := s.repo.MutateUsers(ctx, func(users []model.User) ([]model.User, error) {
		i := -1
		for j := range users {
			if users[j].ID == id {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, apperror.NotFound("user", id)
		}

		u := users[i]
		if in.Name != nil {
			u.Name = name
		}
		if in.Phone != nil {
			u.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.SkillLevel != nil {
			u.SkillLevel = strings.TrimSpace(*in.SkillLevel)
		}
		if len(in.Profile) > 0 {
			merged := make(map[string]string, len(u.Profile)+len(in.Profile))
			maps.Copy(merged, u.Profile)
			maps.Copy(merged, in.Profile)
			u.Profile = merged
		}
		u.UpdatedAt = s.now()

		users[i] = u
		updated = u
		return users, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", slog.String("id", id))
	return &updated, nil
}

// GetByID returns apperror.ErrNotFound if the user doesn't exist.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.repo.FindUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.LoadUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func validateUserName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}
	return name, nil
}
