package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/cardmarket-api/internal/model"
	"github.com/flicky/cardmarket-api/internal/repository"
)

// UserService owns user profiles and role assignment. A user holds at most one of
// seller, customer and admin; every change to the role happens in one transaction
// together with any profile change made in the same call.
type UserService struct {
	tx       repository.Transactor
	users    repository.UserRepository
	hashCost int
}

func NewUserService(tx repository.Transactor, users repository.UserRepository) *UserService {
	return &UserService{tx: tx, users: users, hashCost: bcrypt.DefaultCost}
}

type CreateUserInput struct {
	Username     string
	Email        string
	Password     string
	Role         model.RoleKind
	SellerRating int
}

type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
	// Role nil leaves the role untouched; a pointer to RoleNone removes it.
	Role         *model.RoleKind
	SellerRating int
}

func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*model.User, error) {
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var user *model.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u := &model.User{Username: in.Username, Email: in.Email, Password: string(hashed)}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrUniqueViolation) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		if in.Role != model.RoleNone {
			role, err := s.users.ReplaceRole(ctx, u.ID, in.Role, in.SellerRating)
			if err != nil {
				return fmt.Errorf("assign role: %w", err)
			}
			u.Role = role
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser applies profile changes and an optional role change atomically.
// If any step fails, neither the profile nor the role changes.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*model.User, error) {
	upd := model.ProfileUpdate{Username: in.Username, Email: in.Email}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidInput)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		h := string(hashed)
		upd.Password = &h
	}

	var user *model.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.users.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if existing == nil {
			return ErrUserNotFound
		}

		if !upd.Empty() {
			if err := s.users.UpdateProfile(ctx, id, upd); err != nil {
				switch {
				case errors.Is(err, repository.ErrNotFound):
					return ErrUserNotFound
				case errors.Is(err, repository.ErrUniqueViolation):
					return ErrEmailTaken
				}
				return fmt.Errorf("update profile: %w", err)
			}
		}

		if in.Role != nil {
			if _, err := s.users.ReplaceRole(ctx, id, *in.Role, in.SellerRating); err != nil {
				switch {
				case errors.Is(err, repository.ErrNotFound):
					return ErrUserNotFound
				case errors.Is(err, repository.ErrReferenceViolation):
					return ErrRoleInUse
				}
				return fmt.Errorf("replace role: %w", err)
			}
		}

		user, err = s.users.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole replaces the user's role with kind. RoleNone leaves the user without one.
// Repeating the call with the same kind is a no-op.
func (s *UserService) SetRole(ctx context.Context, id int64, kind model.RoleKind) (*model.User, error) {
	return s.UpdateUser(ctx, id, UpdateUserInput{Role: &kind})
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrReferenceViolation):
			return ErrRoleInUse
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
