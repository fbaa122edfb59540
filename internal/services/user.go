package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fitlog/apiserver/internal/logger"
	"github.com/fitlog/apiserver/internal/observability"
	"github.com/fitlog/apiserver/internal/store"
	"github.com/fitlog/apiserver/types"
)

const (
	msgUsernameTaken  = "User with that username already exists, please use a different one"
	msgUsernameEmpty  = "Username cannot be empty"
	msgCreateUserFail = "There was an error creating the user"
	msgListUsersFail  = "There was an error fetching users"
	msgUserNotFound   = "No user exists with that id"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService registers and lists users.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// List returns every user in insertion order.
func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		logger.Log(ctx).Error(ctx, "list users failed", zap.Error(err))
		return nil, wrapError(ErrPersistence, msgListUsersFail, err)
	}
	return users, nil
}

// GetByID finds a user. Malformed ids and lookup failures both report ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Log(ctx).Warn(ctx, "user lookup failed, treating as not found",
				zap.String("user_id", id), zap.Error(err))
		}
		return types.User{}, wrapError(ErrUserNotFound, msgUserNotFound, err)
	}
	return user, nil
}

// Create registers a new user.
//
// The duplicate check runs before the emptiness check. The store's unique
// constraint settles races between concurrent registrations of one name.
func (s *UserService) Create(ctx context.Context, username string) (types.User, error) {
	log := logger.Log(ctx).With(zap.String("method", "UserService.Create"))
	username = strings.TrimSpace(username)

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return types.User{}, newError(ErrDuplicateUsername, msgUsernameTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn(ctx, "username lookup failed, relying on unique constraint", zap.Error(err))
	}

	if username == "" {
		return types.User{}, newError(ErrInvalidInput, msgUsernameEmpty)
	}

	user, err := s.repo.Create(ctx, types.User{Username: username})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, wrapError(ErrDuplicateUsername, msgUsernameTaken, err)
		}
		log.Error(ctx, "create user failed", zap.Error(err))
		return types.User{}, wrapError(ErrPersistence, msgCreateUserFail, err)
	}

	observability.RecordUserCreated()
	log.Info(ctx, "user created", zap.String("user_id", user.ID))
	return user, nil
}
