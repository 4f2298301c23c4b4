package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"myduid/internal/core"
	"myduid/internal/log"
)

// UserService registers local accounts. Sessions are issued elsewhere.
type UserService struct {
	deps Deps
	cost int
}

func NewUserService(deps Deps, bcryptCost int) *UserService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{deps: deps.withDefaults(log.ComponentUsers), cost: bcryptCost}
}

// Register creates a user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, in core.RegistrationInput) (core.User, error) {
	exists, err := s.deps.Store.EmailExists(ctx, in.Email)
	if err != nil {
		return core.User{}, s.deps.fail(ctx, "create account", err)
	}
	if exists {
		return core.User{}, core.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return core.User{}, s.deps.fail(ctx, "create account", fmt.Errorf("hash password: %w", err))
	}

	u, err := s.deps.Store.CreateUser(ctx, in.Name, in.Email, string(hash))
	if err != nil {
		return core.User{}, s.deps.fail(ctx, "create account", err)
	}

	s.deps.Logger.InfoContext(ctx, "User registered", log.FieldUserID, u.ID, log.FieldOperation, log.OpRegister)
	return u, nil
}
