package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	storeAccount "motoclub/internal/adapters/storage/account"
	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/account"
	"motoclub/internal/logging"
)

// UserStoreForSignup defines the store interface needed by Signup.
type UserStoreForSignup interface {
	GetByEmail(ctx context.Context, email string) (account.User, error)
	Save(ctx context.Context, u account.User) error
}

// SignupInput carries input for the orchestrator.
type SignupInput struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SignupDeps holds dependencies for Signup.
type SignupDeps struct {
	UserStore  UserStoreForSignup
	GenerateID func() string
	Now        func() time.Time
}

const msgEmailTaken = "Esiste già un account con questa email"

// ExecuteSignup registers a new user with the user role.
// PRE: Name >= 2 chars, valid email, password >= 6 chars confirmed
// POST: User persisted with a bcrypt hash and RoleUser
// INVARIANT: Email is unique (case-insensitive)
func ExecuteSignup(ctx context.Context, input SignupInput, deps SignupDeps) (account.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := checkInput(input); err != nil {
		return account.User{}, err
	}

	_, err := deps.UserStore.GetByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return account.User{}, apperr.New(apperr.Conflict, msgEmailTaken)
	case !errors.Is(err, storeAccount.ErrNotFound):
		logging.Error().Err(err).Str("op", "signup").Msg("user_store_failed")
		return account.User{}, apperr.Unavailable(err)
	}

	user := account.User{
		ID:        deps.GenerateID(),
		Name:      input.Name,
		Email:     input.Email,
		Role:      account.RoleUser,
		CreatedAt: deps.Now(),
	}
	if err := user.Validate(); err != nil {
		return account.User{}, apperr.Validation(err)
	}
	if err := user.SetPassword(input.Password); err != nil {
		return account.User{}, apperr.Validation(err)
	}

	err = deps.UserStore.Save(ctx, user)
	if errors.Is(err, storeAccount.ErrDuplicateEmail) {
		return account.User{}, apperr.New(apperr.Conflict, msgEmailTaken)
	}
	if err != nil {
		logging.Error().Err(err).Str("op", "signup").Msg("user_store_failed")
		return account.User{}, apperr.Unavailable(err)
	}

	logging.Info().Str("event", "account_created").Str("email", user.Email).Str("role", user.Role).Msg("auth_event")
	return user, nil
}
