package orchestrators

import (
	"context"
	"errors"
	"time"

	storeAccount "motoclub/internal/adapters/storage/account"
	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/account"
	"motoclub/internal/logging"
)

// UserStoreForLogin defines the store interface needed by Login.
type UserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.User, error)
	Save(ctx context.Context, u account.User) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID string
	Name   string
	Email  string
	Role   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
	Now       func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("email o password non validi")
	ErrAccountLocked      = errors.New("account bloccato per troppi tentativi falliti, riprova più tardi")
)

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: Valid email and password provided
// POST: Returns user info on success, records failed login on failure
// INVARIANT: User must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := deps.Now()

	user, err := deps.UserStore.GetByEmail(ctx, input.Email)
	if errors.Is(err, storeAccount.ErrNotFound) {
		logging.Info().Str("event", "login_failed").Str("email", input.Email).Str("reason", "not_found").Msg("auth_event")
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		logging.Error().Err(err).Str("op", "login").Msg("user_store_failed")
		return LoginResult{}, apperr.Unavailable(err)
	}

	if user.IsLocked(now) {
		logging.Info().Str("event", "login_blocked").Str("email", input.Email).Str("reason", "locked").Msg("auth_event")
		return LoginResult{}, ErrAccountLocked
	}

	if err := user.CheckPassword(input.Password); err != nil {
		user.RecordFailedLogin(now)
		_ = deps.UserStore.Save(ctx, user)
		logging.Info().Str("event", "login_failed").Str("email", input.Email).Str("reason", "wrong_password").Int("failed_logins", user.FailedLogins).Msg("auth_event")
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.FailedLogins > 0 || !user.LockedUntil.IsZero() {
		user.ResetFailedLogins()
		_ = deps.UserStore.Save(ctx, user)
	}

	logging.Info().Str("event", "login_success").Str("email", user.Email).Str("role", user.Role).Msg("auth_event")

	return LoginResult{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
