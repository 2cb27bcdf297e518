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

// UserStoreForAdmin defines the store interface needed by the user management operations.
type UserStoreForAdmin interface {
	GetByID(ctx context.Context, id string) (account.User, error)
	Save(ctx context.Context, u account.User) error
	UpdateRole(ctx context.Context, id, role string) (account.User, error)
	Count(ctx context.Context) (int, error)
}

// UserDeps holds dependencies for the user management operations.
type UserDeps struct {
	UserStore  UserStoreForAdmin
	GenerateID func() string
	Now        func() time.Time
}

// UpdateUserRoleInput carries input for the orchestrator.
type UpdateUserRoleInput struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// ExecuteUpdateUserRole changes a user's role.
// PRE: Role is user or admin
// POST: User has the new role; NotFound when the user does not exist
// INVARIANT: Program events referencing the user are unaffected
func ExecuteUpdateUserRole(ctx context.Context, input UpdateUserRoleInput, deps UserDeps) (account.User, error) {
	if err := checkInput(input); err != nil {
		return account.User{}, err
	}
	if !account.IsValidRole(input.Role) {
		return account.User{}, apperr.Validation(account.ErrInvalidRole)
	}

	user, err := deps.UserStore.UpdateRole(ctx, input.UserID, input.Role)
	if errors.Is(err, storeAccount.ErrNotFound) {
		return account.User{}, apperr.New(apperr.NotFound, "Utente non trovato")
	}
	if err != nil {
		logging.Error().Err(err).Str("op", "update_role").Msg("user_store_failed")
		return account.User{}, apperr.Unavailable(err)
	}

	logging.Info().Str("event", "role_changed").Str("user_id", user.ID).Str("role", user.Role).Msg("auth_event")
	return user, nil
}

// UpdateProfileInput carries input for the orchestrator.
type UpdateProfileInput struct {
	UserID string `json:"-" validate:"required"`
	Name   string `json:"name" validate:"required,min=2,max=100"`
}

// ExecuteUpdateProfile changes the display name of the signed-in user.
// POST: User.Name updated; other fields unchanged
func ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput, deps UserDeps) (account.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := checkInput(input); err != nil {
		return account.User{}, err
	}

	user, err := deps.UserStore.GetByID(ctx, input.UserID)
	if errors.Is(err, storeAccount.ErrNotFound) {
		return account.User{}, apperr.New(apperr.NotFound, "Utente non trovato")
	}
	if err != nil {
		logging.Error().Err(err).Str("op", "update_profile").Msg("user_store_failed")
		return account.User{}, apperr.Unavailable(err)
	}

	user.Name = input.Name
	if err := user.Validate(); err != nil {
		return account.User{}, apperr.Validation(err)
	}
	if err := deps.UserStore.Save(ctx, user); err != nil {
		logging.Error().Err(err).Str("op", "update_profile").Msg("user_store_failed")
		return account.User{}, apperr.Unavailable(err)
	}
	return user, nil
}

// SeedAdminInput carries the configured bootstrap administrator.
type SeedAdminInput struct {
	Name     string
	Email    string
	Password string
}

// ExecuteSeedAdmin creates the first administrator when no users exist.
// PRE: Email and Password non-empty (otherwise seeding is skipped)
// POST: Returns true when an admin was created
// INVARIANT: Never runs when at least one user exists
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps UserDeps) (bool, error) {
	if input.Email == "" || input.Password == "" {
		return false, nil
	}
	n, err := deps.UserStore.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	name := input.Name
	if name == "" {
		name = "Amministratore"
	}
	admin := account.User{
		ID:        deps.GenerateID(),
		Name:      name,
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      account.RoleAdmin,
		CreatedAt: deps.Now(),
	}
	if err := admin.Validate(); err != nil {
		return false, err
	}
	if err := admin.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := deps.UserStore.Save(ctx, admin); err != nil {
		return false, err
	}

	logging.Info().Str("event", "admin_seeded").Str("email", admin.Email).Msg("auth_event")
	return true, nil
}
