package projections

import (
	"context"
	"time"

	storeAccount "motoclub/internal/adapters/storage/account"
	"motoclub/internal/application/apperr"
	"motoclub/internal/application/listutil"
	domainAccount "motoclub/internal/domain/account"
	"motoclub/internal/logging"
)

// UserSummary is the admin listing row for a user.
type UserSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// QueryListUsers returns all users, newest first, without credentials.
func QueryListUsers(ctx context.Context, users UserStore) ([]UserSummary, error) {
	list, err := users.List(ctx, storeAccount.ListFilter{})
	if err != nil {
		logging.Error().Err(err).Str("op", "list_users").Msg("user_store_failed")
		return nil, apperr.Unavailable(err)
	}
	out := make([]UserSummary, 0, len(list))
	for _, u := range list {
		out = append(out, summaryOf(u))
	}
	return out, nil
}

// UserPageStore is the store surface needed for paged listings.
type UserPageStore interface {
	List(ctx context.Context, filter storeAccount.ListFilter) ([]domainAccount.User, error)
	CountMatching(ctx context.Context, filter storeAccount.ListFilter) (int, error)
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Users []UserSummary
	Role  string
	Info  listutil.PageInfo
}

// QueryUserPage returns the page of users selected by params, newest first.
// The page number is clamped to the last page.
func QueryUserPage(ctx context.Context, params listutil.ListParams, users UserPageStore) (UserPage, error) {
	filter := storeAccount.ListFilter{Role: params.Filters["role"]}
	total, err := users.CountMatching(ctx, filter)
	if err != nil {
		logging.Error().Err(err).Str("op", "count_users").Msg("user_store_failed")
		return UserPage{}, apperr.Unavailable(err)
	}
	info := listutil.NewPageInfo(params.Page, params.PerPage, total)
	filter.Limit = info.PerPage
	filter.Offset = info.Offset()
	list, err := users.List(ctx, filter)
	if err != nil {
		logging.Error().Err(err).Str("op", "list_users").Msg("user_store_failed")
		return UserPage{}, apperr.Unavailable(err)
	}
	page := UserPage{Users: make([]UserSummary, 0, len(list)), Role: filter.Role, Info: info}
	for _, u := range list {
		page.Users = append(page.Users, summaryOf(u))
	}
	return page, nil
}

func summaryOf(u domainAccount.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}
