package sitesetting

import (
	"context"

	domain "motoclub/internal/domain/sitesetting"
)

// Store persists the site-wide settings document.
type Store interface {
	Get(ctx context.Context) (domain.Settings, error)
	Set(ctx context.Context, s domain.Settings) error
}
