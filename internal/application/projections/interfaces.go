package projections

import (
	"context"
	"time"

	storeAccount "motoclub/internal/adapters/storage/account"
	domainAccount "motoclub/internal/domain/account"
	domainGallery "motoclub/internal/domain/gallery"
	domainProgram "motoclub/internal/domain/program"
)

// ProgramStore interface for program queries.
type ProgramStore interface {
	FindByYear(ctx context.Context, year int) (domainProgram.YearlyProgram, error)
	ListByYearDesc(ctx context.Context) ([]domainProgram.YearlyProgram, error)
}

// GalleryStore interface for gallery queries.
type GalleryStore interface {
	ListByDateDesc(ctx context.Context) ([]domainGallery.Event, error)
	ListFrom(ctx context.Context, from time.Time, limit int) ([]domainGallery.Event, error)
	ListBetween(ctx context.Context, from, to time.Time, limit int) ([]domainGallery.Event, error)
}

// UserStore interface for user queries.
type UserStore interface {
	GetByID(ctx context.Context, id string) (domainAccount.User, error)
	List(ctx context.Context, filter storeAccount.ListFilter) ([]domainAccount.User, error)
}
