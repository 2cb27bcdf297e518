package gallery

import (
	"context"
	"errors"
	"time"

	domain "motoclub/internal/domain/gallery"
)

// ErrNotFound is returned when no gallery event matches.
var ErrNotFound = errors.New("gallery event not found")

// Store persists gallery Event state.
type Store interface {
	Create(ctx context.Context, e domain.Event) error
	GetByID(ctx context.Context, id string) (domain.Event, error)
	AppendPhoto(ctx context.Context, id string, p domain.Photo) (domain.Event, error)
	Delete(ctx context.Context, id string) error
	ListByDateDesc(ctx context.Context) ([]domain.Event, error)
	ListFrom(ctx context.Context, from time.Time, limit int) ([]domain.Event, error)
	ListBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.Event, error)
}
