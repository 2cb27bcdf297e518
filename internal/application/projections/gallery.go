package projections

import (
	"context"
	"time"

	"motoclub/internal/application/apperr"
	domainGallery "motoclub/internal/domain/gallery"
	"motoclub/internal/logging"
)

// GalleryDeps holds dependencies for the gallery queries.
type GalleryDeps struct {
	GalleryStore GalleryStore
	Now          func() time.Time
}

func galleryUnavailable(op string, err error) error {
	logging.Error().Err(err).Str("op", op).Msg("gallery_store_failed")
	return apperr.Unavailable(err)
}

// QueryGalleryEvents returns every gallery event, newest first.
func QueryGalleryEvents(ctx context.Context, deps GalleryDeps) ([]domainGallery.Event, error) {
	events, err := deps.GalleryStore.ListByDateDesc(ctx)
	if err != nil {
		return nil, galleryUnavailable("list_gallery", err)
	}
	return events, nil
}

// QueryUpcomingEvents returns gallery events dated from today (UTC midnight) on, ascending.
// PRE: limit <= 0 means no cap
func QueryUpcomingEvents(ctx context.Context, limit int, deps GalleryDeps) ([]domainGallery.Event, error) {
	from := domainGallery.StartOfDayUTC(deps.Now())
	events, err := deps.GalleryStore.ListFrom(ctx, from, limit)
	if err != nil {
		return nil, galleryUnavailable("upcoming_gallery", err)
	}
	return events, nil
}

// QueryYearlyProgramEvents returns gallery events within the current local calendar year, ascending.
// PRE: limit <= 0 means no cap
func QueryYearlyProgramEvents(ctx context.Context, limit int, deps GalleryDeps) ([]domainGallery.Event, error) {
	from, to := domainGallery.YearBounds(deps.Now().In(time.Local))
	events, err := deps.GalleryStore.ListBetween(ctx, from, to, limit)
	if err != nil {
		return nil, galleryUnavailable("yearly_gallery", err)
	}
	return events, nil
}
