package orchestrators

import (
	"context"
	"errors"
	"time"

	storeGallery "motoclub/internal/adapters/storage/gallery"
	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/gallery"
	"motoclub/internal/logging"
)

// GalleryStore defines the store interface needed by the gallery orchestrators.
type GalleryStore interface {
	Create(ctx context.Context, e gallery.Event) error
	AppendPhoto(ctx context.Context, id string, p gallery.Photo) (gallery.Event, error)
	Delete(ctx context.Context, id string) error
}

// CreateGalleryEventInput carries input for the orchestrator.
type CreateGalleryEventInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Name        string `json:"name" validate:"required,max=200"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"max=50"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// GalleryDeps holds dependencies for the gallery orchestrators.
type GalleryDeps struct {
	GalleryStore GalleryStore
	Invalidator  Invalidator
	GenerateID   func() string
	Now          func() time.Time
}

// parseGalleryDate accepts a full RFC 3339 timestamp or a plain yyyy-MM-dd (read as UTC midnight).
func parseGalleryDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, gallery.ErrMissingDate
	}
	return t, nil
}

// ExecuteCreateGalleryEvent creates a gallery event with no photos.
// PRE: Title, Name and Date present
// POST: Event persisted with an empty photo list
func ExecuteCreateGalleryEvent(ctx context.Context, input CreateGalleryEventInput, deps GalleryDeps) (gallery.Event, error) {
	if err := checkInput(input); err != nil {
		return gallery.Event{}, err
	}
	date, err := parseGalleryDate(input.Date)
	if err != nil {
		return gallery.Event{}, apperr.Validation(err)
	}

	e := gallery.Event{
		ID:          deps.GenerateID(),
		Title:       input.Title,
		Name:        input.Name,
		Date:        date,
		Time:        input.Time,
		Location:    input.Location,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Photos:      []gallery.Photo{},
		CreatedAt:   deps.Now(),
	}
	if err := e.Validate(); err != nil {
		return gallery.Event{}, apperr.Validation(err)
	}

	if err := deps.GalleryStore.Create(ctx, e); err != nil {
		logging.Error().Err(err).Str("op", "create_gallery_event").Msg("gallery_store_failed")
		return gallery.Event{}, apperr.Unavailable(err)
	}

	invalidate(deps.Invalidator, GalleryViewPaths)
	logging.Info().Str("event", "gallery_event_created").Str("id", e.ID).Msg("gallery_event")
	return e, nil
}

// AddPhotoInput carries input for the orchestrator.
type AddPhotoInput struct {
	EventID     string `json:"-" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	PublicID    string `json:"publicId" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

// ExecuteAddPhoto appends a photo to a gallery event.
// POST: Photo is last in the event's list; NotFound if the event is missing
func ExecuteAddPhoto(ctx context.Context, input AddPhotoInput, deps GalleryDeps) (gallery.Event, error) {
	if err := checkInput(input); err != nil {
		return gallery.Event{}, err
	}
	photo := gallery.Photo{
		URL:         input.URL,
		PublicID:    input.PublicID,
		Description: input.Description,
		UploadedAt:  deps.Now(),
	}
	if err := photo.Validate(); err != nil {
		return gallery.Event{}, apperr.Validation(err)
	}

	e, err := deps.GalleryStore.AppendPhoto(ctx, input.EventID, photo)
	if errors.Is(err, storeGallery.ErrNotFound) {
		return gallery.Event{}, apperr.New(apperr.NotFound, "Evento non trovato")
	}
	if err != nil {
		logging.Error().Err(err).Str("op", "add_photo").Str("event_id", input.EventID).Msg("gallery_store_failed")
		return gallery.Event{}, apperr.Unavailable(err)
	}

	invalidate(deps.Invalidator, GalleryViewPaths)
	logging.Info().Str("event", "photo_added").Str("id", e.ID).Int("photos", len(e.Photos)).Msg("gallery_event")
	return e, nil
}

// ExecuteDeleteGalleryEvent removes a gallery event and its photo list.
// POST: Returns false without error when no event matches id
func ExecuteDeleteGalleryEvent(ctx context.Context, id string, deps GalleryDeps) (bool, error) {
	err := deps.GalleryStore.Delete(ctx, id)
	if errors.Is(err, storeGallery.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		logging.Error().Err(err).Str("op", "delete_gallery_event").Str("event_id", id).Msg("gallery_store_failed")
		return false, apperr.Unavailable(err)
	}

	invalidate(deps.Invalidator, GalleryViewPaths)
	logging.Info().Str("event", "gallery_event_deleted").Str("id", id).Msg("gallery_event")
	return true, nil
}
