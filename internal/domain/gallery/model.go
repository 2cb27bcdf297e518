package gallery

import (
	"errors"
	"strings"
	"time"
)

// Max length constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxLocationLength    = 200
)

// Domain errors
var (
	ErrEmptyTitle      = errors.New("il titolo è obbligatorio")
	ErrEmptyName       = errors.New("il nome è obbligatorio")
	ErrMissingDate     = errors.New("la data è obbligatoria")
	ErrTitleTooLong    = errors.New("il titolo non può superare 200 caratteri")
	ErrDescTooLong     = errors.New("la descrizione non può superare 2000 caratteri")
	ErrLocationTooLong = errors.New("il luogo non può superare 200 caratteri")
	ErrPhotoURL        = errors.New("l'URL della foto è obbligatorio")
	ErrPhotoPublicID   = errors.New("l'identificativo pubblico della foto è obbligatorio")
)

// Event groups uploaded photos by occasion. It is unrelated to program events.
// INVARIANT: Photos belong to exactly one Event and keep append order.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Photos      []Photo   `json:"photos"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Photo is an image hosted by the external media provider.
type Photo struct {
	URL         string    `json:"url"`
	PublicID    string    `json:"publicId"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Validate checks the event's invariants.
// PRE: none
// POST: returns nil if valid, error describing the first violation otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if e.Date.IsZero() {
		return ErrMissingDate
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescTooLong
	}
	if len(e.Location) > MaxLocationLength {
		return ErrLocationTooLong
	}
	return nil
}

// Validate checks the photo's required fields.
func (p *Photo) Validate() error {
	if strings.TrimSpace(p.URL) == "" {
		return ErrPhotoURL
	}
	if strings.TrimSpace(p.PublicID) == "" {
		return ErrPhotoPublicID
	}
	return nil
}

// StartOfDayUTC truncates t to midnight UTC.
func StartOfDayUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// YearBounds returns the first and last instant of t's calendar year in t's location.
func YearBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	end := time.Date(t.Year(), time.December, 31, 23, 59, 59, int(time.Millisecond*999), t.Location())
	return start, end
}
