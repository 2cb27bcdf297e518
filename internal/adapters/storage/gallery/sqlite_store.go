package gallery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"motoclub/internal/adapters/storage"
	domain "motoclub/internal/domain/gallery"
)

// Dates are stored as fixed-width UTC text so string order matches time order.
const timeLayout = "2006-01-02T15:04:05.000Z"

const selectCols = "id, title, name, date, time, location, description, image_url, photos, created_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is a valid, open database connection with migrations applied
// POST: store is ready for use
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a gallery event.
// PRE: e is a valid Event (Validate() returns nil), e.ID is set
// POST: event is persisted
func (s *SQLiteStore) Create(ctx context.Context, e domain.Event) error {
	photos := e.Photos
	if photos == nil {
		photos = []domain.Photo{}
	}
	doc, err := json.Marshal(photos)
	if err != nil {
		return fmt.Errorf("encode photos: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO gallery_event (`+selectCols+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, json(?), ?)`,
		e.ID, e.Title, e.Name, formatTime(e.Date), e.Time, e.Location, e.Description,
		e.ImageURL, string(doc), formatTime(e.CreatedAt),
	)
	return err
}

// GetByID retrieves a gallery event by ID.
// PRE: id is non-empty
// POST: returns the event or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectCols+" FROM gallery_event WHERE id = ?", id)
	return scanEvent(row.Scan)
}

// AppendPhoto adds a photo to the end of the event's photo list in one statement.
// POST: returns the updated event or ErrNotFound
func (s *SQLiteStore) AppendPhoto(ctx context.Context, id string, p domain.Photo) (domain.Event, error) {
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return domain.Event{}, fmt.Errorf("encode photo: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE gallery_event SET photos = json_insert(photos, '$[#]', json(?))
		 WHERE id = ? RETURNING `+selectCols,
		string(doc), id,
	)
	return scanEvent(row.Scan)
}

// Delete removes a gallery event by ID.
// POST: returns ErrNotFound if nothing was removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gallery_event WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByDateDesc returns every event, newest first.
func (s *SQLiteStore) ListByDateDesc(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, "ORDER BY date DESC", 0)
}

// ListFrom returns events dated on or after from, ascending.
// PRE: limit <= 0 means no cap
func (s *SQLiteStore) ListFrom(ctx context.Context, from time.Time, limit int) ([]domain.Event, error) {
	return s.list(ctx, "WHERE date >= ? ORDER BY date ASC", limit, formatTime(from))
}

// ListBetween returns events dated within [from, to], ascending.
// PRE: limit <= 0 means no cap
func (s *SQLiteStore) ListBetween(ctx context.Context, from, to time.Time, limit int) ([]domain.Event, error) {
	return s.list(ctx, "WHERE date >= ? AND date <= ? ORDER BY date ASC", limit, formatTime(from), formatTime(to))
}

func (s *SQLiteStore) list(ctx context.Context, clause string, limit int, args ...any) ([]domain.Event, error) {
	var q strings.Builder
	q.WriteString("SELECT " + selectCols + " FROM gallery_event ")
	q.WriteString(clause)
	if limit > 0 {
		q.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var date, photos, createdAt string
	err := scan(&e.ID, &e.Title, &e.Name, &date, &e.Time, &e.Location, &e.Description,
		&e.ImageURL, &photos, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, ErrNotFound
	}
	if err != nil {
		return domain.Event{}, err
	}
	if err := json.Unmarshal([]byte(photos), &e.Photos); err != nil {
		return domain.Event{}, fmt.Errorf("decode photos of %s: %w", e.ID, err)
	}
	e.Date, _ = time.Parse(timeLayout, date)
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return e, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
