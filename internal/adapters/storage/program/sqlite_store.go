package program

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"motoclub/internal/adapters/storage"
	domain "motoclub/internal/domain/program"
)

const timeLayout = time.RFC3339Nano

const returningCols = "id, year, events, is_active, created_at, updated_at"

// SQLiteStore implements Store using one row per year with the events held as a JSON array.
type SQLiteStore struct {
	db    storage.SQLDB
	newID func() string
	now   func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
// PRE: db is a valid, open database connection with migrations applied
// POST: store is ready for use; event ids are random UUIDs
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, newID: uuid.NewString, now: time.Now}
}

// FindByYear retrieves the program for a year.
// POST: returns ErrProgramNotFound when no row matches
func (s *SQLiteStore) FindByYear(ctx context.Context, year int) (domain.YearlyProgram, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+returningCols+" FROM yearly_program WHERE year = ?", year)
	return scanProgram(row.Scan)
}

// ListByYearDesc returns every program, newest year first.
func (s *SQLiteStore) ListByYearDesc(ctx context.Context) ([]domain.YearlyProgram, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+returningCols+" FROM yearly_program ORDER BY year DESC")
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var out []domain.YearlyProgram
	for rows.Next() {
		p, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Insert persists a new program. Events without an id are assigned one.
// PRE: p.Year is valid, events validated
// POST: returns ErrDuplicateYear if a program for p.Year already exists
func (s *SQLiteStore) Insert(ctx context.Context, p domain.YearlyProgram) (domain.YearlyProgram, error) {
	if p.ID == "" {
		p.ID = s.newID()
	}
	events := make([]domain.Event, len(p.Events))
	for i, e := range p.Events {
		if e.ID == "" {
			e.ID = s.newID()
		}
		events[i] = e
	}
	doc, err := json.Marshal(events)
	if err != nil {
		return domain.YearlyProgram{}, fmt.Errorf("encode events: %w", err)
	}

	now := s.now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO yearly_program (id, year, events, is_active, created_at, updated_at)
		 VALUES (?, ?, json(?), ?, ?, ?)
		 RETURNING `+returningCols,
		p.ID, p.Year, string(doc), p.IsActive, p.CreatedAt.Format(timeLayout), now.Format(timeLayout),
	)
	out, err := scanProgram(row.Scan)
	if isUniqueViolation(err) {
		return domain.YearlyProgram{}, ErrDuplicateYear
	}
	return out, err
}

// PushEvent appends an event to the program's list, assigning its id.
// POST: returns ErrProgramNotFound when no program exists for year
func (s *SQLiteStore) PushEvent(ctx context.Context, year int, e domain.Event) (domain.YearlyProgram, error) {
	e.ID = s.newID()
	doc, err := json.Marshal(e)
	if err != nil {
		return domain.YearlyProgram{}, fmt.Errorf("encode event: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE yearly_program
		 SET events = json_insert(events, '$[#]', json(?)), updated_at = ?
		 WHERE year = ?
		 RETURNING `+returningCols,
		string(doc), s.stamp(), year,
	)
	return scanProgram(row.Scan)
}

// ReplaceEvent overwrites the event with eventID, keeping its id and position.
// POST: ErrProgramNotFound or ErrEventNotFound when the target is missing
func (s *SQLiteStore) ReplaceEvent(ctx context.Context, year int, eventID string, e domain.Event) (domain.YearlyProgram, error) {
	e.ID = eventID
	doc, err := json.Marshal(e)
	if err != nil {
		return domain.YearlyProgram{}, fmt.Errorf("encode event: %w", err)
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE yearly_program
		 SET events = (
		   SELECT json_group_array(
		     CASE WHEN json_extract(value, '$.id') = ? THEN json(?) ELSE json(value) END
		     ORDER BY key)
		   FROM json_each(yearly_program.events)),
		   updated_at = ?
		 WHERE year = ?
		   AND EXISTS (SELECT 1 FROM json_each(yearly_program.events) WHERE json_extract(value, '$.id') = ?)
		 RETURNING `+returningCols,
		eventID, string(doc), s.stamp(), year, eventID,
	)
	out, err := scanProgram(row.Scan)
	if errors.Is(err, ErrProgramNotFound) {
		return domain.YearlyProgram{}, s.missing(ctx, year)
	}
	return out, err
}

// PullEvent removes the event with eventID from the program.
// POST: ErrProgramNotFound or ErrEventNotFound when the target is missing
func (s *SQLiteStore) PullEvent(ctx context.Context, year int, eventID string) (domain.YearlyProgram, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE yearly_program
		 SET events = (
		   SELECT json_group_array(json(value) ORDER BY key)
		   FROM json_each(yearly_program.events)
		   WHERE json_extract(value, '$.id') IS NOT ?),
		   updated_at = ?
		 WHERE year = ?
		   AND EXISTS (SELECT 1 FROM json_each(yearly_program.events) WHERE json_extract(value, '$.id') = ?)
		 RETURNING `+returningCols,
		eventID, s.stamp(), year, eventID,
	)
	out, err := scanProgram(row.Scan)
	if errors.Is(err, ErrProgramNotFound) {
		return domain.YearlyProgram{}, s.missing(ctx, year)
	}
	return out, err
}

// SetActive sets the program's active flag.
// POST: returns ErrProgramNotFound when no program exists for year
func (s *SQLiteStore) SetActive(ctx context.Context, year int, active bool) (domain.YearlyProgram, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE yearly_program SET is_active = ?, updated_at = ? WHERE year = ? RETURNING `+returningCols,
		active, s.stamp(), year,
	)
	return scanProgram(row.Scan)
}

// missing decides which target of a conditional update was absent.
func (s *SQLiteStore) missing(ctx context.Context, year int) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM yearly_program WHERE year = ?", year).Scan(&n); err != nil {
		return fmt.Errorf("check program: %w", err)
	}
	if n == 0 {
		return ErrProgramNotFound
	}
	return ErrEventNotFound
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func scanProgram(scan func(dest ...any) error) (domain.YearlyProgram, error) {
	var p domain.YearlyProgram
	var events, createdAt, updatedAt string
	err := scan(&p.ID, &p.Year, &events, &p.IsActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.YearlyProgram{}, ErrProgramNotFound
	}
	if err != nil {
		return domain.YearlyProgram{}, err
	}
	if err := json.Unmarshal([]byte(events), &p.Events); err != nil {
		return domain.YearlyProgram{}, fmt.Errorf("decode events of %d: %w", p.Year, err)
	}
	p.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	p.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return p, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
