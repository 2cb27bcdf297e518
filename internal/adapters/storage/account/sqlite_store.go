package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"motoclub/internal/adapters/storage"
	domain "motoclub/internal/domain/account"
)

const userCols = "id, name, email, password_hash, role, created_at, failed_logins, locked_until"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new user store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a User by its ID.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM user_account WHERE id = ?", id)
	return scanUser(row.Scan)
}

// GetByEmail retrieves a User by email (case-insensitive).
// PRE: email is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userCols+" FROM user_account WHERE email = ?", normalizeEmail(email))
	return scanUser(row.Scan)
}

// Save persists a User to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); ErrDuplicateEmail if another user owns the email
func (s *SQLiteStore) Save(ctx context.Context, entity domain.User) error {
	fields := []string{"id", "name", "email", "password_hash", "role", "created_at", "failed_logins", "locked_until"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?"}
	updates := []string{
		"name=excluded.name",
		"email=excluded.email",
		"password_hash=excluded.password_hash",
		"role=excluded.role",
		"failed_logins=excluded.failed_logins",
		"locked_until=excluded.locked_until",
	}

	query := fmt.Sprintf(
		"INSERT INTO user_account (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)

	var lockedUntil any
	if !entity.LockedUntil.IsZero() {
		lockedUntil = entity.LockedUntil.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.Name,
		normalizeEmail(entity.Email),
		entity.PasswordHash,
		entity.Role,
		entity.CreatedAt.UTC().Format(time.RFC3339Nano),
		entity.FailedLogins,
		lockedUntil,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

// UpdateRole changes a user's role in place.
// POST: Returns the updated user or ErrNotFound
func (s *SQLiteStore) UpdateRole(ctx context.Context, id, role string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "UPDATE user_account SET role = ? WHERE id = ? RETURNING "+userCols, role, id)
	return scanUser(row.Scan)
}

// Delete removes a User from the database.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM user_account WHERE id = ?", id)
	return err
}

// List retrieves Users based on the filter, newest first.
// PRE: filter.Limit <= 0 means no limit
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.User, error) {
	var queryBuilder strings.Builder
	var args []any

	queryBuilder.WriteString("SELECT " + userCols + " FROM user_account")

	if filter.Role != "" {
		queryBuilder.WriteString(" WHERE role = ?")
		args = append(args, filter.Role)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.User
	for rows.Next() {
		entity, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// CountMatching returns the number of users List would return without Limit and Offset.
func (s *SQLiteStore) CountMatching(ctx context.Context, filter ListFilter) (int, error) {
	query := "SELECT COUNT(*) FROM user_account"
	var args []any
	if filter.Role != "" {
		query += " WHERE role = ?"
		args = append(args, filter.Role)
	}
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// Count returns the total number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_account").Scan(&count)
	return count, err
}

// scanUser extracts a User from a row scanner function.
func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var entity domain.User
	var createdAt string
	var lockedUntil sql.NullString
	err := scan(
		&entity.ID,
		&entity.Name,
		&entity.Email,
		&entity.PasswordHash,
		&entity.Role,
		&createdAt,
		&entity.FailedLogins,
		&lockedUntil,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	entity.CreatedAt, _ = parseTime(createdAt)
	if lockedUntil.Valid && lockedUntil.String != "" {
		entity.LockedUntil, _ = parseTime(lockedUntil.String)
	}
	return entity, nil
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		t, err := time.Parse(f, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
