package program

import (
	"context"
	"errors"

	domain "motoclub/internal/domain/program"
)

// Store errors. Callers match them with errors.Is.
var (
	ErrProgramNotFound = errors.New("program not found")
	ErrEventNotFound   = errors.New("program event not found")
	ErrDuplicateYear   = errors.New("program year already exists")
)

// Store persists YearlyProgram documents.
// Every mutating method is atomic for a single program and returns the post-image.
type Store interface {
	FindByYear(ctx context.Context, year int) (domain.YearlyProgram, error)
	ListByYearDesc(ctx context.Context) ([]domain.YearlyProgram, error)
	Insert(ctx context.Context, p domain.YearlyProgram) (domain.YearlyProgram, error)
	PushEvent(ctx context.Context, year int, e domain.Event) (domain.YearlyProgram, error)
	ReplaceEvent(ctx context.Context, year int, eventID string, e domain.Event) (domain.YearlyProgram, error)
	PullEvent(ctx context.Context, year int, eventID string) (domain.YearlyProgram, error)
	SetActive(ctx context.Context, year int, active bool) (domain.YearlyProgram, error)
}
