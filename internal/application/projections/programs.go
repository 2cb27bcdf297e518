package projections

import (
	"context"
	"errors"
	"fmt"
	"time"

	storeProgram "motoclub/internal/adapters/storage/program"
	"motoclub/internal/application/apperr"
	domainProgram "motoclub/internal/domain/program"
	"motoclub/internal/logging"
)

// HomeUpcomingLimit is the number of program events shown on the home page.
const HomeUpcomingLimit = 3

// EventView is a program event with its display strings resolved.
type EventView struct {
	domainProgram.Event
	DateLabel     string `json:"dateLabel"`
	TypeLabel     string `json:"typeLabel"`
	StatusLabel   string `json:"statusLabel"`
	OrganizerName string `json:"organizerName,omitempty"`
}

// ProgramView is a yearly program prepared for rendering.
type ProgramView struct {
	ID       string      `json:"id"`
	Year     int         `json:"year"`
	IsActive bool        `json:"isActive"`
	Events   []EventView `json:"events"` // insertion order
}

// ProgramDeps holds dependencies for the program queries.
type ProgramDeps struct {
	ProgramStore ProgramStore
	UserStore    UserStore // optional; resolves organizer names
	Now          func() time.Time
}

func unavailable(op string, err error) error {
	logging.Error().Err(err).Str("op", op).Msg("program_store_failed")
	return apperr.Unavailable(err)
}

// organizerNames looks up each distinct organizer once. Missing users resolve to "".
func organizerNames(ctx context.Context, users UserStore, events []domainProgram.Event) map[string]string {
	names := make(map[string]string)
	if users == nil {
		return names
	}
	for _, e := range events {
		if e.OrganizerID == "" {
			continue
		}
		if _, seen := names[e.OrganizerID]; seen {
			continue
		}
		u, err := users.GetByID(ctx, e.OrganizerID)
		if err != nil {
			names[e.OrganizerID] = ""
			continue
		}
		names[e.OrganizerID] = u.Name
	}
	return names
}

func toEventViews(events []domainProgram.Event, names map[string]string) []EventView {
	out := make([]EventView, 0, len(events))
	for _, e := range events {
		out = append(out, EventView{
			Event:         e,
			DateLabel:     domainProgram.FormatDateRange(e),
			TypeLabel:     domainProgram.TypeLabel(e.Type),
			StatusLabel:   domainProgram.StatusLabel(e.Status),
			OrganizerName: names[e.OrganizerID],
		})
	}
	return out
}

func toProgramView(ctx context.Context, p domainProgram.YearlyProgram, users UserStore) ProgramView {
	return ProgramView{
		ID:       p.ID,
		Year:     p.Year,
		IsActive: p.IsActive,
		Events:   toEventViews(p.Events, organizerNames(ctx, users, p.Events)),
	}
}

// ProgramViewOf converts a program returned by a write into its view, without organizer names.
func ProgramViewOf(p domainProgram.YearlyProgram) ProgramView {
	return toProgramView(context.Background(), p, nil)
}

// QueryListPrograms returns every program, newest year first.
// POST: Empty slice when none exist; store failures are StoreUnavailable
func QueryListPrograms(ctx context.Context, deps ProgramDeps) ([]ProgramView, error) {
	programs, err := deps.ProgramStore.ListByYearDesc(ctx)
	if err != nil {
		return nil, unavailable("list_programs", err)
	}
	out := make([]ProgramView, 0, len(programs))
	for _, p := range programs {
		out = append(out, toProgramView(ctx, p, deps.UserStore))
	}
	return out, nil
}

// QueryGetProgram returns the program for year.
// POST: found is false (with nil error) when no program exists
func QueryGetProgram(ctx context.Context, year int, deps ProgramDeps) (ProgramView, bool, error) {
	p, err := deps.ProgramStore.FindByYear(ctx, year)
	if errors.Is(err, storeProgram.ErrProgramNotFound) {
		return ProgramView{}, false, nil
	}
	if err != nil {
		return ProgramView{}, false, unavailable("get_program", err)
	}
	return toProgramView(ctx, p, deps.UserStore), true, nil
}

// QueryCurrentYearProgram returns the program for the current calendar year.
func QueryCurrentYearProgram(ctx context.Context, deps ProgramDeps) (ProgramView, bool, error) {
	return QueryGetProgram(ctx, deps.Now().In(time.Local).Year(), deps)
}

// MonthGroup is one non-empty month of a program.
type MonthGroup struct {
	Month  int         `json:"month"` // 1..12
	Name   string      `json:"name"`
	Events []EventView `json:"events"` // ascending by date
}

// ProgramMonthsResult carries the grouped program.
type ProgramMonthsResult struct {
	Year   int          `json:"year"`
	Months []MonthGroup `json:"months"`
}

// findPublished loads the program for year as the public sees it.
// POST: found is false when no program exists or it is not active
func findPublished(ctx context.Context, year int, deps ProgramDeps, op string) (domainProgram.YearlyProgram, bool, error) {
	p, err := deps.ProgramStore.FindByYear(ctx, year)
	if errors.Is(err, storeProgram.ErrProgramNotFound) {
		return domainProgram.YearlyProgram{}, false, nil
	}
	if err != nil {
		return domainProgram.YearlyProgram{}, false, unavailable(op, err)
	}
	if !p.IsActive {
		return domainProgram.YearlyProgram{}, false, nil
	}
	return p, true, nil
}

// QueryPublishedYears returns the years of active programs, newest first.
func QueryPublishedYears(ctx context.Context, deps ProgramDeps) ([]int, error) {
	programs, err := deps.ProgramStore.ListByYearDesc(ctx)
	if err != nil {
		return nil, unavailable("published_years", err)
	}
	years := make([]int, 0, len(programs))
	for _, p := range programs {
		if p.IsActive {
			years = append(years, p.Year)
		}
	}
	return years, nil
}

// QueryProgramMonths groups an active program's events by calendar month.
// POST: found is false when no program exists or it is inactive; empty months are omitted
// INVARIANT: Every event appears in exactly one group, chosen by the month of its local calendar date
func QueryProgramMonths(ctx context.Context, year int, deps ProgramDeps) (ProgramMonthsResult, bool, error) {
	p, found, err := findPublished(ctx, year, deps, "program_months")
	if err != nil || !found {
		return ProgramMonthsResult{Year: year}, false, err
	}

	names := organizerNames(ctx, deps.UserStore, p.Events)
	result := ProgramMonthsResult{Year: year}
	for i, bucket := range domainProgram.GroupByMonth(p.Events) {
		if len(bucket) == 0 {
			continue
		}
		result.Months = append(result.Months, MonthGroup{
			Month:  i + 1,
			Name:   domainProgram.MonthNames[i],
			Events: toEventViews(bucket, names),
		})
	}
	return result, true, nil
}

// QueryHomeUpcoming returns the next program events of the current year for the home page.
// POST: At most HomeUpcomingLimit events dated today or later, ascending; empty when no active program exists
func QueryHomeUpcoming(ctx context.Context, deps ProgramDeps) ([]EventView, error) {
	now := deps.Now()
	p, found, err := findPublished(ctx, now.In(time.Local).Year(), deps, "home_upcoming")
	if err != nil {
		return nil, err
	}
	if !found {
		return []EventView{}, nil
	}
	upcoming := domainProgram.UpcomingFrom(p.Events, domainProgram.Today(now), HomeUpcomingLimit)
	return toEventViews(upcoming, organizerNames(ctx, deps.UserStore, upcoming)), nil
}

// DocumentSection is one event block of the exported program.
type DocumentSection struct {
	Title       string
	DateLine    string
	Location    string
	Description string
	TypeLabel   string
	StatusLabel string
	Separator   bool // true on every section but the last
}

// ProgramDocument is the export-ready structure of a yearly program.
type ProgramDocument struct {
	Year     int
	Title    string
	Filename string
	Sections []DocumentSection
}

// QueryProgramDocument builds the printable program for year.
// POST: found is false when no program exists or it is inactive
// POST: Sections ordered ascending by date
func QueryProgramDocument(ctx context.Context, year int, deps ProgramDeps) (ProgramDocument, bool, error) {
	p, found, err := findPublished(ctx, year, deps, "program_document")
	if err != nil || !found {
		return ProgramDocument{}, false, err
	}
	return BuildProgramDocument(p), true, nil
}

// BuildProgramDocument converts a program into its export structure.
func BuildProgramDocument(p domainProgram.YearlyProgram) ProgramDocument {
	sorted := domainProgram.SortedByDate(p.Events)
	doc := ProgramDocument{
		Year:     p.Year,
		Title:    fmt.Sprintf("Programma Moto Club %d", p.Year),
		Filename: fmt.Sprintf("moto-club-program-%d.pdf", p.Year),
		Sections: make([]DocumentSection, 0, len(sorted)),
	}
	for i, e := range sorted {
		doc.Sections = append(doc.Sections, DocumentSection{
			Title:       e.Title,
			DateLine:    "Data: " + domainProgram.FormatDateRange(e),
			Location:    e.Location,
			Description: e.Description,
			TypeLabel:   domainProgram.TypeLabel(e.Type),
			StatusLabel: domainProgram.StatusLabel(e.Status),
			Separator:   i < len(sorted)-1,
		})
	}
	return doc
}
