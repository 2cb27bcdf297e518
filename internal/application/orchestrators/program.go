package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	storeProgram "motoclub/internal/adapters/storage/program"
	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/program"
	"motoclub/internal/logging"
)

// ProgramEventInput carries the fields of a program event as submitted by the admin form or API.
type ProgramEventInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	EndDate         string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Time            string `json:"time" validate:"max=50"`
	Location        string `json:"location" validate:"max=200"`
	Description     string `json:"description" validate:"max=5000"`
	Type            string `json:"type" validate:"omitempty,oneof=gita riunione workshop sociale altro"`
	Status          string `json:"status" validate:"omitempty,oneof=programmato annullato completato"`
	MaxParticipants *int   `json:"maxParticipants" validate:"omitempty,min=0"`
	Organizer       string `json:"organizer" validate:"max=64"`
	MemberName      string `json:"memberName" validate:"max=100"`
}

// toEvent converts validated input into a domain event with defaults applied.
func (in ProgramEventInput) toEvent() (program.Event, error) {
	e := program.Event{
		Title:           in.Title,
		Date:            in.Date,
		EndDate:         in.EndDate,
		Time:            in.Time,
		Location:        in.Location,
		Description:     in.Description,
		Type:            in.Type,
		Status:          in.Status,
		MaxParticipants: in.MaxParticipants,
		OrganizerID:     in.Organizer,
		MemberName:      in.MemberName,
	}
	e.ApplyDefaults()
	if err := e.Validate(); err != nil {
		return program.Event{}, apperr.Validation(err)
	}
	return e, nil
}

func notFoundProgram(year int) *apperr.Error {
	return apperr.New(apperr.NotFound, fmt.Sprintf("Programma per l'anno %d non trovato", year))
}

func storeFailure(op string, year int, err error) *apperr.Error {
	logging.Error().Err(err).Str("op", op).Int("year", year).Msg("program_store_failed")
	return apperr.Unavailable(err)
}

// --- Create ---

// ProgramStoreForCreate defines the store interface needed by CreateProgram.
type ProgramStoreForCreate interface {
	FindByYear(ctx context.Context, year int) (program.YearlyProgram, error)
	Insert(ctx context.Context, p program.YearlyProgram) (program.YearlyProgram, error)
}

// CreateProgramInput carries input for the orchestrator.
type CreateProgramInput struct {
	Year  int               `json:"year" validate:"required"`
	Event ProgramEventInput `json:"event"`
}

// CreateProgramDeps holds dependencies for CreateProgram.
type CreateProgramDeps struct {
	ProgramStore ProgramStoreForCreate
	Invalidator  Invalidator
	Now          func() time.Time
}

// ExecuteCreateProgram creates the program for a year with its first event.
// PRE: Year in [2024, 2100], Event valid
// POST: Program persisted with Events == [Event] and IsActive == true
// INVARIANT: At most one program per year; an existing year yields Conflict and is left untouched
func ExecuteCreateProgram(ctx context.Context, input CreateProgramInput, deps CreateProgramDeps) (program.YearlyProgram, error) {
	if err := checkInput(input); err != nil {
		return program.YearlyProgram{}, err
	}
	if err := program.ValidateYear(input.Year); err != nil {
		return program.YearlyProgram{}, apperr.Validation(err)
	}
	event, err := input.Event.toEvent()
	if err != nil {
		return program.YearlyProgram{}, err
	}

	conflict := apperr.New(apperr.Conflict, fmt.Sprintf("Esiste già un programma per l'anno %d", input.Year))

	_, err = deps.ProgramStore.FindByYear(ctx, input.Year)
	switch {
	case err == nil:
		return program.YearlyProgram{}, conflict
	case !errors.Is(err, storeProgram.ErrProgramNotFound):
		return program.YearlyProgram{}, storeFailure("create_program", input.Year, err)
	}

	created, err := deps.ProgramStore.Insert(ctx, program.YearlyProgram{
		Year:      input.Year,
		Events:    []program.Event{event},
		IsActive:  true,
		CreatedAt: deps.Now(),
	})
	if errors.Is(err, storeProgram.ErrDuplicateYear) {
		logging.Info().Int("year", input.Year).Msg("program_create_race_lost")
		return program.YearlyProgram{}, conflict
	}
	if err != nil {
		return program.YearlyProgram{}, storeFailure("create_program", input.Year, err)
	}

	invalidate(deps.Invalidator, ProgramViewPaths)
	logging.Info().Str("event", "program_created").Int("year", created.Year).Str("id", created.ID).Msg("program_event")
	return created, nil
}

// --- Add event ---

// ProgramStoreForAdd defines the store interface needed by AddProgramEvent.
type ProgramStoreForAdd interface {
	PushEvent(ctx context.Context, year int, e program.Event) (program.YearlyProgram, error)
}

// AddProgramEventInput carries input for the orchestrator.
type AddProgramEventInput struct {
	Year  int
	Event ProgramEventInput
}

// AddProgramEventDeps holds dependencies for AddProgramEvent.
type AddProgramEventDeps struct {
	ProgramStore ProgramStoreForAdd
	Invalidator  Invalidator
}

// ExecuteAddProgramEvent appends an event to an existing program.
// PRE: Event valid
// POST: Events grows by exactly one; prior events unchanged and in order
func ExecuteAddProgramEvent(ctx context.Context, input AddProgramEventInput, deps AddProgramEventDeps) (program.YearlyProgram, error) {
	if err := checkInput(input.Event); err != nil {
		return program.YearlyProgram{}, err
	}
	event, err := input.Event.toEvent()
	if err != nil {
		return program.YearlyProgram{}, err
	}

	updated, err := deps.ProgramStore.PushEvent(ctx, input.Year, event)
	if errors.Is(err, storeProgram.ErrProgramNotFound) {
		return program.YearlyProgram{}, notFoundProgram(input.Year)
	}
	if err != nil {
		return program.YearlyProgram{}, storeFailure("add_program_event", input.Year, err)
	}

	invalidate(deps.Invalidator, ProgramViewPaths)
	logging.Info().Str("event", "program_event_added").Int("year", input.Year).Int("events", len(updated.Events)).Msg("program_event")
	return updated, nil
}

// --- Update event ---

// ProgramEventPatch carries a partial update. Nil fields keep the stored value.
// Dates are checked after merging, so an empty EndDate clears it.
type ProgramEventPatch struct {
	Title                *string `json:"title" validate:"omitempty,max=200"`
	Date                 *string `json:"date"`
	EndDate              *string `json:"endDate"`
	Time                 *string `json:"time" validate:"omitempty,max=50"`
	Location             *string `json:"location" validate:"omitempty,max=200"`
	Description          *string `json:"description" validate:"omitempty,max=5000"`
	Type                 *string `json:"type" validate:"omitempty,oneof=gita riunione workshop sociale altro"`
	Status               *string `json:"status" validate:"omitempty,oneof=programmato annullato completato"`
	MaxParticipants      *int    `json:"maxParticipants" validate:"omitempty,min=0"`
	ClearMaxParticipants bool    `json:"clearMaxParticipants"`
	Organizer            *string `json:"organizer" validate:"omitempty,max=64"`
	MemberName           *string `json:"memberName" validate:"omitempty,max=100"`
}

func (p ProgramEventPatch) apply(e program.Event) program.Event {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.Title, p.Title)
	set(&e.Date, p.Date)
	set(&e.EndDate, p.EndDate)
	set(&e.Time, p.Time)
	set(&e.Location, p.Location)
	set(&e.Description, p.Description)
	set(&e.Type, p.Type)
	set(&e.Status, p.Status)
	set(&e.OrganizerID, p.Organizer)
	set(&e.MemberName, p.MemberName)
	switch {
	case p.MaxParticipants != nil:
		v := *p.MaxParticipants
		e.MaxParticipants = &v
	case p.ClearMaxParticipants:
		e.MaxParticipants = nil
	}
	return e
}

// ProgramStoreForUpdate defines the store interface needed by UpdateProgramEvent.
type ProgramStoreForUpdate interface {
	FindByYear(ctx context.Context, year int) (program.YearlyProgram, error)
	ReplaceEvent(ctx context.Context, year int, eventID string, e program.Event) (program.YearlyProgram, error)
}

// UpdateProgramEventInput carries input for the orchestrator.
type UpdateProgramEventInput struct {
	Year    int
	EventID string
	Patch   ProgramEventPatch
}

// UpdateProgramEventDeps holds dependencies for UpdateProgramEvent and ReplaceProgramEvent.
type UpdateProgramEventDeps struct {
	ProgramStore ProgramStoreForUpdate
	Invalidator  Invalidator
}

// ExecuteUpdateProgramEvent merges a patch into an event and replaces it.
// PRE: EventID non-empty
// POST: Only the event with EventID changes; its id is preserved; siblings are untouched
func ExecuteUpdateProgramEvent(ctx context.Context, input UpdateProgramEventInput, deps UpdateProgramEventDeps) (program.YearlyProgram, error) {
	if err := checkInput(input.Patch); err != nil {
		return program.YearlyProgram{}, err
	}

	current, err := deps.ProgramStore.FindByYear(ctx, input.Year)
	if errors.Is(err, storeProgram.ErrProgramNotFound) {
		return program.YearlyProgram{}, notFoundProgram(input.Year)
	}
	if err != nil {
		return program.YearlyProgram{}, storeFailure("update_program_event", input.Year, err)
	}
	existing, ok := current.FindEvent(input.EventID)
	if !ok {
		return program.YearlyProgram{}, apperr.New(apperr.NotFound, "Evento non trovato")
	}

	merged := input.Patch.apply(existing)
	merged.ApplyDefaults()
	if err := merged.Validate(); err != nil {
		return program.YearlyProgram{}, apperr.Validation(err)
	}
	return replaceEvent(ctx, input.Year, input.EventID, merged, deps)
}

// ReplaceProgramEventInput carries input for the orchestrator.
type ReplaceProgramEventInput struct {
	Year    int
	EventID string
	Event   ProgramEventInput
}

// ExecuteReplaceProgramEvent overwrites an event with the submitted fields.
// Fields left empty are cleared; only the id survives from the stored event.
// POST: Only the event with EventID changes; siblings are untouched
func ExecuteReplaceProgramEvent(ctx context.Context, input ReplaceProgramEventInput, deps UpdateProgramEventDeps) (program.YearlyProgram, error) {
	if err := checkInput(input.Event); err != nil {
		return program.YearlyProgram{}, err
	}
	event, err := input.Event.toEvent()
	if err != nil {
		return program.YearlyProgram{}, err
	}
	return replaceEvent(ctx, input.Year, input.EventID, event, deps)
}

func replaceEvent(ctx context.Context, year int, eventID string, e program.Event, deps UpdateProgramEventDeps) (program.YearlyProgram, error) {
	updated, err := deps.ProgramStore.ReplaceEvent(ctx, year, eventID, e)
	switch {
	case errors.Is(err, storeProgram.ErrProgramNotFound):
		return program.YearlyProgram{}, notFoundProgram(year)
	case errors.Is(err, storeProgram.ErrEventNotFound):
		return program.YearlyProgram{}, apperr.New(apperr.NotFound, "Evento non trovato")
	case err != nil:
		return program.YearlyProgram{}, storeFailure("update_program_event", year, err)
	}

	invalidate(deps.Invalidator, ProgramViewPaths)
	logging.Info().Str("event", "program_event_updated").Int("year", year).Str("event_id", eventID).Msg("program_event")
	return updated, nil
}

// --- Delete event ---

// ProgramStoreForDelete defines the store interface needed by DeleteProgramEvent.
type ProgramStoreForDelete interface {
	PullEvent(ctx context.Context, year int, eventID string) (program.YearlyProgram, error)
}

// DeleteProgramEventInput carries input for the orchestrator.
type DeleteProgramEventInput struct {
	Year    int
	EventID string
}

// DeleteProgramEventDeps holds dependencies for DeleteProgramEvent.
type DeleteProgramEventDeps struct {
	ProgramStore ProgramStoreForDelete
	Invalidator  Invalidator
}

// ExecuteDeleteProgramEvent removes one event from a program.
// POST: Returns true when exactly one event was removed; remaining order unchanged
// POST: Returns false without error when the program or the event is missing
func ExecuteDeleteProgramEvent(ctx context.Context, input DeleteProgramEventInput, deps DeleteProgramEventDeps) (bool, error) {
	_, err := deps.ProgramStore.PullEvent(ctx, input.Year, input.EventID)
	switch {
	case errors.Is(err, storeProgram.ErrProgramNotFound):
		logging.Info().Int("year", input.Year).Str("event_id", input.EventID).Str("reason", "program_not_found").Msg("program_event_delete_missed")
		return false, nil
	case errors.Is(err, storeProgram.ErrEventNotFound):
		logging.Info().Int("year", input.Year).Str("event_id", input.EventID).Str("reason", "event_not_found").Msg("program_event_delete_missed")
		return false, nil
	case err != nil:
		return false, storeFailure("delete_program_event", input.Year, err)
	}

	invalidate(deps.Invalidator, ProgramViewPaths)
	logging.Info().Str("event", "program_event_deleted").Int("year", input.Year).Str("event_id", input.EventID).Msg("program_event")
	return true, nil
}

// --- Toggle active ---

// ProgramStoreForToggle defines the store interface needed by ToggleProgramActive.
type ProgramStoreForToggle interface {
	SetActive(ctx context.Context, year int, active bool) (program.YearlyProgram, error)
}

// ToggleProgramActiveInput carries input for the orchestrator.
type ToggleProgramActiveInput struct {
	Year     int
	IsActive bool
}

// ToggleProgramActiveDeps holds dependencies for ToggleProgramActive.
type ToggleProgramActiveDeps struct {
	ProgramStore ProgramStoreForToggle
	Invalidator  Invalidator
}

// ExecuteToggleProgramActive sets a program's active flag.
// POST: Returns false without error when no program matches Year
// INVARIANT: Other programs' flags are not touched
func ExecuteToggleProgramActive(ctx context.Context, input ToggleProgramActiveInput, deps ToggleProgramActiveDeps) (bool, error) {
	_, err := deps.ProgramStore.SetActive(ctx, input.Year, input.IsActive)
	if errors.Is(err, storeProgram.ErrProgramNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeFailure("toggle_program_active", input.Year, err)
	}

	invalidate(deps.Invalidator, ProgramViewPaths)
	logging.Info().Str("event", "program_toggled").Int("year", input.Year).Bool("active", input.IsActive).Msg("program_event")
	return true, nil
}
