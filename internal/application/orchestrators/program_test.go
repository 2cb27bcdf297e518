package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	storeProgram "motoclub/internal/adapters/storage/program"
	"motoclub/internal/application/apperr"
	"motoclub/internal/domain/program"
)

// mockProgramStore is an in-memory program store keyed by year.
type mockProgramStore struct {
	programs map[int]program.YearlyProgram
	nextID   int
	err      error // returned by every call when set
	dupOnIns bool  // simulate a lost create race
}

func newMockProgramStore() *mockProgramStore {
	return &mockProgramStore{programs: make(map[int]program.YearlyProgram)}
}

func (m *mockProgramStore) id() string {
	m.nextID++
	return fmt.Sprintf("ev-%d", m.nextID)
}

func (m *mockProgramStore) FindByYear(_ context.Context, year int) (program.YearlyProgram, error) {
	if m.err != nil {
		return program.YearlyProgram{}, m.err
	}
	p, ok := m.programs[year]
	if !ok {
		return program.YearlyProgram{}, storeProgram.ErrProgramNotFound
	}
	return p, nil
}

func (m *mockProgramStore) Insert(_ context.Context, p program.YearlyProgram) (program.YearlyProgram, error) {
	if m.err != nil {
		return program.YearlyProgram{}, m.err
	}
	if _, ok := m.programs[p.Year]; ok || m.dupOnIns {
		return program.YearlyProgram{}, storeProgram.ErrDuplicateYear
	}
	p.ID = fmt.Sprintf("prog-%d", p.Year)
	for i := range p.Events {
		p.Events[i].ID = m.id()
	}
	m.programs[p.Year] = p
	return p, nil
}

func (m *mockProgramStore) PushEvent(_ context.Context, year int, e program.Event) (program.YearlyProgram, error) {
	if m.err != nil {
		return program.YearlyProgram{}, m.err
	}
	p, ok := m.programs[year]
	if !ok {
		return program.YearlyProgram{}, storeProgram.ErrProgramNotFound
	}
	e.ID = m.id()
	p.Events = append(append([]program.Event{}, p.Events...), e)
	m.programs[year] = p
	return p, nil
}

func (m *mockProgramStore) ReplaceEvent(_ context.Context, year int, eventID string, e program.Event) (program.YearlyProgram, error) {
	if m.err != nil {
		return program.YearlyProgram{}, m.err
	}
	p, ok := m.programs[year]
	if !ok {
		return program.YearlyProgram{}, storeProgram.ErrProgramNotFound
	}
	events := append([]program.Event{}, p.Events...)
	for i := range events {
		if events[i].ID == eventID {
			e.ID = eventID
			events[i] = e
			p.Events = events
			m.programs[year] = p
			return p, nil
		}
	}
	return program.YearlyProgram{}, storeProgram.ErrEventNotFound
}

func (m *mockProgramStore) PullEvent(_ context.Context, year int, eventID string) (program.YearlyProgram, error) {
	if m.err != nil {
		return program.YearlyProgram{}, m.err
	}
	p, ok := m.programs[year]
	if !ok {
		return program.YearlyProgram{}, storeProgram.ErrProgramNotFound
	}
	var kept []program.Event
	for _, e := range p.Events {
		if e.ID != eventID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(p.Events) {
		return program.YearlyProgram{}, storeProgram.ErrEventNotFound
	}
	p.Events = kept
	m.programs[year] = p
	return p, nil
}

func (m *mockProgramStore) SetActive(_ context.Context, year int, active bool) (program.YearlyProgram, error) {
	if m.err != nil {
		return program.YearlyProgram{}, m.err
	}
	p, ok := m.programs[year]
	if !ok {
		return program.YearlyProgram{}, storeProgram.ErrProgramNotFound
	}
	p.IsActive = active
	m.programs[year] = p
	return p, nil
}

var fixedTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func springRide() ProgramEventInput {
	return ProgramEventInput{Title: "Giro di Primavera", Date: "2025-03-01", Type: program.TypeRide, Status: program.StatusScheduled}
}

func createDeps(store *mockProgramStore, inv Invalidator) CreateProgramDeps {
	return CreateProgramDeps{ProgramStore: store, Invalidator: inv, Now: fixedNow}
}

// --- ExecuteCreateProgram ---

func TestExecuteCreateProgram_Valid(t *testing.T) {
	store := newMockProgramStore()
	inv := &recordingInvalidator{}

	p, err := ExecuteCreateProgram(context.Background(), CreateProgramInput{Year: 2025, Event: springRide()}, createDeps(store, inv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsActive {
		t.Error("expected new program to be active")
	}
	if len(p.Events) != 1 || p.Events[0].Title != "Giro di Primavera" || p.Events[0].ID == "" {
		t.Errorf("events = %+v", p.Events)
	}
	if p.Events[0].Date != "2025-03-01" {
		t.Errorf("date stored as %q, want verbatim 2025-03-01", p.Events[0].Date)
	}
	if !inv.invalidated("/admin/program") || !inv.invalidated("/program") {
		t.Errorf("invalidations = %v", inv.calls)
	}
}

func TestExecuteCreateProgram_DefaultsTypeAndStatus(t *testing.T) {
	store := newMockProgramStore()
	p, err := ExecuteCreateProgram(context.Background(), CreateProgramInput{
		Year:  2026,
		Event: ProgramEventInput{Title: "Cena sociale", Date: "2026-01-20"},
	}, createDeps(store, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Events[0].Type != program.TypeRide || p.Events[0].Status != program.StatusScheduled {
		t.Errorf("defaults = %s/%s", p.Events[0].Type, p.Events[0].Status)
	}
}

func TestExecuteCreateProgram_ConflictLeavesExisting(t *testing.T) {
	store := newMockProgramStore()
	ctx := context.Background()
	if _, err := ExecuteCreateProgram(ctx, CreateProgramInput{Year: 2025, Event: springRide()}, createDeps(store, nil)); err != nil {
		t.Fatalf("first create: %v", err)
	}

	inv := &recordingInvalidator{}
	other := ProgramEventInput{Title: "Altro", Date: "2025-05-01"}
	_, err := ExecuteCreateProgram(ctx, CreateProgramInput{Year: 2025, Event: other}, createDeps(store, inv))
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
	if got := apperr.MessageOf(err); got != "Esiste già un programma per l'anno 2025" {
		t.Errorf("message = %q", got)
	}
	if n := len(store.programs[2025].Events); n != 1 {
		t.Errorf("existing program has %d events, want 1", n)
	}
	if len(inv.calls) != 0 {
		t.Error("failed create must not invalidate views")
	}
}

func TestExecuteCreateProgram_LostRaceIsConflict(t *testing.T) {
	store := newMockProgramStore()
	store.dupOnIns = true
	_, err := ExecuteCreateProgram(context.Background(), CreateProgramInput{Year: 2025, Event: springRide()}, createDeps(store, nil))
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want Conflict", err)
	}
}

func TestExecuteCreateProgram_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateProgramInput
	}{
		{"year too small", CreateProgramInput{Year: 2023, Event: springRide()}},
		{"year too large", CreateProgramInput{Year: 2101, Event: springRide()}},
		{"missing year", CreateProgramInput{Event: springRide()}},
		{"blank title", CreateProgramInput{Year: 2025, Event: ProgramEventInput{Title: "  ", Date: "2025-03-01"}}},
		{"bad date", CreateProgramInput{Year: 2025, Event: ProgramEventInput{Title: "X", Date: "2025-02-30"}}},
		{"unknown type", CreateProgramInput{Year: 2025, Event: ProgramEventInput{Title: "X", Date: "2025-03-01", Type: "gara"}}},
		{"negative capacity", CreateProgramInput{Year: 2025, Event: ProgramEventInput{Title: "X", Date: "2025-03-01", MaxParticipants: func() *int { n := -3; return &n }()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockProgramStore()
			_, err := ExecuteCreateProgram(context.Background(), tt.input, createDeps(store, nil))
			if !apperr.IsKind(err, apperr.ValidationFailure) {
				t.Fatalf("err = %v, want ValidationFailure", err)
			}
			if len(store.programs) != 0 {
				t.Error("invalid input reached the store")
			}
		})
	}
}

func TestExecuteCreateProgram_StoreDown(t *testing.T) {
	store := newMockProgramStore()
	store.err = errors.New("database is locked")
	_, err := ExecuteCreateProgram(context.Background(), CreateProgramInput{Year: 2025, Event: springRide()}, createDeps(store, nil))
	if !apperr.IsKind(err, apperr.StoreUnavailable) {
		t.Fatalf("err = %v, want StoreUnavailable", err)
	}
}

// --- ExecuteAddProgramEvent ---

func seedProgram(t *testing.T, store *mockProgramStore, year int, events ...ProgramEventInput) program.YearlyProgram {
	t.Helper()
	ctx := context.Background()
	p, err := ExecuteCreateProgram(ctx, CreateProgramInput{Year: year, Event: events[0]}, createDeps(store, nil))
	if err != nil {
		t.Fatalf("seed create: %v", err)
	}
	for _, e := range events[1:] {
		p, err = ExecuteAddProgramEvent(ctx, AddProgramEventInput{Year: year, Event: e}, AddProgramEventDeps{ProgramStore: store})
		if err != nil {
			t.Fatalf("seed add: %v", err)
		}
	}
	return p
}

func TestExecuteAddProgramEvent_Appends(t *testing.T) {
	store := newMockProgramStore()
	before := seedProgram(t, store, 2025, springRide())
	inv := &recordingInvalidator{}

	after, err := ExecuteAddProgramEvent(context.Background(), AddProgramEventInput{
		Year:  2025,
		Event: ProgramEventInput{Title: "Assemblea", Date: "2025-06-10", Type: program.TypeMeeting},
	}, AddProgramEventDeps{ProgramStore: store, Invalidator: inv})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.Events) != len(before.Events)+1 {
		t.Fatalf("events = %d, want %d", len(after.Events), len(before.Events)+1)
	}
	if after.Events[0] != before.Events[0] {
		t.Errorf("prior event changed: %+v", after.Events[0])
	}
	if after.Events[1].Title != "Assemblea" {
		t.Errorf("appended = %+v", after.Events[1])
	}
	if !inv.invalidated("/program") {
		t.Error("expected /program invalidation")
	}
}

func TestExecuteAddProgramEvent_EndBeforeStartRejected(t *testing.T) {
	store := newMockProgramStore()
	seedProgram(t, store, 2025, springRide())

	_, err := ExecuteAddProgramEvent(context.Background(), AddProgramEventInput{
		Year: 2025,
		Event: ProgramEventInput{
			Title: "Assemblea", Date: "2025-06-10", EndDate: "2025-06-09",
			Type: program.TypeMeeting, Status: program.StatusScheduled,
		},
	}, AddProgramEventDeps{ProgramStore: store})
	if !apperr.IsKind(err, apperr.ValidationFailure) {
		t.Fatalf("err = %v, want ValidationFailure", err)
	}
	if n := len(store.programs[2025].Events); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}
}

func TestExecuteAddProgramEvent_MissingProgram(t *testing.T) {
	_, err := ExecuteAddProgramEvent(context.Background(), AddProgramEventInput{Year: 2030, Event: springRide()},
		AddProgramEventDeps{ProgramStore: newMockProgramStore()})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

// --- ExecuteUpdateProgramEvent ---

func TestExecuteUpdateProgramEvent_MergesAndKeepsSiblings(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025, springRide(), ProgramEventInput{Title: "Officina", Date: "2025-04-01", Type: program.TypeWorkshop})
	target := p.Events[0]
	sibling := p.Events[1]

	updated, err := ExecuteUpdateProgramEvent(context.Background(), UpdateProgramEventInput{
		Year:    2025,
		EventID: target.ID,
		Patch:   ProgramEventPatch{Status: strPtr(program.StatusCancelled), Location: strPtr("Passo dello Stelvio")},
	}, UpdateProgramEventDeps{ProgramStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := updated.Events[0]
	if got.ID != target.ID || got.Title != target.Title || got.Date != target.Date {
		t.Errorf("unpatched fields changed: %+v", got)
	}
	if got.Status != program.StatusCancelled || got.Location != "Passo dello Stelvio" {
		t.Errorf("patch not applied: %+v", got)
	}
	if updated.Events[1] != sibling {
		t.Errorf("sibling changed: %+v", updated.Events[1])
	}
}

func TestExecuteUpdateProgramEvent_MergedRangeValidated(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025, ProgramEventInput{Title: "Raduno", Date: "2025-07-10", EndDate: "2025-07-12"})

	_, err := ExecuteUpdateProgramEvent(context.Background(), UpdateProgramEventInput{
		Year: 2025, EventID: p.Events[0].ID, Patch: ProgramEventPatch{Date: strPtr("2025-07-15")},
	}, UpdateProgramEventDeps{ProgramStore: store})
	if !apperr.IsKind(err, apperr.ValidationFailure) {
		t.Fatalf("err = %v, want ValidationFailure", err)
	}
}

func TestExecuteUpdateProgramEvent_NotFound(t *testing.T) {
	store := newMockProgramStore()
	seedProgram(t, store, 2025, springRide())
	ctx := context.Background()
	deps := UpdateProgramEventDeps{ProgramStore: store}

	for _, in := range []UpdateProgramEventInput{
		{Year: 2025, EventID: "missing", Patch: ProgramEventPatch{Title: strPtr("X")}},
		{Year: 2031, EventID: "ev-1", Patch: ProgramEventPatch{Title: strPtr("X")}},
	} {
		if _, err := ExecuteUpdateProgramEvent(ctx, in, deps); !apperr.IsKind(err, apperr.NotFound) {
			t.Errorf("%+v: err = %v, want NotFound", in, err)
		}
	}
}

func TestExecuteUpdateProgramEvent_EmptyEndDateClears(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025, ProgramEventInput{Title: "Raduno", Date: "2025-07-10", EndDate: "2025-07-12"})

	updated, err := ExecuteUpdateProgramEvent(context.Background(), UpdateProgramEventInput{
		Year: 2025, EventID: p.Events[0].ID, Patch: ProgramEventPatch{EndDate: strPtr("")},
	}, UpdateProgramEventDeps{ProgramStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := updated.Events[0].EndDate; got != "" {
		t.Errorf("EndDate = %q, want cleared", got)
	}
}

func TestExecuteUpdateProgramEvent_Capacity(t *testing.T) {
	tests := []struct {
		name  string
		patch ProgramEventPatch
		want  *int
	}{
		{"absent keeps", ProgramEventPatch{Title: strPtr("Raduno estivo")}, intPtr(20)},
		{"value sets", ProgramEventPatch{MaxParticipants: intPtr(35)}, intPtr(35)},
		{"explicit clear", ProgramEventPatch{ClearMaxParticipants: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockProgramStore()
			p := seedProgram(t, store, 2025, ProgramEventInput{Title: "Raduno", Date: "2025-07-10", MaxParticipants: intPtr(20)})

			updated, err := ExecuteUpdateProgramEvent(context.Background(), UpdateProgramEventInput{
				Year: 2025, EventID: p.Events[0].ID, Patch: tt.patch,
			}, UpdateProgramEventDeps{ProgramStore: store})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := updated.Events[0].MaxParticipants
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("MaxParticipants = %d, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("MaxParticipants = %v, want %d", got, *tt.want)
			}
		})
	}
}

func TestExecuteUpdateProgramEvent_BadDate(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025, springRide())

	_, err := ExecuteUpdateProgramEvent(context.Background(), UpdateProgramEventInput{
		Year: 2025, EventID: p.Events[0].ID, Patch: ProgramEventPatch{Date: strPtr("08/03/2025")},
	}, UpdateProgramEventDeps{ProgramStore: store})
	if !apperr.IsKind(err, apperr.ValidationFailure) {
		t.Fatalf("err = %v, want ValidationFailure", err)
	}
}

// --- ExecuteReplaceProgramEvent ---

func TestExecuteReplaceProgramEvent_ClearsOmittedFields(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025,
		ProgramEventInput{Title: "Raduno", Date: "2025-07-10", EndDate: "2025-07-12", Location: "Bormio", MaxParticipants: intPtr(20)},
		springRide())
	target := p.Events[0]
	sibling := p.Events[1]

	updated, err := ExecuteReplaceProgramEvent(context.Background(), ReplaceProgramEventInput{
		Year:    2025,
		EventID: target.ID,
		Event:   ProgramEventInput{Title: "Raduno estivo", Date: "2025-07-11", Type: program.TypeRide, Status: program.StatusScheduled},
	}, UpdateProgramEventDeps{ProgramStore: store})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := updated.Events[0]
	if got.ID != target.ID {
		t.Errorf("ID = %q, want %q", got.ID, target.ID)
	}
	if got.Title != "Raduno estivo" || got.Date != "2025-07-11" {
		t.Errorf("fields not replaced: %+v", got)
	}
	if got.EndDate != "" || got.Location != "" || got.MaxParticipants != nil {
		t.Errorf("omitted fields survived: %+v", got)
	}
	if updated.Events[1] != sibling {
		t.Errorf("sibling changed: %+v", updated.Events[1])
	}
}

func TestExecuteReplaceProgramEvent_Errors(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025, springRide())
	deps := UpdateProgramEventDeps{ProgramStore: store}
	ctx := context.Background()

	tests := []struct {
		name string
		in   ReplaceProgramEventInput
		kind apperr.Kind
	}{
		{"missing event", ReplaceProgramEventInput{Year: 2025, EventID: "missing", Event: springRide()}, apperr.NotFound},
		{"missing program", ReplaceProgramEventInput{Year: 2031, EventID: p.Events[0].ID, Event: springRide()}, apperr.NotFound},
		{"invalid event", ReplaceProgramEventInput{Year: 2025, EventID: p.Events[0].ID, Event: ProgramEventInput{Title: "X", Date: "2025-13-01"}}, apperr.ValidationFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteReplaceProgramEvent(ctx, tt.in, deps); !apperr.IsKind(err, tt.kind) {
				t.Errorf("err = %v, want %v", err, tt.kind)
			}
		})
	}
}

// --- ExecuteDeleteProgramEvent ---

func TestExecuteDeleteProgramEvent(t *testing.T) {
	store := newMockProgramStore()
	p := seedProgram(t, store, 2025, springRide(),
		ProgramEventInput{Title: "B", Date: "2025-04-01"},
		ProgramEventInput{Title: "C", Date: "2025-05-01"})
	inv := &recordingInvalidator{}
	deps := DeleteProgramEventDeps{ProgramStore: store, Invalidator: inv}
	ctx := context.Background()

	ok, err := ExecuteDeleteProgramEvent(ctx, DeleteProgramEventInput{Year: 2025, EventID: p.Events[1].ID}, deps)
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	left := store.programs[2025].Events
	if len(left) != 2 || left[0].Title != "Giro di Primavera" || left[1].Title != "C" {
		t.Errorf("remaining = %+v", left)
	}
	if !inv.invalidated("/admin/program") {
		t.Error("expected invalidation")
	}

	for _, in := range []DeleteProgramEventInput{
		{Year: 2025, EventID: p.Events[1].ID},
		{Year: 2040, EventID: p.Events[0].ID},
	} {
		ok, err := ExecuteDeleteProgramEvent(ctx, in, deps)
		if ok || err != nil {
			t.Errorf("%+v: got %v, %v; want false, nil", in, ok, err)
		}
	}
}

func TestExecuteDeleteProgramEvent_StoreDown(t *testing.T) {
	store := newMockProgramStore()
	store.err = errors.New("disk I/O error")
	ok, err := ExecuteDeleteProgramEvent(context.Background(), DeleteProgramEventInput{Year: 2025, EventID: "x"},
		DeleteProgramEventDeps{ProgramStore: store})
	if ok || !apperr.IsKind(err, apperr.StoreUnavailable) {
		t.Fatalf("got %v, %v; want false, StoreUnavailable", ok, err)
	}
}

// --- ExecuteToggleProgramActive ---

func TestExecuteToggleProgramActive(t *testing.T) {
	store := newMockProgramStore()
	seedProgram(t, store, 2025, springRide())
	seedProgram(t, store, 2026, ProgramEventInput{Title: "X", Date: "2026-02-01"})
	deps := ToggleProgramActiveDeps{ProgramStore: store}
	ctx := context.Background()

	ok, err := ExecuteToggleProgramActive(ctx, ToggleProgramActiveInput{Year: 2025, IsActive: false}, deps)
	if err != nil || !ok {
		t.Fatalf("toggle = %v, %v", ok, err)
	}
	if store.programs[2025].IsActive {
		t.Error("2025 still active")
	}
	if !store.programs[2026].IsActive {
		t.Error("toggle touched another program")
	}

	ok, err = ExecuteToggleProgramActive(ctx, ToggleProgramActiveInput{Year: 2099, IsActive: true}, deps)
	if ok || err != nil {
		t.Errorf("missing program: %v, %v; want false, nil", ok, err)
	}
}
