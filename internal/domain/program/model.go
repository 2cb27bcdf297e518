package program

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the storage format of program event dates (no timezone component).
const DateLayout = "2006-01-02"

// Year bounds accepted when creating a program.
const (
	MinYear = 2024
	MaxYear = 2100
)

// Event type constants
const (
	TypeRide     = "gita"
	TypeMeeting  = "riunione"
	TypeWorkshop = "workshop"
	TypeSocial   = "sociale"
	TypeOther    = "altro"
)

// Event status constants
const (
	StatusScheduled = "programmato"
	StatusCancelled = "annullato"
	StatusCompleted = "completato"
)

// ValidTypes contains all valid event types.
var ValidTypes = []string{TypeRide, TypeMeeting, TypeWorkshop, TypeSocial, TypeOther}

// ValidStatuses contains all valid event statuses.
var ValidStatuses = []string{StatusScheduled, StatusCancelled, StatusCompleted}

// Domain errors
var (
	ErrEmptyTitle       = errors.New("il titolo è obbligatorio")
	ErrInvalidDate      = errors.New("la data deve essere nel formato aaaa-mm-gg")
	ErrInvalidEndDate   = errors.New("la data di fine deve essere nel formato aaaa-mm-gg")
	ErrEndBeforeStart   = errors.New("la data di fine deve essere uguale o successiva alla data di inizio")
	ErrInvalidType      = errors.New("tipo di evento non valido")
	ErrInvalidStatus    = errors.New("stato dell'evento non valido")
	ErrNegativeCapacity = errors.New("il numero massimo di partecipanti non può essere negativo")
	ErrYearOutOfRange   = fmt.Errorf("l'anno deve essere compreso tra %d e %d", MinYear, MaxYear)
)

// YearlyProgram is the aggregate of all scheduled events for one calendar year.
// INVARIANT: Year is unique across all programs.
// INVARIANT: Events keep insertion order; display sorting never mutates this slice.
type YearlyProgram struct {
	ID        string
	Year      int
	Events    []Event
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is a single scheduled activity owned by a YearlyProgram.
// INVARIANT: EndDate, when set, is on or after Date.
type Event struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Date            string `json:"date"`
	EndDate         string `json:"endDate,omitempty"`
	Time            string `json:"time,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	MaxParticipants *int   `json:"maxParticipants,omitempty"`
	OrganizerID     string `json:"organizer,omitempty"` // weak reference to a user id
	MemberName      string `json:"memberName,omitempty"`
}

// ApplyDefaults fills Type and Status when left empty.
// POST: Type defaults to gita, Status defaults to programmato
func (e *Event) ApplyDefaults() {
	if e.Type == "" {
		e.Type = TypeRide
	}
	if e.Status == "" {
		e.Status = StatusScheduled
	}
}

// Validate checks the event's invariants.
// PRE: defaults applied
// POST: returns nil if valid, the first violation otherwise
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	start, err := ParseDate(e.Date)
	if err != nil {
		return ErrInvalidDate
	}
	if e.EndDate != "" {
		end, err := ParseDate(e.EndDate)
		if err != nil {
			return ErrInvalidEndDate
		}
		if end.Before(start) {
			return ErrEndBeforeStart
		}
	}
	if !contains(ValidTypes, e.Type) {
		return ErrInvalidType
	}
	if !contains(ValidStatuses, e.Status) {
		return ErrInvalidStatus
	}
	if e.MaxParticipants != nil && *e.MaxParticipants < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// IsMultiDay returns true if the event ends on a later day than it starts.
func (e Event) IsMultiDay() bool {
	return e.EndDate != "" && e.EndDate != e.Date
}

// ValidateYear checks the accepted program year range.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return ErrYearOutOfRange
	}
	return nil
}

// ParseDate parses a yyyy-MM-dd string as a local calendar date.
// The result is midnight in time.Local so the day never shifts.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// Today returns now truncated to a local calendar date string.
func Today(now time.Time) string {
	return now.In(time.Local).Format(DateLayout)
}

// SortedByDate returns a copy of events ordered ascending by Date.
// Ties keep insertion order. The input slice is not modified.
func SortedByDate(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

// GroupByMonth partitions events into 12 buckets by the month of Date.
// Bucket 0 is January. Each bucket is ordered ascending by date.
// Events with an unparseable date are skipped.
func GroupByMonth(events []Event) [12][]Event {
	var buckets [12][]Event
	for _, e := range SortedByDate(events) {
		d, err := ParseDate(e.Date)
		if err != nil {
			continue
		}
		m := int(d.Month()) - 1
		buckets[m] = append(buckets[m], e)
	}
	return buckets
}

// UpcomingFrom returns events dated on or after today, ascending, capped at limit (0 = no cap).
// PRE: today is a yyyy-MM-dd string
func UpcomingFrom(events []Event, today string, limit int) []Event {
	var out []Event
	for _, e := range SortedByDate(events) {
		if e.Date < today {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// FindEvent returns the event with the given id.
func (p *YearlyProgram) FindEvent(id string) (Event, bool) {
	for _, e := range p.Events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
