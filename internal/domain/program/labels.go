package program

import (
	"fmt"
	"strings"
)

// MonthNames are the Italian month names, January first.
var MonthNames = [12]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

var typeLabels = map[string]string{
	TypeRide:     "Giro in Moto",
	TypeMeeting:  "Riunione",
	TypeWorkshop: "Officina",
	TypeSocial:   "Evento Sociale",
	TypeOther:    "Altro",
}

var statusLabels = map[string]string{
	StatusScheduled: "Programmato",
	StatusCancelled: "Annullato",
	StatusCompleted: "Completato",
}

// TypeLabel returns the display label for an event type.
func TypeLabel(t string) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return typeLabels[TypeOther]
}

// StatusLabel returns the display label for an event status.
func StatusLabel(s string) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return s
}

// FormatDate renders a yyyy-MM-dd string as "1 marzo 2025".
// Unparseable input is returned unchanged.
func FormatDate(s string) string {
	d, err := ParseDate(s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d %s %d", d.Day(), strings.ToLower(MonthNames[d.Month()-1]), d.Year())
}

// FormatDateRange renders the date line used by the program export,
// e.g. "1 marzo 2025 - 3 marzo 2025 alle 09:00".
func FormatDateRange(e Event) string {
	out := FormatDate(e.Date)
	if e.EndDate != "" {
		out += " - " + FormatDate(e.EndDate)
	}
	if e.Time != "" {
		out += " alle " + e.Time
	}
	return out
}

