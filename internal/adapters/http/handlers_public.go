package web

import (
	"bytes"
	"net/http"
	"strconv"

	"motoclub/internal/adapters/pdf"
	"motoclub/internal/application/apperr"
	"motoclub/internal/application/orchestrators"
	"motoclub/internal/application/projections"
	domainGallery "motoclub/internal/domain/gallery"
	"motoclub/internal/logging"
)

// homeGalleryLimit is the number of upcoming gallery events on the home page.
const homeGalleryLimit = 3

func programDeps() projections.ProgramDeps {
	return projections.ProgramDeps{
		ProgramStore: stores.ProgramStore,
		UserStore:    stores.AccountStore,
		Now:          timeNow,
	}
}

func galleryQueryDeps() projections.GalleryDeps {
	return projections.GalleryDeps{GalleryStore: stores.GalleryStore, Now: timeNow}
}

func settingsDeps() orchestrators.SettingsDeps {
	return orchestrators.SettingsDeps{SettingsStore: stores.SettingsStore, Invalidator: viewCache}
}

// handleHome handles GET /
func handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	upcoming, err := projections.QueryHomeUpcoming(ctx, programDeps())
	if err != nil {
		degrade(w, "home_upcoming", err)
		upcoming = nil
	}
	events, err := projections.QueryUpcomingEvents(ctx, homeGalleryLimit, galleryQueryDeps())
	if err != nil {
		degrade(w, "home_gallery", err)
		events = nil
	}

	renderTemplate(w, r, "home.html", map[string]any{
		"Upcoming":      upcoming,
		"GalleryEvents": events,
	})
}

// handleProgramPage handles GET /program?year=YYYY
func handleProgramPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	year := queryYear(r)
	deps := programDeps()

	months, found, err := projections.QueryProgramMonths(ctx, year, deps)
	if err != nil {
		degrade(w, "program_months", err)
	}
	years, err := projections.QueryPublishedYears(ctx, deps)
	if err != nil {
		degrade(w, "published_years", err)
	}
	documentURL, err := orchestrators.GetYearlyProgramURL(ctx, settingsDeps())
	if err != nil {
		degrade(w, "program_document_url", err)
	}

	renderTemplate(w, r, "program.html", map[string]any{
		"Year":        year,
		"Found":       found,
		"Months":      months.Months,
		"Years":       years,
		"DocumentURL": documentURL,
	})
}

// handleProgramPDF handles GET /program/{year}/pdf
func handleProgramPDF(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	doc, found, err := projections.QueryProgramDocument(r.Context(), year, programDeps())
	if err != nil {
		http.Error(w, apperr.MessageOf(err), statusFor(err))
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := pdf.RenderProgram(&buf, doc, pdf.Options{}); err != nil {
		internalError(w, err)
		return
	}
	logging.Info().Str("event", "program_exported").Int("year", year).Int("events", len(doc.Sections)).Msg("program_event")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handlePhotosPage handles GET /photos
func handlePhotosPage(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryGalleryEvents(r.Context(), galleryQueryDeps())
	if err != nil {
		degrade(w, "gallery_events", err)
		events = []domainGallery.Event{}
	}
	renderTemplate(w, r, "photos.html", map[string]any{"Events": events})
}

// handleContactPage handles GET /contact
func handleContactPage(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, "contact.html", map[string]any{"Sent": r.URL.Query().Get("sent") == "1"})
}

// handleContactSubmit handles POST /contact
func handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SubmitContactInput{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
	}
	err := orchestrators.ExecuteSubmitContact(r.Context(), input, contactDeps())
	if err != nil {
		formError(w, r, "contact.html", err, map[string]any{"Form": input})
		return
	}
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

func contactDeps() orchestrators.SubmitContactDeps {
	return orchestrators.SubmitContactDeps{Sender: emailSender, To: contactTo}
}
