package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"motoclub/internal/application/apperr"
	"motoclub/internal/application/listutil"
	"motoclub/internal/application/orchestrators"
	"motoclub/internal/application/projections"
	domainAccount "motoclub/internal/domain/account"
	domainProgram "motoclub/internal/domain/program"
)

func galleryDeps() orchestrators.GalleryDeps {
	return orchestrators.GalleryDeps{
		GalleryStore: stores.GalleryStore,
		Invalidator:  viewCache,
		GenerateID:   generateID,
		Now:          timeNow,
	}
}

var errBadCapacity = apperr.New(apperr.ValidationFailure, "il numero massimo di partecipanti deve essere un numero intero")

// eventFromForm reads the program event fields shared by the create, add and edit forms.
func eventFromForm(r *http.Request) (orchestrators.ProgramEventInput, error) {
	in := orchestrators.ProgramEventInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Date:        r.FormValue("date"),
		EndDate:     r.FormValue("endDate"),
		Time:        strings.TrimSpace(r.FormValue("time")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Description: r.FormValue("description"),
		Type:        r.FormValue("type"),
		Status:      r.FormValue("status"),
		Organizer:   r.FormValue("organizer"),
		MemberName:  strings.TrimSpace(r.FormValue("memberName")),
	}
	if v := strings.TrimSpace(r.FormValue("maxParticipants")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, errBadCapacity
		}
		in.MaxParticipants = &n
	}
	return in, nil
}

// adminProgramData gathers everything the program admin page shows for year.
func adminProgramData(ctx context.Context, year int) (map[string]any, error) {
	deps := programDeps()
	programs, err := projections.QueryListPrograms(ctx, deps)
	if err != nil {
		return nil, err
	}
	selected, found, err := projections.QueryGetProgram(ctx, year, deps)
	if err != nil {
		return nil, err
	}
	users, err := projections.QueryListUsers(ctx, stores.AccountStore)
	if err != nil {
		return nil, err
	}
	documentURL, err := orchestrators.GetYearlyProgramURL(ctx, settingsDeps())
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Year":        year,
		"Programs":    programs,
		"Program":     selected,
		"Found":       found,
		"Users":       users,
		"DocumentURL": documentURL,
		"Types":       domainProgram.ValidTypes,
		"Statuses":    domainProgram.ValidStatuses,
	}, nil
}

// adminProgramError re-renders the program admin page with err shown inline.
func adminProgramError(w http.ResponseWriter, r *http.Request, year int, err error) {
	data, loadErr := adminProgramData(r.Context(), year)
	if loadErr != nil {
		http.Error(w, apperr.MessageOf(loadErr), statusFor(loadErr))
		return
	}
	formError(w, r, "admin_program.html", err, data)
}

func redirectToYear(w http.ResponseWriter, r *http.Request, year int) {
	http.Redirect(w, r, fmt.Sprintf("/admin/program?year=%d", year), http.StatusSeeOther)
}

// handleAdminProgramPage handles GET /admin/program?year=YYYY
func handleAdminProgramPage(w http.ResponseWriter, r *http.Request) {
	data, err := adminProgramData(r.Context(), queryYear(r))
	if err != nil {
		http.Error(w, apperr.MessageOf(err), statusFor(err))
		return
	}
	renderTemplate(w, r, "admin_program.html", data)
}

// handleAdminCreateProgram handles POST /admin/program
func handleAdminCreateProgram(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	year, _ := strconv.Atoi(r.FormValue("year"))
	event, err := eventFromForm(r)
	if err != nil {
		adminProgramError(w, r, queryYear(r), err)
		return
	}
	_, err = orchestrators.ExecuteCreateProgram(r.Context(), orchestrators.CreateProgramInput{Year: year, Event: event}, orchestrators.CreateProgramDeps{
		ProgramStore: stores.ProgramStore,
		Invalidator:  viewCache,
		Now:          timeNow,
	})
	if err != nil {
		adminProgramError(w, r, queryYear(r), err)
		return
	}
	redirectToYear(w, r, year)
}

// handleAdminAddEvent handles POST /admin/program/{year}/events
func handleAdminAddEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok || r.ParseForm() != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	event, err := eventFromForm(r)
	if err == nil {
		_, err = orchestrators.ExecuteAddProgramEvent(r.Context(), orchestrators.AddProgramEventInput{Year: year, Event: event}, orchestrators.AddProgramEventDeps{
			ProgramStore: stores.ProgramStore,
			Invalidator:  viewCache,
		})
	}
	if err != nil {
		adminProgramError(w, r, year, err)
		return
	}
	redirectToYear(w, r, year)
}

// handleAdminUpdateEvent handles POST /admin/program/{year}/events/{eventID}
func handleAdminUpdateEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok || r.ParseForm() != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	event, err := eventFromForm(r)
	if err == nil {
		_, err = orchestrators.ExecuteReplaceProgramEvent(r.Context(), orchestrators.ReplaceProgramEventInput{
			Year:    year,
			EventID: chi.URLParam(r, "eventID"),
			Event:   event,
		}, orchestrators.UpdateProgramEventDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	}
	if err != nil {
		adminProgramError(w, r, year, err)
		return
	}
	redirectToYear(w, r, year)
}

// handleAdminDeleteEvent handles POST /admin/program/{year}/events/{eventID}/delete
func handleAdminDeleteEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	deleted, err := orchestrators.ExecuteDeleteProgramEvent(r.Context(), orchestrators.DeleteProgramEventInput{
		Year:    year,
		EventID: chi.URLParam(r, "eventID"),
	}, orchestrators.DeleteProgramEventDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	if err != nil {
		adminProgramError(w, r, year, err)
		return
	}
	if !deleted {
		adminProgramError(w, r, year, apperr.New(apperr.NotFound, "Evento non trovato"))
		return
	}
	redirectToYear(w, r, year)
}

// handleAdminToggleActive handles POST /admin/program/{year}/active
func handleAdminToggleActive(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok || r.ParseForm() != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	active := r.FormValue("isActive") == "true"
	updated, err := orchestrators.ExecuteToggleProgramActive(r.Context(), orchestrators.ToggleProgramActiveInput{Year: year, IsActive: active},
		orchestrators.ToggleProgramActiveDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	if err != nil {
		adminProgramError(w, r, year, err)
		return
	}
	if !updated {
		adminProgramError(w, r, year, apperr.New(apperr.NotFound, fmt.Sprintf("Programma per l'anno %d non trovato", year)))
		return
	}
	redirectToYear(w, r, year)
}

// handleAdminSetProgramDocument handles POST /admin/program/document
func handleAdminSetProgramDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	err := orchestrators.SetYearlyProgramURL(r.Context(), orchestrators.SetYearlyProgramURLInput{URL: r.FormValue("url")}, settingsDeps())
	if err != nil {
		adminProgramError(w, r, queryYear(r), err)
		return
	}
	http.Redirect(w, r, "/admin/program", http.StatusSeeOther)
}

// --- Gallery ---

func adminPhotosError(w http.ResponseWriter, r *http.Request, err error) {
	events, loadErr := projections.QueryGalleryEvents(r.Context(), galleryQueryDeps())
	if loadErr != nil {
		http.Error(w, apperr.MessageOf(loadErr), statusFor(loadErr))
		return
	}
	formError(w, r, "admin_photos.html", err, map[string]any{"Events": events})
}

// handleAdminPhotosPage handles GET /admin/photos
func handleAdminPhotosPage(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryGalleryEvents(r.Context(), galleryQueryDeps())
	if err != nil {
		http.Error(w, apperr.MessageOf(err), statusFor(err))
		return
	}
	renderTemplate(w, r, "admin_photos.html", map[string]any{"Events": events})
}

// handleAdminCreateGalleryEvent handles POST /admin/photos
func handleAdminCreateGalleryEvent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.CreateGalleryEventInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Date:        r.FormValue("date"),
		Time:        strings.TrimSpace(r.FormValue("time")),
		Location:    strings.TrimSpace(r.FormValue("location")),
		Description: r.FormValue("description"),
		ImageURL:    strings.TrimSpace(r.FormValue("imageUrl")),
	}
	if _, err := orchestrators.ExecuteCreateGalleryEvent(r.Context(), input, galleryDeps()); err != nil {
		adminPhotosError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/photos", http.StatusSeeOther)
}

// handleAdminAddPhoto handles POST /admin/photos/{id}/photos
func handleAdminAddPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.AddPhotoInput{
		EventID:     chi.URLParam(r, "id"),
		URL:         strings.TrimSpace(r.FormValue("url")),
		PublicID:    strings.TrimSpace(r.FormValue("publicId")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if _, err := orchestrators.ExecuteAddPhoto(r.Context(), input, galleryDeps()); err != nil {
		adminPhotosError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/photos", http.StatusSeeOther)
}

// handleAdminDeleteGalleryEvent handles POST /admin/photos/{id}/delete
func handleAdminDeleteGalleryEvent(w http.ResponseWriter, r *http.Request) {
	deleted, err := orchestrators.ExecuteDeleteGalleryEvent(r.Context(), chi.URLParam(r, "id"), galleryDeps())
	if err == nil && !deleted {
		err = apperr.New(apperr.NotFound, "Evento non trovato")
	}
	if err != nil {
		adminPhotosError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/photos", http.StatusSeeOther)
}

// --- Users ---

// userListFilters are the filters accepted by the user listing.
var userListFilters = map[string][]string{"role": domainAccount.ValidRoles}

// adminUsersData loads the user page selected by the query string.
func adminUsersData(r *http.Request) (map[string]any, error) {
	params := listutil.ParseListParams(r.URL.Query(), userListFilters)
	page, err := projections.QueryUserPage(r.Context(), params, stores.AccountStore)
	if err != nil {
		return nil, err
	}
	return map[string]any{"Page": page, "Roles": domainAccount.ValidRoles}, nil
}

// handleAdminUsersPage handles GET /admin/users?page=N&per_page=N&role=R
func handleAdminUsersPage(w http.ResponseWriter, r *http.Request) {
	data, err := adminUsersData(r)
	if err != nil {
		http.Error(w, apperr.MessageOf(err), statusFor(err))
		return
	}
	renderTemplate(w, r, "admin_users.html", data)
}

// handleAdminUpdateRole handles POST /admin/users/{id}/role
func handleAdminUpdateRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.UpdateUserRoleInput{UserID: chi.URLParam(r, "id"), Role: r.FormValue("role")}
	if _, err := orchestrators.ExecuteUpdateUserRole(r.Context(), input, userDeps()); err != nil {
		data, loadErr := adminUsersData(r)
		if loadErr != nil {
			http.Error(w, apperr.MessageOf(loadErr), statusFor(loadErr))
			return
		}
		formError(w, r, "admin_users.html", err, data)
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
