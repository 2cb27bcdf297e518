package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/application/apperr"
	"motoclub/internal/application/orchestrators"
	"motoclub/internal/application/projections"
)

func notFoundJSON(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: msg, Kind: apperr.NotFound.String()})
}

func programNotFound(w http.ResponseWriter, year int) {
	notFoundJSON(w, fmt.Sprintf("Programma per l'anno %d non trovato", year))
}

// --- Program reads ---

// apiListPrograms handles GET /api/programs
func apiListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := projections.QueryListPrograms(r.Context(), programDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

// apiCurrentProgram handles GET /api/programs/current
func apiCurrentProgram(w http.ResponseWriter, r *http.Request) {
	p, found, err := projections.QueryCurrentYearProgram(r.Context(), programDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !found {
		programNotFound(w, timeNow().Year())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// apiGetProgram handles GET /api/programs/{year}
func apiGetProgram(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	p, found, err := projections.QueryGetProgram(r.Context(), year, programDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !found {
		programNotFound(w, year)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// apiProgramMonths handles GET /api/programs/{year}/months
func apiProgramMonths(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	months, found, err := projections.QueryProgramMonths(r.Context(), year, programDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !found {
		programNotFound(w, year)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

// apiHomeUpcoming handles GET /api/home/upcoming
func apiHomeUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryHomeUpcoming(r.Context(), programDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// --- Program writes ---

// apiCreateProgram handles POST /api/admin/programs
func apiCreateProgram(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CreateProgramInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	p, err := orchestrators.ExecuteCreateProgram(r.Context(), input, orchestrators.CreateProgramDeps{
		ProgramStore: stores.ProgramStore,
		Invalidator:  viewCache,
		Now:          timeNow,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.ProgramViewOf(p))
}

// apiAddProgramEvent handles POST /api/admin/programs/{year}/events
func apiAddProgramEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	var event orchestrators.ProgramEventInput
	if err := strictDecode(r, &event); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	p, err := orchestrators.ExecuteAddProgramEvent(r.Context(), orchestrators.AddProgramEventInput{Year: year, Event: event}, orchestrators.AddProgramEventDeps{
		ProgramStore: stores.ProgramStore,
		Invalidator:  viewCache,
	})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, projections.ProgramViewOf(p))
}

// apiUpdateProgramEvent handles PATCH /api/admin/programs/{year}/events/{eventID}
func apiUpdateProgramEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	var patch orchestrators.ProgramEventPatch
	if err := strictDecode(r, &patch); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	p, err := orchestrators.ExecuteUpdateProgramEvent(r.Context(), orchestrators.UpdateProgramEventInput{
		Year:    year,
		EventID: chi.URLParam(r, "eventID"),
		Patch:   patch,
	}, orchestrators.UpdateProgramEventDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.ProgramViewOf(p))
}

// apiReplaceProgramEvent handles PUT /api/admin/programs/{year}/events/{eventID}
func apiReplaceProgramEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	var event orchestrators.ProgramEventInput
	if err := strictDecode(r, &event); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	p, err := orchestrators.ExecuteReplaceProgramEvent(r.Context(), orchestrators.ReplaceProgramEventInput{
		Year:    year,
		EventID: chi.URLParam(r, "eventID"),
		Event:   event,
	}, orchestrators.UpdateProgramEventDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.ProgramViewOf(p))
}

// apiDeleteProgramEvent handles DELETE /api/admin/programs/{year}/events/{eventID}
// A missing program and a missing event both answer 404.
func apiDeleteProgramEvent(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	deleted, err := orchestrators.ExecuteDeleteProgramEvent(r.Context(), orchestrators.DeleteProgramEventInput{
		Year:    year,
		EventID: chi.URLParam(r, "eventID"),
	}, orchestrators.DeleteProgramEventDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !deleted {
		notFoundJSON(w, "Evento non trovato")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

// apiToggleProgramActive handles PUT /api/admin/programs/{year}/active
func apiToggleProgramActive(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(r)
	if !ok {
		badRequest(w, "anno non valido")
		return
	}
	var req toggleActiveRequest
	if err := strictDecode(r, &req); err != nil || req.IsActive == nil {
		badRequest(w, "isActive è obbligatorio")
		return
	}
	updated, err := orchestrators.ExecuteToggleProgramActive(r.Context(), orchestrators.ToggleProgramActiveInput{Year: year, IsActive: *req.IsActive},
		orchestrators.ToggleProgramActiveDeps{ProgramStore: stores.ProgramStore, Invalidator: viewCache})
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !updated {
		programNotFound(w, year)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- Gallery ---

// apiListGalleryEvents handles GET /api/events
func apiListGalleryEvents(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryGalleryEvents(r.Context(), galleryQueryDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// apiUpcomingGalleryEvents handles GET /api/events/upcoming?limit=N
func apiUpcomingGalleryEvents(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryUpcomingEvents(r.Context(), queryLimit(r), galleryQueryDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// apiYearGalleryEvents handles GET /api/events/year?limit=N
func apiYearGalleryEvents(w http.ResponseWriter, r *http.Request) {
	events, err := projections.QueryYearlyProgramEvents(r.Context(), queryLimit(r), galleryQueryDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// apiCreateGalleryEvent handles POST /api/admin/events
func apiCreateGalleryEvent(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.CreateGalleryEventInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	e, err := orchestrators.ExecuteCreateGalleryEvent(r.Context(), input, galleryDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// apiAddPhoto handles POST /api/admin/events/{id}/photos
func apiAddPhoto(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.AddPhotoInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	input.EventID = chi.URLParam(r, "id")
	e, err := orchestrators.ExecuteAddPhoto(r.Context(), input, galleryDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// apiDeleteGalleryEvent handles DELETE /api/admin/events/{id}
func apiDeleteGalleryEvent(w http.ResponseWriter, r *http.Request) {
	deleted, err := orchestrators.ExecuteDeleteGalleryEvent(r.Context(), chi.URLParam(r, "id"), galleryDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if !deleted {
		notFoundJSON(w, "Evento non trovato")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Settings ---

type programDocumentResponse struct {
	URL *string `json:"url"`
}

// apiGetProgramDocument handles GET /api/settings/yearly-program-url
func apiGetProgramDocument(w http.ResponseWriter, r *http.Request) {
	url, err := orchestrators.GetYearlyProgramURL(r.Context(), settingsDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programDocumentResponse{URL: url})
}

// apiSetProgramDocument handles PUT /api/admin/settings/yearly-program-url
func apiSetProgramDocument(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.SetYearlyProgramURLInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	if err := orchestrators.SetYearlyProgramURL(r.Context(), input, settingsDeps()); err != nil {
		writeAPIError(w, err)
		return
	}
	apiGetProgramDocument(w, r)
}

// --- Contact ---

// apiSubmitContact handles POST /api/contact
func apiSubmitContact(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.SubmitContactInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	if err := orchestrators.ExecuteSubmitContact(r.Context(), input, contactDeps()); err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"success": true})
}

// --- Auth ---

type sessionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// apiLogin handles POST /api/auth/login
func apiLogin(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.LoginInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	result, err := orchestrators.ExecuteLogin(r.Context(), input, loginDeps())
	if err != nil {
		writeJSON(w, loginStatus(err), errorBody{Error: loginMessage(err)})
		return
	}
	if err := startSession(w, result.UserID, result.Email, result.Name, result.Role); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: result.UserID, Name: result.Name, Email: result.Email, Role: result.Role})
}

// apiSignup handles POST /api/auth/signup
func apiSignup(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.SignupInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	user, err := orchestrators.ExecuteSignup(r.Context(), input, signupDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if err := startSession(w, user.ID, user.Email, user.Name, user.Role); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}

// apiLogout handles POST /api/auth/logout
func apiLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

// apiGetProfile handles GET /api/profile
func apiGetProfile(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.AccountID, Name: sess.Name, Email: sess.Email, Role: sess.Role})
}

// apiUpdateProfile handles PUT /api/profile
func apiUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input orchestrators.UpdateProfileInput
	if err := strictDecode(r, &input); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	sess, _ := middleware.GetSessionFromContext(r.Context())
	input.UserID = sess.AccountID
	user, err := orchestrators.ExecuteUpdateProfile(r.Context(), input, userDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if err := startSession(w, user.ID, user.Email, user.Name, user.Role); err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role})
}

// --- Users ---

// apiListUsers handles GET /api/admin/users
func apiListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := projections.QueryListUsers(r.Context(), stores.AccountStore)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

// apiUpdateUserRole handles PUT /api/admin/users/{id}/role
func apiUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := strictDecode(r, &req); err != nil {
		badRequest(w, "richiesta non valida")
		return
	}
	user, err := orchestrators.ExecuteUpdateUserRole(r.Context(), orchestrators.UpdateUserRoleInput{UserID: chi.URLParam(r, "id"), Role: req.Role}, userDeps())
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projections.UserSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role, CreatedAt: user.CreatedAt})
}
