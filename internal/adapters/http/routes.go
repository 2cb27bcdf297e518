package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/adapters/http/perf"
)

// routes builds the chi router. Public pages go through the view cache;
// /admin, /profile and /api/admin are gated by the route policy.
func routes(staticDir string, collector *perf.Collector, slowRequestMs int) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timing(collector, slowRequestMs))

	if staticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	r.Get("/healthz", handleHealthz)
	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	// Public pages
	r.Group(func(r chi.Router) {
		r.Use(viewCache.Middleware)
		r.Get("/", handleHome)
		r.Get("/program", handleProgramPage)
		r.Get("/photos", handlePhotosPage)
	})
	r.Get("/program/{year}/pdf", handleProgramPDF)
	r.Get("/contact", handleContactPage)
	r.Post("/contact", handleContactSubmit)

	// Auth
	r.Get("/login", handleLoginPage)
	r.Post("/login", handleLogin)
	r.Get("/signup", handleSignupPage)
	r.Post("/signup", handleSignup)
	r.Post("/logout", handleLogout)

	// Signed-in users
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(enforcer))
		r.Get("/profile", handleProfilePage)
		r.Post("/profile", handleProfileUpdate)
	})

	// Admin pages
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(enforcer))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/admin/program", http.StatusSeeOther)
		})
		r.Get("/program", handleAdminProgramPage)
		r.Post("/program", handleAdminCreateProgram)
		r.Post("/program/document", handleAdminSetProgramDocument)
		r.Post("/program/{year}/events", handleAdminAddEvent)
		r.Post("/program/{year}/events/{eventID}", handleAdminUpdateEvent)
		r.Post("/program/{year}/events/{eventID}/delete", handleAdminDeleteEvent)
		r.Post("/program/{year}/active", handleAdminToggleActive)
		r.Get("/photos", handleAdminPhotosPage)
		r.Post("/photos", handleAdminCreateGalleryEvent)
		r.Post("/photos/{id}/photos", handleAdminAddPhoto)
		r.Post("/photos/{id}/delete", handleAdminDeleteGalleryEvent)
		r.Get("/users", handleAdminUsersPage)
		r.Post("/users/{id}/role", handleAdminUpdateRole)
	})

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/programs", apiListPrograms)
		r.Get("/programs/current", apiCurrentProgram)
		r.Get("/programs/{year}", apiGetProgram)
		r.Get("/programs/{year}/months", apiProgramMonths)
		r.Get("/home/upcoming", apiHomeUpcoming)
		r.Get("/events", apiListGalleryEvents)
		r.Get("/events/upcoming", apiUpcomingGalleryEvents)
		r.Get("/events/year", apiYearGalleryEvents)
		r.Get("/settings/yearly-program-url", apiGetProgramDocument)
		r.Post("/contact", apiSubmitContact)
		r.Post("/auth/login", apiLogin)
		r.Post("/auth/signup", apiSignup)
		r.Post("/auth/logout", apiLogout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(enforcer))
			r.Get("/profile", apiGetProfile)
			r.Put("/profile", apiUpdateProfile)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enforcer))
			r.Post("/programs", apiCreateProgram)
			r.Post("/programs/{year}/events", apiAddProgramEvent)
			r.Patch("/programs/{year}/events/{eventID}", apiUpdateProgramEvent)
			r.Put("/programs/{year}/events/{eventID}", apiReplaceProgramEvent)
			r.Delete("/programs/{year}/events/{eventID}", apiDeleteProgramEvent)
			r.Put("/programs/{year}/active", apiToggleProgramActive)
			r.Post("/events", apiCreateGalleryEvent)
			r.Post("/events/{id}/photos", apiAddPhoto)
			r.Delete("/events/{id}", apiDeleteGalleryEvent)
			r.Get("/users", apiListUsers)
			r.Put("/users/{id}/role", apiUpdateUserRole)
			r.Put("/settings/yearly-program-url", apiSetProgramDocument)
		})
	})

	r.NotFound(handleNotFound)
	return r
}
