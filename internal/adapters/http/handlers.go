package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/application/apperr"
	domainProgram "motoclub/internal/domain/program"
	"motoclub/internal/logging"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	logging.Error().Err(err).Msg("internal_error")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("json_encode_failed")
	}
}

// errorBody is the JSON shape of every API failure.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps an application error kind to its HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.Conflict:
		return http.StatusConflict
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.ValidationFailure:
		return http.StatusBadRequest
	case apperr.StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAPIError reports an application error as JSON. Unclassified errors are logged and hidden.
func writeAPIError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	if kind == 0 {
		internalError(w, err)
		return
	}
	writeJSON(w, statusFor(err), errorBody{Error: apperr.MessageOf(err), Kind: kind.String()})
}

// badRequest reports a malformed request body.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: apperr.ValidationFailure.String()})
}

// yearParam parses the {year} route segment.
func yearParam(r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	return year, err == nil
}

// queryYear parses ?year=, falling back to the current year.
func queryYear(r *http.Request) int {
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil {
		return y
	}
	return timeNow().In(time.Local).Year()
}

// queryLimit parses ?limit=, where 0 means no cap.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// degrade marks a public page rendered without its data so it is not cached.
func degrade(w http.ResponseWriter, op string, err error) {
	logging.Warn().Err(err).Str("op", op).Msg("page_degraded")
	w.Header().Set("Cache-Control", "no-store")
}

//go:embed templates/*.html
var templateFS embed.FS

// pages holds one parsed template set per page, each combined with the layout.
var pages = mustParsePages()

// baseFuncs are the request-independent template helpers. Request-bound helpers
// are placeholders here and replaced per render.
var baseFuncs = template.FuncMap{
	"renderMarkdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"formatDay": func(t time.Time) string {
		return t.UTC().Format("02/01/2006")
	},
	"inputDate": func(t time.Time) string {
		return t.UTC().Format("2006-01-02")
	},
	"typeLabel":   domainProgram.TypeLabel,
	"statusLabel": domainProgram.StatusLabel,
	"dict": func(pairs ...any) map[string]any {
		m := make(map[string]any, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			if k, ok := pairs[i].(string); ok {
				m[k] = pairs[i+1]
			}
		}
		return m
	},
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
	"currentRole":  func() string { return "" },
	"currentName":  func() string { return "" },
	"currentEmail": func() string { return "" },
	"isLoggedIn":   func() bool { return false },
	"isAdmin":      func() bool { return false },
	"csrfField":    func() template.HTML { return "" },
}

func mustParsePages() map[string]*template.Template {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		tpl := template.Must(template.New("layout.html").Funcs(baseFuncs).ParseFS(templateFS, "templates/layout.html", name))
		out[base] = tpl
	}
	return out
}

// renderTemplate executes a page inside the layout with the session helpers bound to r.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	page, ok := pages[templateName]
	if !ok {
		internalError(w, errors.New("unknown template "+templateName))
		return
	}
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())

	tpl, err := page.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"currentRole":  func() string { return sess.Role },
		"currentName":  func() string { return sess.Name },
		"currentEmail": func() string { return sess.Email },
		"isLoggedIn":   func() bool { return loggedIn },
		"isAdmin":      func() bool { return loggedIn && middleware.IsAdmin(r.Context()) },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// formError re-renders a form page with the application error inline.
func formError(w http.ResponseWriter, r *http.Request, templateName string, err error, data map[string]any) {
	if apperr.KindOf(err) == 0 {
		internalError(w, err)
		return
	}
	status := statusFor(err)
	if status == http.StatusBadRequest {
		status = http.StatusUnprocessableEntity
	}
	data["Error"] = apperr.MessageOf(err)
	renderTemplateStatus(w, r, status, templateName, data)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "risorsa non trovata", Kind: apperr.NotFound.String()})
		return
	}
	renderTemplateStatus(w, r, http.StatusNotFound, "not_found.html", nil)
}
