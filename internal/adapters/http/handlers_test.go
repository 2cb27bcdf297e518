package web

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/adapters/http/perf"
	"motoclub/internal/adapters/storage"
	accountStore "motoclub/internal/adapters/storage/account"
	galleryStore "motoclub/internal/adapters/storage/gallery"
	programStore "motoclub/internal/adapters/storage/program"
	siteSettingStore "motoclub/internal/adapters/storage/sitesetting"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)

type testServer struct {
	handler http.Handler
	db      *sql.DB
}

// newTestServer wires the router over in-memory SQLite and badger stores.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	kv, err := siteSettingStore.Open("")
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	origNow := timeNow
	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = origNow })

	h, err := NewRouter(&Stores{
		ProgramStore:  programStore.NewSQLiteStore(db),
		GalleryStore:  galleryStore.NewSQLiteStore(db),
		AccountStore:  accountStore.NewSQLiteStore(db),
		SettingsStore: siteSettingStore.NewBadgerStore(kv),
	}, Options{
		JWTSecret: "test-secret",
		Collector: perf.NewCollector(),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(viewCache.Close)
	return &testServer{handler: h, db: db}
}

func sessionCookie(t *testing.T, role string) *http.Cookie {
	t.Helper()
	token, err := sessions.Create(role+"-1", role+"@motoclub.it", "Test "+role, role)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	viewCache.Wait()
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

const createProgram2025 = `{"year":2025,"event":{"title":"Giro dei Laghi","date":"2025-07-12","location":"Como"}}`

func TestAPI_CreateProgram(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")

	rec := s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view struct {
		Year     int  `json:"year"`
		IsActive bool `json:"isActive"`
		Events   []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Type      string `json:"type"`
			DateLabel string `json:"dateLabel"`
		} `json:"events"`
	}
	decodeBody(t, rec, &view)
	if view.Year != 2025 || !view.IsActive || len(view.Events) != 1 {
		t.Fatalf("view = %+v", view)
	}
	if view.Events[0].ID == "" || view.Events[0].Type != "gita" || view.Events[0].DateLabel != "12 luglio 2025" {
		t.Errorf("event = %+v", view.Events[0])
	}

	rec = s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, admin)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}
	var body errorBody
	decodeBody(t, rec, &body)
	if body.Kind != "conflict" || !strings.Contains(body.Error, "2025") {
		t.Errorf("conflict body = %+v", body)
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, admin)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		want     int
		wantKind string
	}{
		{"missing program", http.MethodGet, "/api/programs/2030", "", http.StatusNotFound, "not_found"},
		{"missing months", http.MethodGet, "/api/programs/2030/months", "", http.StatusNotFound, "not_found"},
		{"year out of range", http.MethodPost, "/api/admin/programs", `{"year":2023,"event":{"title":"X","date":"2023-01-01"}}`, http.StatusBadRequest, "validation_failure"},
		{"end before start", http.MethodPost, "/api/admin/programs/2025/events", `{"title":"X","date":"2025-05-10","endDate":"2025-05-09"}`, http.StatusBadRequest, "validation_failure"},
		{"unknown field", http.MethodPost, "/api/admin/programs/2025/events", `{"title":"X","date":"2025-05-10","colour":"red"}`, http.StatusBadRequest, "validation_failure"},
		{"add to missing program", http.MethodPost, "/api/admin/programs/2031/events", `{"title":"X","date":"2031-05-10"}`, http.StatusNotFound, "not_found"},
		{"delete missing event", http.MethodDelete, "/api/admin/programs/2025/events/nope", "", http.StatusNotFound, "not_found"},
		{"delete in missing program", http.MethodDelete, "/api/admin/programs/2031/events/nope", "", http.StatusNotFound, "not_found"},
		{"toggle missing program", http.MethodPut, "/api/admin/programs/2031/active", `{"isActive":false}`, http.StatusNotFound, "not_found"},
		{"toggle without flag", http.MethodPut, "/api/admin/programs/2025/active", `{}`, http.StatusBadRequest, "validation_failure"},
		{"unknown route", http.MethodGet, "/api/nothing-here", "", http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body, admin)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			var body errorBody
			decodeBody(t, rec, &body)
			if body.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.wantKind)
			}
		})
	}
}

func TestAPI_EventLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, admin)

	rec := s.do(t, http.MethodPost, "/api/admin/programs/2025/events", `{"title":"Assemblea","date":"2025-03-01","type":"riunione"}`, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view struct {
		Events []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"events"`
	}
	decodeBody(t, rec, &view)
	if len(view.Events) != 2 {
		t.Fatalf("events = %d, want 2", len(view.Events))
	}
	id := view.Events[1].ID

	rec = s.do(t, http.MethodPatch, "/api/admin/programs/2025/events/"+id, `{"title":"Assemblea annuale"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Assemblea annuale") {
		t.Errorf("update body missing new title: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodDelete, "/api/admin/programs/2025/events/"+id, "", admin)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodDelete, "/api/admin/programs/2025/events/"+id, "", admin)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}

	rec = s.do(t, http.MethodPut, "/api/admin/programs/2025/active", `{"isActive":false}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/programs/2025", "", nil)
	var got struct {
		IsActive bool `json:"isActive"`
	}
	decodeBody(t, rec, &got)
	if got.IsActive {
		t.Error("program still active after toggle")
	}
}

func TestAPI_AdminGating(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		cookie *http.Cookie
		want   int
	}{
		{"anonymous api", http.MethodPost, "/api/admin/programs", nil, http.StatusUnauthorized},
		{"member api", http.MethodPost, "/api/admin/programs", sessionCookie(t, "user"), http.StatusForbidden},
		{"member users list", http.MethodGet, "/api/admin/users", sessionCookie(t, "user"), http.StatusForbidden},
		{"anonymous admin page", http.MethodGet, "/admin/program", nil, http.StatusSeeOther},
		{"member admin page", http.MethodGet, "/admin/program", sessionCookie(t, "user"), http.StatusForbidden},
		{"admin page", http.MethodGet, "/admin/program", sessionCookie(t, "admin"), http.StatusOK},
		{"anonymous profile", http.MethodGet, "/api/profile", nil, http.StatusUnauthorized},
		{"member profile", http.MethodGet, "/api/profile", sessionCookie(t, "user"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := ""
			if tt.method == http.MethodPost {
				body = createProgram2025
			}
			rec := s.do(t, tt.method, tt.path, body, tt.cookie)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestProgramPDF(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, sessionCookie(t, "admin"))

	rec := s.do(t, http.MethodGet, "/program/2025/pdf", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "moto-club-program-2025.pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}

	if rec := s.do(t, http.MethodGet, "/program/2030/pdf", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing year status = %d, want 404", rec.Code)
	}
}

func TestProgramPage_InvalidatedByWrite(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, admin)

	rec := s.do(t, http.MethodGet, "/program?year=2025", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("X-View-Cache") != "miss" {
		t.Fatalf("first render: status %d cache %q", rec.Code, rec.Header().Get("X-View-Cache"))
	}
	if !strings.Contains(rec.Body.String(), "Giro dei Laghi") || !strings.Contains(rec.Body.String(), "Luglio") {
		t.Errorf("page missing event or month heading")
	}
	rec = s.do(t, http.MethodGet, "/program?year=2025", "", nil)
	if rec.Header().Get("X-View-Cache") != "hit" {
		t.Fatalf("second render cache = %q, want hit", rec.Header().Get("X-View-Cache"))
	}

	s.do(t, http.MethodPost, "/api/admin/programs/2025/events", `{"title":"Raduno d'Autunno","date":"2025-10-04"}`, admin)

	rec = s.do(t, http.MethodGet, "/program?year=2025", "", nil)
	if rec.Header().Get("X-View-Cache") != "miss" {
		t.Fatalf("after write cache = %q, want miss", rec.Header().Get("X-View-Cache"))
	}
	if !strings.Contains(rec.Body.String(), "Ottobre") {
		t.Error("re-rendered page missing the new month")
	}
}

func TestHome_ShowsUpcomingProgramEvents(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	s.do(t, http.MethodPost, "/api/admin/programs", `{"year":2025,"event":{"title":"Uscita passata","date":"2025-05-31"}}`, admin)
	for _, body := range []string{
		`{"title":"Oggi in sella","date":"2025-06-01"}`,
		`{"title":"Passo dello Stelvio","date":"2025-06-20"}`,
		`{"title":"Dolomiti","date":"2025-08-15"}`,
		`{"title":"Chiusura stagione","date":"2025-11-02"}`,
	} {
		s.do(t, http.MethodPost, "/api/admin/programs/2025/events", body, admin)
	}

	rec := s.do(t, http.MethodGet, "/api/home/upcoming", "", nil)
	var events []struct {
		Title string `json:"title"`
	}
	decodeBody(t, rec, &events)
	want := []string{"Oggi in sella", "Passo dello Stelvio", "Dolomiti"}
	if len(events) != len(want) {
		t.Fatalf("upcoming = %+v, want %v", events, want)
	}
	for i, title := range want {
		if events[i].Title != title {
			t.Errorf("upcoming[%d] = %q, want %q", i, events[i].Title, title)
		}
	}

	rec = s.do(t, http.MethodGet, "/", "", nil)
	page := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(page, "Oggi in sella") || strings.Contains(page, "Uscita passata") {
		t.Errorf("home page status %d does not list the right events", rec.Code)
	}
}

func TestProgramPage_DegradesWhenStoreDown(t *testing.T) {
	s := newTestServer(t)
	s.db.Close()

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/program?year=2025", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want degraded 200", rec.Code)
		}
		if rec.Header().Get("Cache-Control") != "no-store" {
			t.Errorf("Cache-Control = %q, want no-store", rec.Header().Get("Cache-Control"))
		}
		if rec.Header().Get("X-View-Cache") != "miss" {
			t.Errorf("request %d served from cache", i)
		}
	}

	rec := s.do(t, http.MethodGet, "/api/programs", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("api status = %d, want 503", rec.Code)
	}
}

func TestAPI_SignupLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/auth/signup", `{"name":"Valentina","email":"vale@motoclub.it","password":"segreto46","confirmPassword":"segreto46"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	decodeBody(t, rec, &resp)
	if resp.Role != "user" || resp.Email != "vale@motoclub.it" {
		t.Errorf("signup response = %+v", resp)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/signup", `{"name":"Valentina","email":"vale@motoclub.it","password":"segreto46","confirmPassword":"segreto46"}`, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"vale@motoclub.it","password":"sbagliata"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/auth/login", `{"email":"vale@motoclub.it","password":"segreto46"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login did not set a session cookie")
	}
	rec = s.do(t, http.MethodGet, "/api/profile", "", cookie)
	decodeBody(t, rec, &resp)
	if resp.Name != "Valentina" {
		t.Errorf("profile name = %q", resp.Name)
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
	s.do(t, http.MethodGet, "/api/programs", "", nil)
	rec := s.do(t, http.MethodGet, "/metrics", "", nil)
	if !strings.Contains(rec.Body.String(), "motoclub_http_request_duration_seconds") {
		t.Error("metrics output missing request histogram")
	}
}

func TestNotFoundPage(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/nowhere", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestAdminUsersPage_Paginates(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 12; i++ {
		body := `{"name":"Socio ` + string(rune('A'+i)) + `","email":"socio` + string(rune('a'+i)) + `@motoclub.it","password":"segreto46","confirmPassword":"segreto46"}`
		if rec := s.do(t, http.MethodPost, "/api/auth/signup", body, nil); rec.Code != http.StatusCreated {
			t.Fatalf("signup %d status = %d", i, rec.Code)
		}
	}

	admin := sessionCookie(t, "admin")
	rec := s.do(t, http.MethodGet, "/admin/users?per_page=10", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "1-10 di 12") {
		t.Error("first page summary missing")
	}
	rec = s.do(t, http.MethodGet, "/admin/users?per_page=10&page=2", "", admin)
	if !strings.Contains(rec.Body.String(), "11-12 di 12") {
		t.Error("second page summary missing")
	}
	rec = s.do(t, http.MethodGet, "/admin/users?role=admin", "", admin)
	if !strings.Contains(rec.Body.String(), "0-0 di 0") {
		t.Error("role filter not applied")
	}
}

func TestProgramPage_HidesInactiveProgram(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	s.do(t, http.MethodPost, "/api/admin/programs", createProgram2025, admin)

	rec := s.do(t, http.MethodGet, "/program?year=2025", "", nil)
	if !strings.Contains(rec.Body.String(), "Giro dei Laghi") {
		t.Fatal("active program not rendered")
	}

	if rec := s.do(t, http.MethodPut, "/api/admin/programs/2025/active", `{"isActive":false}`, admin); rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/program?year=2025", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "Giro dei Laghi") {
		t.Error("inactive program rendered on the public page")
	}
	if !strings.Contains(body, "Programma Non Disponibile") {
		t.Error("unavailable state not rendered")
	}
	if strings.Contains(body, `href="/program?year=2025"`) {
		t.Error("inactive year listed in the year navigation")
	}
	if rec := s.do(t, http.MethodGet, "/program/2025/pdf", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("pdf status = %d, want 404", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/programs/2025/months", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("months status = %d, want 404", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/admin/program?year=2025", "", admin)
	if !strings.Contains(rec.Body.String(), "Giro dei Laghi") {
		t.Error("admin page must still list the inactive program")
	}
}

func TestAPI_ReplaceProgramEvent(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	s.do(t, http.MethodPost, "/api/admin/programs",
		`{"year":2025,"event":{"title":"Raduno","date":"2025-07-10","endDate":"2025-07-12","maxParticipants":20}}`, admin)
	id := programEvents(t, s, 2025)[0].ID

	rec := s.do(t, http.MethodPut, "/api/admin/programs/2025/events/"+id, `{"title":"Raduno estivo","date":"2025-07-11"}`, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := programEvents(t, s, 2025)[0]
	if got.ID != id || got.Title != "Raduno estivo" || got.EndDate != "" || got.MaxParticipants != nil {
		t.Errorf("event = %+v", got)
	}

	rec = s.do(t, http.MethodPatch, "/api/admin/programs/2025/events/"+id, `{"endDate":""}`, admin)
	if rec.Code != http.StatusOK {
		t.Errorf("patch with empty endDate status = %d, body %s", rec.Code, rec.Body.String())
	}
}

type eventJSON struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Date            string `json:"date"`
	EndDate         string `json:"endDate"`
	MaxParticipants *int   `json:"maxParticipants"`
}

func programEvents(t *testing.T, s *testServer, year int) []eventJSON {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/programs/"+strconv.Itoa(year), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get program status = %d", rec.Code)
	}
	var view struct {
		Events []eventJSON `json:"events"`
	}
	decodeBody(t, rec, &view)
	return view.Events
}

var csrfFieldRE = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// formSession holds what a browser keeps between an admin page load and a form post.
type formSession struct {
	token   string
	cookies []*http.Cookie
}

// adminForm loads the admin program page to obtain a CSRF token and cookie.
func (s *testServer) adminForm(t *testing.T, admin *http.Cookie) formSession {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/admin/program", "", admin)
	m := csrfFieldRE.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatalf("no csrf field on admin page: %s", rec.Body.String())
	}
	return formSession{token: m[1], cookies: append(rec.Result().Cookies(), admin)}
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values, fs formSession) *httptest.ResponseRecorder {
	t.Helper()
	if fs.token != "" {
		form.Set("gorilla.csrf.Token", fs.token)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range fs.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	viewCache.Wait()
	return rec
}

func eventForm(title, date, endDate, capacity string) url.Values {
	return url.Values{
		"title":           {title},
		"date":            {date},
		"endDate":         {endDate},
		"time":            {""},
		"location":        {"Bormio"},
		"description":     {""},
		"type":            {"gita"},
		"status":          {"programmato"},
		"maxParticipants": {capacity},
		"organizer":       {""},
		"memberName":      {""},
	}
}

func TestAdminForms_ProgramLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")
	fs := s.adminForm(t, admin)

	create := eventForm("Giro di Primavera", "2025-03-08", "", "")
	create.Set("year", "2025")
	rec := s.postForm(t, "/admin/program", create, fs)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/program?year=2025" {
		t.Fatalf("create: status %d location %q body %s", rec.Code, rec.Header().Get("Location"), rec.Body.String())
	}

	rec = s.postForm(t, "/admin/program/2025/events", eventForm("Raduno", "2025-07-10", "2025-07-12", "20"), fs)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add: status %d body %s", rec.Code, rec.Body.String())
	}
	events := programEvents(t, s, 2025)
	if len(events) != 2 || events[1].MaxParticipants == nil || *events[1].MaxParticipants != 20 {
		t.Fatalf("events after add = %+v", events)
	}
	single, multi := events[0], events[1]
	if rec := s.do(t, http.MethodGet, "/program?year=2025", "", nil); !strings.Contains(rec.Body.String(), "Più giorni") {
		t.Error("multi-day event not marked on the public page")
	}

	// Single-day event edited with a blank end date.
	rec = s.postForm(t, "/admin/program/2025/events/"+single.ID, eventForm("Giro di Primavera lungo", "2025-03-08", "", ""), fs)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit single-day: status %d body %s", rec.Code, rec.Body.String())
	}

	// Blank end date and capacity clear the stored values.
	rec = s.postForm(t, "/admin/program/2025/events/"+multi.ID, eventForm("Raduno", "2025-07-10", "", ""), fs)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("edit multi-day: status %d body %s", rec.Code, rec.Body.String())
	}
	events = programEvents(t, s, 2025)
	if events[0].Title != "Giro di Primavera lungo" {
		t.Errorf("title not updated: %+v", events[0])
	}
	if events[1].ID != multi.ID || events[1].EndDate != "" || events[1].MaxParticipants != nil {
		t.Errorf("edited event = %+v, want end date and capacity cleared", events[1])
	}

	rec = s.postForm(t, "/admin/program/2025/events/"+multi.ID, eventForm("Raduno", "2025-07-10", "2025-07-01", ""), fs)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid edit status = %d, want 422", rec.Code)
	}

	rec = s.postForm(t, "/admin/program/2025/events/"+multi.ID+"/delete", url.Values{}, fs)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body.String())
	}
	if events := programEvents(t, s, 2025); len(events) != 1 || events[0].ID != single.ID {
		t.Errorf("events after delete = %+v", events)
	}

	rec = s.postForm(t, "/admin/program/2025/active", url.Values{"isActive": {"false"}}, fs)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("toggle: status %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/program?year=2025", "", nil); !strings.Contains(rec.Body.String(), "Programma Non Disponibile") {
		t.Error("public page still shows the deactivated program")
	}
}

func TestAdminForms_RejectMissingCSRFToken(t *testing.T) {
	s := newTestServer(t)
	admin := sessionCookie(t, "admin")

	create := eventForm("Giro di Primavera", "2025-03-08", "", "")
	create.Set("year", "2025")
	rec := s.postForm(t, "/admin/program", create, formSession{cookies: []*http.Cookie{admin}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/programs/2025", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("program created without a token: status %d", rec.Code)
	}
}
