package web

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"motoclub/internal/adapters/email"
	"motoclub/internal/adapters/http/middleware"
	"motoclub/internal/adapters/http/perf"
	"motoclub/internal/adapters/http/viewcache"
	accountStore "motoclub/internal/adapters/storage/account"
	galleryStore "motoclub/internal/adapters/storage/gallery"
	programStore "motoclub/internal/adapters/storage/program"
	siteSettingStore "motoclub/internal/adapters/storage/sitesetting"
	"motoclub/internal/authz"
	"motoclub/internal/logging"
)

// Stores holds all storage dependencies.
type Stores struct {
	ProgramStore  programStore.Store
	GalleryStore  galleryStore.Store
	AccountStore  accountStore.Store
	SettingsStore siteSettingStore.Store
}

// Options configures the router.
type Options struct {
	StaticDir          string
	JWTSecret          string
	SessionLifetime    time.Duration
	CSRFKey            string // 64 hex characters; random per process when empty outside production
	Production         bool
	TrustedOrigins     []string
	RateLimitPerMinute int
	SlowRequestMs      int
	Collector          *perf.Collector
	ViewCache          *viewcache.Cache
	EmailSender        email.Sender
	ContactTo          []string
}

// Global stores instance (set by NewRouter)
var stores *Stores

// Global session manager instance
var sessions *middleware.SessionManager

// Global route policy
var enforcer *authz.Enforcer

// Global page cache; doubles as the invalidator handed to the orchestrators.
var viewCache *viewcache.Cache

// Global perf collector (set by NewRouter)
var perfCollector *perf.Collector

// Global email sender instance and contact inbox
var emailSender email.Sender
var contactTo []string

// secureCookies marks cookies Secure in production.
var secureCookies bool

// loadCSRFKey decodes the hex CSRF secret. Outside production a random key is generated per startup.
func loadCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("csrf key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("csrf key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate CSRF key: %w", err)
	}
	logging.Warn().Msg("using random CSRF key (form tokens won't survive restart); set auth.csrf_key for production")
	return key, nil
}

// NewRouter wires HTTP handlers for the app.
// PRE: s has every store set; opts.JWTSecret non-empty
func NewRouter(s *Stores, opts Options) (http.Handler, error) {
	var err error
	stores = s
	perfCollector = opts.Collector
	emailSender = opts.EmailSender
	if emailSender == nil {
		emailSender = email.NewNoopSender()
	}
	contactTo = opts.ContactTo
	secureCookies = opts.Production

	sessions, err = middleware.NewSessionManager(opts.JWTSecret, opts.SessionLifetime)
	if err != nil {
		return nil, err
	}
	enforcer, err = authz.NewEnforcer()
	if err != nil {
		return nil, err
	}
	viewCache = opts.ViewCache
	if viewCache == nil {
		viewCache, err = viewcache.New(0, 0, opts.Collector)
		if err != nil {
			return nil, err
		}
	}
	csrfKey, err := loadCSRFKey(opts.CSRFKey, opts.Production)
	if err != nil {
		return nil, err
	}

	router := routes(opts.StaticDir, opts.Collector, opts.SlowRequestMs)

	// SecurityHeaders -> RateLimit -> Auth -> CSRF -> router (Timing runs inside the router)
	return middleware.Chain(router,
		middleware.CSRF(csrfKey, opts.Production, opts.TrustedOrigins),
		middleware.Auth(sessions),
		middleware.RateLimit(opts.RateLimitPerMinute, time.Minute),
		middleware.SecurityHeaders,
	), nil
}
