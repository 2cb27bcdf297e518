package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	emailPkg "motoclub/internal/adapters/email"
	web "motoclub/internal/adapters/http"
	"motoclub/internal/adapters/http/perf"
	"motoclub/internal/adapters/http/viewcache"
	"motoclub/internal/adapters/storage"
	accountStore "motoclub/internal/adapters/storage/account"
	galleryStore "motoclub/internal/adapters/storage/gallery"
	programStore "motoclub/internal/adapters/storage/program"
	siteSettingStore "motoclub/internal/adapters/storage/sitesetting"
	"motoclub/internal/application/orchestrators"
	"motoclub/internal/config"
	"motoclub/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server_failed")
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("dotenv_load_failed")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// WAL mode, foreign keys and busy timeout
	dsn := cfg.Database.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	if err := db.Ping(); err != nil {
		return err
	}
	if err := storage.MigrateDB(db, cfg.Database.Path); err != nil {
		return err
	}

	collector := perf.NewCollector()
	timedDB := storage.NewTimedDB(db, collector, cfg.Perf.SlowQueryMs)

	kv, err := siteSettingStore.Open(cfg.Settings.Path)
	if err != nil {
		return err
	}
	defer kv.Close()

	acctStore := accountStore.NewSQLiteStore(timedDB)
	stores := &web.Stores{
		ProgramStore:  programStore.NewSQLiteStore(timedDB),
		GalleryStore:  galleryStore.NewSQLiteStore(timedDB),
		AccountStore:  acctStore,
		SettingsStore: siteSettingStore.NewBadgerStore(kv),
	}

	seeded, err := orchestrators.ExecuteSeedAdmin(context.Background(), orchestrators.SeedAdminInput{
		Name:     cfg.Auth.AdminName,
		Email:    cfg.Auth.AdminEmail,
		Password: cfg.Auth.AdminPassword,
	}, orchestrators.UserDeps{UserStore: acctStore, GenerateID: uuid.NewString, Now: time.Now})
	if err != nil {
		return err
	}
	if seeded {
		logging.Info().Str("email", cfg.Auth.AdminEmail).Msg("admin_seeded")
	}

	var sender emailPkg.Sender
	if cfg.Mail.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.Mail.ResendKey, cfg.Mail.From)
		logging.Info().Msg("email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			logging.Warn().Msg("mail.resend_key is not set; contact messages are not delivered")
		}
	}
	sender = emailPkg.NewBreakerSender(sender, emailPkg.DefaultBreakerConfig())

	cache, err := viewcache.New(0, viewcache.DefaultTTL, collector)
	if err != nil {
		return err
	}
	defer cache.Close()

	handler, err := web.NewRouter(stores, web.Options{
		StaticDir:          cfg.Server.StaticDir,
		JWTSecret:          jwtSecret(cfg),
		SessionLifetime:    cfg.Auth.SessionLifetime,
		CSRFKey:            cfg.Auth.CSRFKey,
		Production:         cfg.IsProduction(),
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		SlowRequestMs:      cfg.Perf.SlowRequestMs,
		Collector:          collector,
		ViewCache:          cache,
		EmailSender:        sender,
		ContactTo:          splitList(cfg.Mail.To),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("version", version).
			Str("addr", cfg.Server.Addr).
			Str("env", cfg.Server.Env).
			Int("schema", storage.LatestSchemaVersion()).
			Msg("server_starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info().Msg("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// jwtSecret returns the configured secret. Outside production an unset secret
// falls back to a fixed development value so sessions survive restarts.
func jwtSecret(cfg *config.Config) string {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret
	}
	logging.Warn().Msg("auth.jwt_secret not set; using the development secret")
	return "motoclub-development-secret"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
