package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"clinicore.org/internal/audit"
	"clinicore.org/internal/httpapi"
	"clinicore.org/internal/obs"
	"clinicore.org/internal/rbac"
	"clinicore.org/internal/records"
)

var version = "0.3.1"

func main() {
	// Local overrides; missing .env is fine.
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("CLINICORE_COMMIT"))

	upstream := os.Getenv("CLINICORE_RECORDS_URL")
	if upstream == "" {
		upstream = "http://localhost:3000/api"
	}
	client := records.New(upstream)

	policy := rbac.Default
	if parseBool(os.Getenv("CLINICORE_STRICT_USER_TAGS")) {
		policy = rbac.Policy{StrictUserTags: true}
	}

	// Optional Postgres: durable audit trail plus a real /readyz probe.
	var db *sql.DB
	if dsn := os.Getenv("CLINICORE_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		sink := audit.NewPGSink(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sink.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("audit schema: %v", err)
		}
		cancel()
		audit.SetSink(sink)
	}

	var ready httpapi.ReadyProbe
	if db != nil {
		ready = db.PingContext
	}

	api := httpapi.New(httpapi.Config{
		Client:        client,
		Policy:        policy,
		Landing:       os.Getenv("CLINICORE_LANDING"),
		AllowedOrigin: os.Getenv("CLINICORE_CORS_ORIGIN"),
		Ready:         ready,
		Version:       version,
	})

	addr := os.Getenv("CLINICORE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting clinicore-console %s on %s (records: %s)", version, srv.Addr, upstream)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
