package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"flash-drop/internal/db"
	"flash-drop/internal/server"
)

func main() {
	addr := getenvDefault("FD_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("FD_VERSION", "dev"),
		Commit:  getenvDefault("FD_COMMIT", "unknown"),
	}

	maxBytes, err := parseInt64(getenvDefault("FD_MAX_UPLOAD_BYTES", strconv.FormatInt(100<<20, 10)))
	if err != nil || maxBytes <= 0 {
		log.Printf("service=backend msg=%q", "FD_MAX_UPLOAD_BYTES must be a positive integer")
		os.Exit(1)
	}

	cfg := server.Config{
		Addr:           addr,
		BaseURL:        getenvDefault("FD_BASE_URL", "http://localhost:8080"),
		MaxUploadBytes: maxBytes,
		MaxFiles:       10,
		StaticDir:      getenvDefault("FD_STATIC_DIR", "public"),
		Build:          build,
	}

	// Database
	dsn := getenvDefault("DATABASE_URL", "")
	dbConn, err := server.OpenDB(dsn)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Run migrations
	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	// Blob storage
	mc, bucket, err := server.NewMinioClient()
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "minio_connect_failed", err)
		os.Exit(1)
	}

	srv := server.New(cfg, dbConn, mc, bucket)

	// Start the HTTP server in a background goroutine so we can listen
	// for OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (container stop).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give in-flight downloads a moment to finish.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value
// if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
