package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config carries everything the handlers need that comes from the
// environment rather than from injected dependencies.
type Config struct {
	Addr           string // e.g. ":8080"
	BaseURL        string // public base for share links, e.g. "https://drop.example.com"
	MaxUploadBytes int64  // per-file size cap
	MaxFiles       int    // max files per upload batch
	StaticDir      string // directory of the upload/download pages, "" disables
	Build          BuildInfo
}

// Server owns the HTTP listener and the dependencies the health checks
// probe directly.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	db         *sql.DB
	mc         *minio.Client
	bucket     string
	version    string
}

// New wires routes, middleware, and stores into a runnable server.
func New(cfg Config, db *sql.DB, mc *minio.Client, bucket string) *Server {
	s := &Server{
		db:      db,
		mc:      mc,
		bucket:  bucket,
		version: cfg.Build.Version,
	}

	shares := NewSQLShareStore(db)
	blobs := NewMinioBlobStore(mc, bucket)

	// Uploads and password checks are the abuse-prone endpoints; the
	// read-only endpoints stay unthrottled.
	limiter := newRateLimiter(30, time.Minute)

	mux := http.NewServeMux()
	mux.Handle("POST /upload", limiter.middleware(cfg.uploadHandler(shares, blobs)))
	mux.Handle("POST /verify", limiter.middleware(cfg.verifyHandler(shares)))
	mux.Handle("GET /download/{id}", cfg.downloadHandler(shares, blobs))
	mux.Handle("GET /fileinfo/{id}", cfg.fileinfoHandler(shares, blobs))
	mux.Handle("GET /qrcode/{id}", cfg.qrcodeHandler())

	mux.HandleFunc("GET /health", s.HandleHealth)
	mux.HandleFunc("GET /ready", s.HandleReady)
	mux.HandleFunc("GET /live", s.HandleLive)
	mux.Handle("GET /metrics", PrometheusMetricsHandler())

	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	// Wrap middleware: requestID -> logging -> security headers -> mux
	var handler http.Handler = mux
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.handler = handler
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	Info("server configured", map[string]any{
		"addr":      cfg.Addr,
		"base_url":  cfg.BaseURL,
		"max_bytes": cfg.MaxUploadBytes,
		"max_files": cfg.MaxFiles,
	})

	return s
}

// Handler exposes the full middleware-wrapped handler, mainly for tests
// that drive the server through httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
