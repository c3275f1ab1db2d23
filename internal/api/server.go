package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/db"
	"github.com/banshee-data/scan2bim/internal/fsutil"
	"github.com/banshee-data/scan2bim/internal/jobs"
	"github.com/banshee-data/scan2bim/internal/monitoring"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxPatchBytes bounds PUT /api/model bodies.
const maxPatchBytes = 16 << 20

// Config wires a Server to its collaborators.
type Config struct {
	Store     *jobs.Store
	Runner    *jobs.Runner
	Artifacts *fsutil.Artifacts
	// DB, when set, mounts the admin routes.
	DB             *db.DB
	MaxUploadBytes int64
	Export         pipeline.ExportOptions
}

type Server struct {
	store     *jobs.Store
	runner    *jobs.Runner
	artifacts *fsutil.Artifacts
	db        *db.DB
	maxUpload int64
	export    pipeline.ExportOptions
}

func NewServer(cfg Config) *Server {
	return &Server{
		store:     cfg.Store,
		runner:    cfg.Runner,
		artifacts: cfg.Artifacts,
		db:        cfg.DB,
		maxUpload: cfg.MaxUploadBytes,
		export:    cfg.Export,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/status/{id}", s.handleStatus)
	mux.HandleFunc("POST /api/process/{id}", s.handleProcess)
	mux.HandleFunc("GET /api/model/{id}", s.handleGetModel)
	mux.HandleFunc("PUT /api/model/{id}", s.handleUpdateModel)
	mux.HandleFunc("GET /api/model/{id}/edits", s.handleEdits)
	mux.HandleFunc("GET /api/export/{id}", s.handleExport)
	mux.HandleFunc("GET /api/report/{id}", s.handleReport)
	if s.db != nil {
		s.db.AttachAdminRoutes(mux)
	}
	return mux
}
