package db

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/scan2bim/internal/httputil"
)

// Stats summarises the database for the admin page.
type Stats struct {
	SizeBytes     int64          `json:"size_bytes"`
	SchemaVersion uint           `json:"schema_version"`
	Dirty         bool           `json:"dirty"`
	JobsByStatus  map[string]int `json:"jobs_by_status"`
	ModelEdits    int            `json:"model_edits"`
}

// Stats collects size, schema and job counts.
func (db *DB) Stats() (*Stats, error) {
	st := &Stats{JobsByStatus: map[string]int{}}

	var pages, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pages); err != nil {
		return nil, fmt.Errorf("page_count: %w", err)
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("page_size: %w", err)
	}
	st.SizeBytes = pages * pageSize

	v, dirty, err := db.MigrateVersion()
	if err != nil {
		return nil, err
	}
	st.SchemaVersion, st.Dirty = v, dirty

	rows, err := db.Query("SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		st.JobsByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if err := db.QueryRow("SELECT COUNT(*) FROM model_edits").Scan(&st.ModelEdits); err != nil {
		return nil, fmt.Errorf("count edits: %w", err)
	}
	return st, nil
}

// AttachAdminRoutes mounts the live SQL console, a stats endpoint and an
// on-demand backup under /debug.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(db.path), db.DB, &tailsql.DBOptions{
		Label: "Job DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("db-stats", "Database size, schema version and job counts", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := db.Stats()
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to get database stats: %v", err))
			return
		}
		httputil.WriteJSONOK(w, st)
	}))

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.handleBackup))
}

func (db *DB) handleBackup(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("scan2bim-backup-%d.db", time.Now().Unix())
	path := filepath.Join(os.TempDir(), name)
	if _, err := db.Exec("VACUUM INTO ?", path); err != nil {
		http.Error(w, fmt.Sprintf("failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Printf("failed to remove backup file: %v", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to open backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", name))
	w.Header().Set("Content-Type", "application/gzip")
	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, f); err != nil {
		log.Printf("backup stream failed: %v", err)
		return
	}
	if err := gz.Close(); err != nil {
		log.Printf("backup stream failed: %v", err)
	}
}
