package fsutil

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/scan2bim/internal/security"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Artifacts lays out per-job files under a root directory:
//
//	<root>/jobs/<id>/upload<ext>
//	<root>/jobs/<id>/model<ext>
type Artifacts struct {
	FS   FileSystem
	Root string
}

// NewArtifacts returns a store rooted at root.
func NewArtifacts(fsys FileSystem, root string) *Artifacts {
	return &Artifacts{FS: fsys, Root: filepath.Clean(root)}
}

// JobDir returns the directory holding a job's files.
func (a *Artifacts) JobDir(id string) string {
	return filepath.Join(a.Root, "jobs", security.SanitizeFilename(id))
}

// UploadPath returns where the scan for job id is kept. Only the extension
// of the client supplied name is used.
func (a *Artifacts) UploadPath(id, name string) string {
	return filepath.Join(a.JobDir(id), "upload"+cleanExt(name))
}

// ExportDir holds every cached export of job id, one directory per model
// revision.
func (a *Artifacts) ExportDir(id string) string {
	return filepath.Join(a.JobDir(id), "exports")
}

// ExportPath returns where the export with extension ext of the given model
// revision is cached.
func (a *Artifacts) ExportPath(id string, revision int, ext string) string {
	return filepath.Join(a.ExportDir(id), fmt.Sprintf("r%d", revision), "model"+cleanExt(ext))
}

// PruneExports removes every cached export of job id.
func (a *Artifacts) PruneExports(id string) error {
	return a.FS.RemoveAll(a.ExportDir(id))
}

func cleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" && strings.HasPrefix(name, ".") {
		ext = strings.ToLower(name)
	}
	if ext == "" {
		return ""
	}
	return "." + security.SanitizeFilename(strings.TrimPrefix(ext, "."))
}

// SaveUpload streams r into the upload slot for job id, failing with
// ErrTooLarge when more than limit bytes arrive. A non-positive limit
// disables the check.
func (a *Artifacts) SaveUpload(id, name string, r io.Reader, limit int64) (string, int64, error) {
	path := a.UploadPath(id, name)
	if err := a.check(path); err != nil {
		return "", 0, err
	}
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	w, err := a.FS.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := io.Copy(w, r)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = ErrTooLarge
	}
	if err != nil {
		a.Remove(id)
		return "", n, err
	}
	return path, n, nil
}

// Remove deletes every file belonging to job id.
func (a *Artifacts) Remove(id string) error {
	return a.FS.RemoveAll(a.JobDir(id))
}

// check applies the traversal guard when the store is backed by disk.
func (a *Artifacts) check(path string) error {
	if _, ok := a.FS.(OSFileSystem); !ok {
		return nil
	}
	if err := a.FS.MkdirAll(a.Root, 0o755); err != nil {
		return err
	}
	return security.ValidatePathWithinDirectory(path, a.Root)
}
