package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/scan2bim/internal/bim/ingest"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/fsutil"
	"github.com/banshee-data/scan2bim/internal/httputil"
	"github.com/banshee-data/scan2bim/internal/jobs"
	"github.com/banshee-data/scan2bim/internal/monitoring"
	"github.com/banshee-data/scan2bim/internal/security"
	"github.com/banshee-data/scan2bim/internal/version"
)

// ifcNamespace seeds per-job IFC GlobalId namespaces so repeated exports of
// one revision are byte-stable.
var ifcNamespace = uuid.MustParse("5c2b1f0e-8a4d-4d0b-9a57-3f1e2c6b7d10")

type uploadResponse struct {
	TaskID   string      `json:"task_id"`
	Filename string      `json:"filename"`
	Status   jobs.Status `json:"status"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"message": "scan2bim point cloud to BIM service",
		"version": version.Version,
		"status":  "running",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		httputil.BadRequest(w, "expected multipart/form-data body")
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			httputil.BadRequest(w, "missing file field")
			return
		}
		if err != nil {
			httputil.BadRequest(w, fmt.Sprintf("reading multipart body: %v", err))
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		s.saveUpload(w, r, part.FileName(), part)
		part.Close()
		return
	}
}

func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, name string, body io.Reader) {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		httputil.BadRequest(w, "missing file name")
		return
	}
	if !ingest.Supported(name) {
		httputil.BadRequest(w, fmt.Sprintf("unsupported file type %q (accepted: %s)",
			filepath.Ext(name), strings.Join(ingest.SupportedExtensions, ", ")))
		return
	}

	id := jobs.NewID()
	path, n, err := s.artifacts.SaveUpload(id, name, body, s.maxUpload)
	if errors.Is(err, fsutil.ErrTooLarge) {
		httputil.WriteJSONError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		monitoring.JobEventf(id, "saving upload: %v", err)
		httputil.InternalServerError(w, "failed to store upload")
		return
	}

	j := &jobs.Job{ID: id, Filename: name, UploadPath: path, SizeBytes: n}
	if err := s.store.Create(r.Context(), j); err != nil {
		_ = s.artifacts.Remove(id)
		monitoring.JobEventf(id, "recording upload: %v", err)
		httputil.InternalServerError(w, "failed to record upload")
		return
	}
	monitoring.JobEventf(id, "uploaded %s (%d bytes)", name, n)
	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{TaskID: id, Filename: name, Status: j.Status})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}
	list, err := s.store.List(r.Context(), jobs.Status(r.URL.Query().Get("status")), limit)
	if err != nil {
		monitoring.Logf("api: listing jobs: %v", err)
		httputil.InternalServerError(w, "failed to list jobs")
		return
	}
	if list == nil {
		list = []*jobs.Job{}
	}
	httputil.WriteJSONOK(w, list)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	httputil.WriteJSONOK(w, j)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	j, err := s.runner.Submit(r.Context(), id)
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	s.dropExports(id)
	httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
		"task_id": j.ID,
		"status":  j.Status,
		"message": "processing started",
	})
}

// modelResult looks up a job's model and writes the error response when
// there is none. ok is false when a response has been written.
func (s *Server) modelResult(w http.ResponseWriter, r *http.Request) (jobs.ModelResult, bool) {
	mr, err := s.store.Model(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeJobError(w, err)
		return mr, false
	}
	if err := mr.Err(); err != nil {
		s.writeJobError(w, err)
		return mr, false
	}
	return mr, true
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	mr, ok := s.modelResult(w, r)
	if !ok {
		return
	}
	httputil.WriteJSONOK(w, mr.Model())
}

func (s *Server) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := model.DecodePatch(http.MaxBytesReader(w, r.Body, maxPatchBytes))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	mr, err := s.store.UpdateModel(r.Context(), id, p)
	if errors.Is(err, jobs.ErrInvalidPatch) {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		s.writeJobError(w, err)
		return
	}
	if err := mr.Err(); err != nil {
		s.writeJobError(w, err)
		return
	}
	s.dropExports(id)
	monitoring.JobEventf(id, "model updated to revision %d (%s)", mr.Job.Revision, strings.Join(p.Fields(), ", "))
	httputil.WriteJSONOK(w, map[string]any{
		"task_id":  id,
		"revision": mr.Job.Revision,
		"updated":  p.Fields(),
		"model":    mr.Model(),
	})
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeJobError(w, err)
		return
	}
	edits, err := s.store.Edits(r.Context(), id)
	if err != nil {
		monitoring.JobEventf(id, "listing edits: %v", err)
		httputil.InternalServerError(w, "failed to list edits")
		return
	}
	if edits == nil {
		edits = []jobs.Edit{}
	}
	httputil.WriteJSONOK(w, edits)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := pipeline.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	mr, ok := s.modelResult(w, r)
	if !ok {
		return
	}
	body, err := s.render(mr, f)
	if err != nil {
		monitoring.JobEventf(mr.Job.ID, "export %s: %v", f, err)
		httputil.InternalServerError(w, fmt.Sprintf("export failed: %v", err))
		return
	}
	name := exportName(mr.Job, f)
	w.Header().Set("Content-Type", f.MediaType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	mr, ok := s.modelResult(w, r)
	if !ok {
		return
	}
	body, err := s.render(mr, pipeline.FormatHTML)
	if err != nil {
		monitoring.JobEventf(mr.Job.ID, "report: %v", err)
		httputil.InternalServerError(w, "report failed")
		return
	}
	w.Header().Set("Content-Type", pipeline.FormatHTML.MediaType())
	_, _ = w.Write(body)
}

// render encodes a job's model, reusing the cached artifact when one
// exists for the current revision.
func (s *Server) render(mr jobs.ModelResult, f pipeline.Format) ([]byte, error) {
	id := mr.Job.ID
	path := s.artifacts.ExportPath(id, mr.Job.Revision, f.Extension())
	fsys := s.artifacts.FS
	if fsys.Exists(path) {
		if b, err := fsys.ReadFile(path); err == nil {
			return b, nil
		}
	}

	opts := s.export
	opts.Title = mr.Job.Filename
	opts.Profile = &mr.Result.Profile
	opts.IFC.FileName = exportName(mr.Job, pipeline.FormatIFC)
	opts.IFC.Namespace = uuid.NewSHA1(ifcNamespace, []byte(fmt.Sprintf("%s/%d", id, mr.Job.Revision)))
	var buf bytes.Buffer
	if err := pipeline.Export(&buf, f, mr.Model(), opts); err != nil {
		return nil, err
	}
	if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		monitoring.JobEventf(id, "caching %s export: %v", f, err)
	}
	return buf.Bytes(), nil
}

// exportName is the download name of a job's export: the upload's base
// name with the format's extension.
func exportName(j *jobs.Job, f pipeline.Format) string {
	base := strings.TrimSuffix(j.Filename, filepath.Ext(j.Filename))
	return security.SanitizeFilename(base) + f.Extension()
}

// dropExports discards cached exports of superseded revisions after the
// model changes. Exports are cached per revision, so an export rendered
// concurrently for an older revision is never served for a newer one.
func (s *Server) dropExports(id string) {
	if err := s.artifacts.PruneExports(id); err != nil {
		monitoring.JobEventf(id, "dropping cached exports: %v", err)
	}
}

func (s *Server) writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, jobs.ErrNotReady), errors.Is(err, jobs.ErrProcessing):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrStopped):
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		monitoring.Logf("api: %v", err)
		httputil.InternalServerError(w, "internal error")
	}
}
