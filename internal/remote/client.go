// Package remote talks to a running scan2bim service over its HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/httputil"
	"github.com/banshee-data/scan2bim/internal/jobs"
	"github.com/banshee-data/scan2bim/internal/timeutil"
)

// Client submits scans and fetches results.
type Client struct {
	BaseURL      string
	HTTP         httputil.HTTPClient
	Clock        timeutil.Clock
	PollInterval time.Duration
}

// New returns a client for the service at baseURL. A nil hc uses a
// default http.Client with a one minute timeout.
func New(baseURL string, hc httputil.HTTPClient) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTP:         hc,
		Clock:        timeutil.RealClock{},
		PollInterval: time.Second,
	}
}

// Upload sends a scan file and returns the created job.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*jobs.Job, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var resp struct {
		TaskID   string      `json:"task_id"`
		Filename string      `json:"filename"`
		Status   jobs.Status `json:"status"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/upload", mw.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	return &jobs.Job{ID: resp.TaskID, Filename: resp.Filename, Status: resp.Status}, nil
}

// Process starts conversion of job id.
func (c *Client) Process(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodPost, "/api/process/"+url.PathEscape(id), "", nil, nil)
}

// Status fetches the job record.
func (c *Client) Status(ctx context.Context, id string) (*jobs.Job, error) {
	var j jobs.Job
	if err := c.call(ctx, http.MethodGet, "/api/status/"+url.PathEscape(id), "", nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Wait polls until job id leaves the processing state. A failed job is
// returned together with an error carrying its message.
func (c *Client) Wait(ctx context.Context, id string) (*jobs.Job, error) {
	for {
		j, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		switch j.Status {
		case jobs.StatusCompleted:
			return j, nil
		case jobs.StatusFailed:
			return j, fmt.Errorf("job %s failed: %s", id, j.Error)
		}
		select {
		case <-ctx.Done():
			return j, ctx.Err()
		case <-c.Clock.After(c.PollInterval):
		}
	}
}

// Model fetches the building model of a completed job.
func (c *Client) Model(ctx context.Context, id string) (*model.BuildingModel, error) {
	var m model.BuildingModel
	if err := c.call(ctx, http.MethodGet, "/api/model/"+url.PathEscape(id), "", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Export streams the job's model in format into w.
func (c *Client) Export(ctx context.Context, id, format string, w io.Writer) error {
	path := "/api/export/" + url.PathEscape(id) + "?format=" + url.QueryEscape(format)
	resp, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("downloading export: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	resp, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

// do sends a request and turns non-2xx replies into errors. 404 and 409
// map onto the job sentinels.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	rerr := httputil.ReadError(resp)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w (%v)", jobs.ErrNotFound, rerr)
	case http.StatusConflict:
		if strings.Contains(path, "/api/process/") {
			return nil, fmt.Errorf("%w (%v)", jobs.ErrProcessing, rerr)
		}
		return nil, fmt.Errorf("%w (%v)", jobs.ErrNotReady, rerr)
	}
	return nil, rerr
}

// IsNotReady reports whether err means the model is not available yet.
func IsNotReady(err error) bool { return errors.Is(err, jobs.ErrNotReady) }
