package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, "job not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "job not found" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestHelpersStatus(t *testing.T) {
	cases := []struct {
		fn   func(http.ResponseWriter)
		want int
	}{
		{func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest},
		{func(w http.ResponseWriter) { Conflict(w, "x") }, http.StatusConflict},
		{func(w http.ResponseWriter) { InternalServerError(w, "x") }, http.StatusInternalServerError},
		{MethodNotAllowed, http.StatusMethodNotAllowed},
		{func(w http.ResponseWriter) { WriteJSONOK(w, map[string]int{"a": 1}) }, http.StatusOK},
	}
	for i, tc := range cases {
		w := httptest.NewRecorder()
		tc.fn(w)
		if w.Code != tc.want {
			t.Errorf("case %d: status = %d, want %d", i, w.Code, tc.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := DecodeJSON(strings.NewReader(`{"name":"a"}`), &v, 1024); err != nil || v.Name != "a" {
		t.Errorf("got %+v, %v", v, err)
	}
	if err := DecodeJSON(strings.NewReader(`{"other":1}`), &v, 1024); err == nil {
		t.Error("unknown field accepted")
	}
	if err := DecodeJSON(strings.NewReader(``), &v, 1024); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("empty body: %v", err)
	}
	if err := DecodeJSON(strings.NewReader(`{"name":"abcdef"}`), &v, 5); err == nil {
		t.Error("oversized body accepted")
	}
}

func TestReadError(t *testing.T) {
	w := httptest.NewRecorder()
	Conflict(w, "job is processing")
	err := ReadError(w.Result())
	if err == nil || !strings.Contains(err.Error(), "job is processing") {
		t.Errorf("err = %v", err)
	}

	w = httptest.NewRecorder()
	w.WriteHeader(http.StatusBadGateway)
	if err := ReadError(w.Result()); err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v", err)
	}
}

func TestMockHTTPClient(t *testing.T) {
	m := NewMockHTTPClient().
		AddResponse(http.StatusCreated, `{"id":"1"}`).
		AddErrorResponse(errors.New("refused"))

	req, _ := http.NewRequest(http.MethodPost, "http://x/api", strings.NewReader("payload"))
	resp, err := m.Do(req)
	if err != nil || resp.StatusCode != http.StatusCreated {
		t.Fatalf("first: %v %v", resp, err)
	}
	_, body := m.Request(0)
	if string(body) != "payload" {
		t.Errorf("recorded body = %q", body)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://x/api", nil)
	if _, err := m.Do(req); err == nil {
		t.Error("expected queued error")
	}
	resp, err = m.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Errorf("default reply: %v %v", resp, err)
	}
	if m.RequestCount() != 3 {
		t.Errorf("count = %d", m.RequestCount())
	}
	if r, _ := m.Request(7); r != nil {
		t.Error("out of range request returned")
	}
}

func TestHandlerClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) { WriteJSONOK(w, "pong") })
	c := HandlerClient{Handler: mux}

	req, _ := http.NewRequest(http.MethodGet, "http://local/ping", nil)
	resp, err := c.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("%v %v", resp, err)
	}
}
