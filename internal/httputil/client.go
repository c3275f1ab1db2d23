package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// HTTPClient is the subset of *http.Client used by outbound callers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HandlerClient serves requests in-process through Handler. It lets
// callers talk to a server mux without opening a socket.
type HandlerClient struct {
	Handler http.Handler
}

// Do runs req against the handler and returns the recorded response.
func (c HandlerClient) Do(req *http.Request) (*http.Response, error) {
	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	resp := w.Result()
	resp.Request = req
	return resp, nil
}

// MockResponse is one canned reply.
type MockResponse struct {
	StatusCode int
	Body       string
	Header     http.Header
	Err        error
}

// MockHTTPClient replays queued responses in order and records every
// request it sees. Once the queue is empty it answers 200 with no body.
type MockHTTPClient struct {
	mu       sync.Mutex
	queue    []MockResponse
	requests []*http.Request
	bodies   [][]byte
}

// NewMockHTTPClient returns an empty mock.
func NewMockHTTPClient() *MockHTTPClient { return &MockHTTPClient{} }

// AddResponse queues a reply.
func (m *MockHTTPClient) AddResponse(status int, body string) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, MockResponse{StatusCode: status, Body: body})
	return m
}

// AddErrorResponse queues a transport failure.
func (m *MockHTTPClient) AddErrorResponse(err error) *MockHTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, MockResponse{Err: err})
	return m
}

// Do records req, draining its body, and pops the next reply.
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)

	next := MockResponse{StatusCode: http.StatusOK}
	if len(m.queue) > 0 {
		next, m.queue = m.queue[0], m.queue[1:]
	}
	if next.Err != nil {
		return nil, next.Err
	}
	h := next.Header
	if h == nil {
		h = make(http.Header)
	}
	return &http.Response{
		StatusCode: next.StatusCode,
		Header:     h,
		Body:       io.NopCloser(bytes.NewBufferString(next.Body)),
		Request:    req,
	}, nil
}

// Request returns the nth recorded request and its body, or nil.
func (m *MockHTTPClient) Request(n int) (*http.Request, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.requests) {
		return nil, nil
	}
	return m.requests[n], m.bodies[n]
}

// RequestCount returns how many requests were made.
func (m *MockHTTPClient) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
