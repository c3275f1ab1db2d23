// Package testutil provides shared test helpers and synthetic scan fixtures.
package testutil

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear fails the test if got differs from want by more than tol.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v±%v", name, got, want, tol)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, path, body)
}
