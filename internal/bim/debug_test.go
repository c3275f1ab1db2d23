package bim

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters_RoutesStreams(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &trace})
	defer SetLogWriters(LogWriters{})

	Opsf("ops %d", 1)
	Diagf("diag %d", 2)
	Tracef("trace %d", 3)

	if !strings.Contains(ops.String(), "ops 1") || !strings.Contains(ops.String(), "[bim]") {
		t.Errorf("ops stream = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "diag 2") {
		t.Errorf("diag stream = %q", diag.String())
	}
	if !strings.Contains(trace.String(), "trace 3") {
		t.Errorf("trace stream = %q", trace.String())
	}
	if strings.Contains(ops.String(), "diag") {
		t.Errorf("ops stream received diag output: %q", ops.String())
	}
}

func TestSetLogWriters_NilDisables(t *testing.T) {
	var ops bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops})
	SetLogWriters(LogWriters{})

	// Should not panic and should not write.
	Opsf("dropped")
	Diagf("dropped")
	Tracef("dropped")

	if ops.Len() != 0 {
		t.Errorf("expected no output after disabling, got %q", ops.String())
	}
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 6, 3}

	if got := b.Sub(a); got != (Vec3{3, 4, 0}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Add(b); got != (Vec3{5, 8, 6}) {
		t.Errorf("Add = %v", got)
	}
	if got := a.PlanarDistance(b); got != 5 {
		t.Errorf("PlanarDistance = %v, want 5", got)
	}
	if got := (Vec3{3, 4, 0}).Norm(); got != 5 {
		t.Errorf("Norm = %v, want 5", got)
	}
	if !a.IsFinite() {
		t.Error("expected finite vector")
	}
}
