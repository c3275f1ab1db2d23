package bim

import (
	"io"
	"log"
	"sync"
)

// LogWriters holds the destination for each logging stream. A nil writer
// disables its stream.
type LogWriters struct {
	Ops   io.Writer // actionable warnings, dropped input, failed stages
	Diag  io.Writer // per-run summaries and tuning context
	Trace io.Writer // per-candidate detector decisions
}

type stream int

const (
	streamOps stream = iota
	streamDiag
	streamTrace
	numStreams
)

var (
	mu      sync.RWMutex
	loggers [numStreams]*log.Logger
)

// SetLogWriters configures all three logging streams at once.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	for s, dst := range [numStreams]io.Writer{w.Ops, w.Diag, w.Trace} {
		if dst == nil {
			loggers[s] = nil
			continue
		}
		loggers[s] = log.New(dst, "[bim] ", log.LstdFlags|log.Lmicroseconds)
	}
}

func logTo(s stream, format string, args ...interface{}) {
	mu.RLock()
	l := loggers[s]
	mu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) { logTo(streamOps, format, args...) }

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) { logTo(streamDiag, format, args...) }

// Tracef logs to the trace stream. Detectors emit one line per candidate
// here, so keep it off outside of tuning sessions.
func Tracef(format string, args ...interface{}) { logTo(streamTrace, format, args...) }
