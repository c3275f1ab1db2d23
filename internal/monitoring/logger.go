// Package monitoring is the service log shared by the HTTP layer and the
// job workers. Conversion internals log through the bim streams instead.
package monitoring

import (
	"fmt"
	"log"
	"sync"
)

var (
	mu   sync.RWMutex
	logf = log.Printf
)

// SetLogger replaces the service logger. nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	logf = f
}

// Logf writes one service log line.
func Logf(format string, v ...interface{}) {
	mu.RLock()
	f := logf
	mu.RUnlock()
	f(format, v...)
}

// JobEventf logs a line tagged with a job id.
func JobEventf(jobID, format string, v ...interface{}) {
	Logf("[job %s] %s", jobID, fmt.Sprintf(format, v...))
}
