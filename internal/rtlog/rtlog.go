// Package rtlog carries the ambient logging surface (SPEC_FULL.md §A.1):
// a minimal Logger interface in the teacher's own shape
// (pkg/core/interfaces.go's `Printf(format string, args ...interface{})`),
// satisfied by a log.Logger-backed default for CLI use and a no-op for
// the hot sampling paths and tests where formatting cost would be
// wasted.
package rtlog

import (
	"log"
	"os"
)

// Logger is the sink the BDPT/MLT drivers write progress and
// per-strategy diagnostics to, mirroring the teacher's
// BDPTIntegrator.Verbose-gated logf calls (pkg/integrator/bdpt.go).
type Logger interface {
	Printf(format string, args ...interface{})
}

// StdLogger writes to a *log.Logger, the default for cmd/rtrender.
type StdLogger struct {
	L *log.Logger
}

func NewStdLogger() *StdLogger {
	return &StdLogger{L: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *StdLogger) Printf(format string, args ...interface{}) { s.L.Printf(format, args...) }

// NoOp discards everything, for tests and the per-sample hot path when
// verbose diagnostics are off.
type NoOp struct{}

func (NoOp) Printf(format string, args ...interface{}) {}
