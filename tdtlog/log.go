// Package tdtlog is the process-wide logging façade the counting
// engine logs through. It is a collaborator, never a dependency the
// core relies on: until New is called, every method is a silent
// no-op, so archetype and persist code can log unconditionally
// without checking whether a caller ever configured anything.
package tdtlog

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is the narrow interface the core depends on. Components take
// a Logger field (or accept nil) rather than reaching for a package
// global, so tests can inject a recording logger.
type Logger interface {
	Debugf(template string, args ...any)
	Warnf(template string, args ...any)
	Errorf(template string, args ...any)
	Sync() error
}

type noop struct{}

func (noop) Debugf(string, ...any) {}
func (noop) Warnf(string, ...any)  {}
func (noop) Errorf(string, ...any) {}
func (noop) Sync() error           { return nil }

// NoOp is the default Logger used wherever a caller hasn't configured
// one. Safe for concurrent use.
var NoOp Logger = noop{}

var (
	mu      sync.Mutex
	current *zap.SugaredLogger
)

// New configures the process-wide logger for the named component and
// returns a Logger scoped to it. Calling New again replaces the
// process-wide logger; this mirrors a "first configure, then log
// until process end" lifecycle and is meant to be called once, early,
// by a process embedding the engine — never by the core itself.
func New(component string) Logger {
	mu.Lock()
	defer mu.Unlock()

	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	current = base.Sugar().With("component", component)
	return sugared{current}
}

// OnExit flushes the process-wide logger's buffers. Safe to call even
// if New was never invoked.
func OnExit() {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return
	}
	_ = current.Sync()
}

type sugared struct {
	s *zap.SugaredLogger
}

func (l sugared) Debugf(template string, args ...any) { l.s.Debugf(template, args...) }
func (l sugared) Warnf(template string, args ...any)  { l.s.Warnf(template, args...) }
func (l sugared) Errorf(template string, args ...any) { l.s.Errorf(template, args...) }
func (l sugared) Sync() error                         { return l.s.Sync() }
