// Package profiling records nested timing spans of an upload run.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	profiler *Profiler
}

func (s *span) Stop() {
	s.profiler.endSpan(s)
}

// Profiler keeps a tree of spans. Spans nest in the order they are started,
// so a Profiler follows one goroutine.
type Profiler struct {
	mu    sync.Mutex
	root  *span
	stack []*span
}

// New returns a profiler whose root span starts now.
func New() *Profiler {
	p := &Profiler{}
	p.root = &span{name: "total", start: time.Now(), profiler: p}
	p.stack = []*span{p.root}
	return p
}

var (
	defaultMu       sync.Mutex
	defaultProfiler *Profiler
)

// Enable turns on the global profiler.
func Enable() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultProfiler == nil {
		defaultProfiler = New()
	}
}

// Disable drops the global profiler and its spans.
func Disable() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultProfiler = nil
}

// Start begins a span on the global profiler. It is a no-op when disabled.
func Start(format string, args ...interface{}) Stopper {
	defaultMu.Lock()
	p := defaultProfiler
	defaultMu.Unlock()

	if p == nil {
		return noopStopper{}
	}
	return p.Start(fmt.Sprintf(format, args...))
}

// Summarize writes the global span tree to w.
func Summarize(w io.Writer) {
	defaultMu.Lock()
	p := defaultProfiler
	defaultMu.Unlock()

	if p != nil {
		p.Summarize(w)
	}
}

// Start begins a span nested in the innermost running one.
func (p *Profiler) Start(name string) Stopper {
	p.mu.Lock()
	defer p.mu.Unlock()

	parent := p.stack[len(p.stack)-1]
	s := &span{name: name, start: time.Now(), profiler: p}
	parent.children = append(parent.children, s)
	p.stack = append(p.stack, s)
	return s
}

func (p *Profiler) endSpan(s *span) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s.duration = time.Since(s.start)
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == s {
			p.stack = p.stack[:i]
			return
		}
	}
}

// Summarize writes the span tree with each span's share of the total.
func (p *Profiler) Summarize(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	total := time.Since(p.root.start)
	fmt.Fprintln(w, "\n--- Timing Profile ---")
	for _, child := range p.root.children {
		printSpan(w, child, 0, total)
	}
	fmt.Fprintf(w, "total %v\n", total.Round(time.Millisecond))
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(time.Millisecond), percentage)
	for _, child := range s.children {
		printSpan(w, child, depth+1, total)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
