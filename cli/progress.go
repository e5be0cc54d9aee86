package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
)

// ProgressBar draws the transfer of one file at a time on a single line.
type ProgressBar struct {
	mu      sync.Mutex
	out     io.Writer
	bar     progress.Model
	enabled bool

	name  string
	total int64
	sent  int64
}

// NewProgressBar creates a bar writing to out. A disabled bar draws nothing,
// which keeps redirected output free of carriage returns.
func NewProgressBar(out io.Writer, enabled bool) *ProgressBar {
	return &ProgressBar{
		out:     out,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		enabled: enabled,
	}
}

// Start begins a new file.
func (p *ProgressBar) Start(name string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.name, p.total, p.sent = name, total, 0
	p.render()
}

// Add records n more bytes sent.
func (p *ProgressBar) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sent += n
	p.render()
}

// Done ends the current line.
func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		fmt.Fprintln(p.out)
	}
}

// Percent is the completed share of the current file.
func (p *ProgressBar) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent()
}

func (p *ProgressBar) percent() float64 {
	if p.total <= 0 {
		return 1
	}
	pct := float64(p.sent) / float64(p.total)
	if pct > 1 {
		pct = 1
	}
	return pct
}

func (p *ProgressBar) render() {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.out, "\rUploading %s %s", p.name, p.bar.ViewAs(p.percent()))
}
