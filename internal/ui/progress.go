package ui

import (
	"fmt"
	"io"
	"sync"
)

// Progress prints one numbered line per completed step.
type Progress struct {
	out   io.Writer
	total int
	n     int
	mu    sync.Mutex
}

// NewProgress creates a progress tracker for total steps.
func NewProgress(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

// Done marks one step as completed and prints the current progress.
func (p *Progress) Done(label string) {
	p.step(OK.Render("✓"), label)
}

// Skip marks one step as skipped.
func (p *Progress) Skip(label string) {
	p.step(Dim.Render("-"), Dim.Render(label))
}

func (p *Progress) step(mark, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	_, _ = fmt.Fprintf(p.out, "[%d/%d] %s %s\n", p.n, p.total, mark, label)
}

// Log prints an informational message within the progress context.
func (p *Progress) Log(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}
