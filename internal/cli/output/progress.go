package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar displays completed requests against a known total.
type ProgressBar struct {
	w       io.Writer
	title   string
	total   int64
	current int64
	width   int
	start   time.Time
	now     func() time.Time
	mu      sync.Mutex
}

// NewProgressBar creates a new progress bar for total requests.
func NewProgressBar(w io.Writer, title string, total int64) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 40,
		start: time.Now(),
		now:   time.Now,
	}
}

// Increment adds n completed requests.
func (p *ProgressBar) Increment(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	p.render()
}

// Current returns the number of completed requests.
func (p *ProgressBar) Current() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Finish renders the final state and ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		p.current = p.total
	}
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	rate := formatRate(p.current, p.now().Sub(p.start))
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d requests (%s)", p.title, p.current, rate)
		return
	}

	percent := float64(p.current) / float64(p.total)
	if percent > 1 {
		percent = 1
	}

	filled := int(float64(p.width) * percent)
	empty := p.width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% (%d/%d, %s)",
		p.title,
		bar,
		percent*100,
		p.current,
		p.total,
		rate,
	)
}

// formatRate formats a request count over elapsed time as requests per second.
func formatRate(n int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "- req/s"
	}
	rps := float64(n) / elapsed.Seconds()
	switch {
	case rps >= 1e6:
		return fmt.Sprintf("%.1fM req/s", rps/1e6)
	case rps >= 1e3:
		return fmt.Sprintf("%.1fk req/s", rps/1e3)
	default:
		return fmt.Sprintf("%.0f req/s", rps)
	}
}
