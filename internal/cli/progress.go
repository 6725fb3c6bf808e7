package cli

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

const progressInterval = 200 * time.Millisecond

// Progress renders a single-line bar to w at a fixed interval
type Progress struct {
	w     io.Writer
	total uint64
	done  atomic.Uint64
	bar   progress.Model

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewProgress creates a progress line for total requests
func NewProgress(w io.Writer, total uint64) *Progress {
	return &Progress{
		w:     w,
		total: total,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		stop:  make(chan struct{}),
	}
}

// Set records the completed count. Safe for concurrent use.
func (p *Progress) Set(done, _ uint64) {
	for {
		cur := p.done.Load()
		if done <= cur || p.done.CompareAndSwap(cur, done) {
			return
		}
	}
}

// Start begins periodic rendering
func (p *Progress) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.render()
			}
		}
	}()
}

// Stop renders the final state and ends the line
func (p *Progress) Stop() {
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()
		p.render()
		fmt.Fprintln(p.w)
	})
}

// Line returns the current bar text
func (p *Progress) Line() string {
	done := p.done.Load()
	percent := 1.0
	if p.total > 0 {
		percent = float64(done) / float64(p.total)
	}
	return fmt.Sprintf("%s %d/%d", p.bar.ViewAs(percent), done, p.total)
}

func (p *Progress) render() {
	fmt.Fprintf(p.w, "\r%s", p.Line())
}
