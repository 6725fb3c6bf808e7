package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/jobbench/internal/executor"
	"github.com/studiowebux/jobbench/internal/stresstest"
	"github.com/studiowebux/jobbench/internal/types"
)

// Reporter prints the final summary of a run
type Reporter struct {
	w       io.Writer
	heading lipgloss.Style
	label   lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
}

// NewReporter styles output for w. Color is only emitted when w is a
// terminal.
func NewReporter(w io.Writer) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:       w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   r.NewStyle().Foreground(lipgloss.Color("8")),
		good:    r.NewStyle().Foreground(lipgloss.Color("10")),
		bad:     r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Print writes the histogram, latency and throughput figures and the
// outcome breakdown
func (r *Reporter) Print(s *stresstest.Summary) {
	rec := s.Record

	fmt.Fprintln(r.w, r.heading.Render("Latency"))
	fmt.Fprintf(r.w, "%s %d ms\n", r.label.Render("granularity:"), rec.Granularity())
	for _, b := range rec.Buckets() {
		fmt.Fprintf(r.w, "elapsed [%d, %d) ms: %d\n", b.LoMs, b.HiMs, b.Count)
	}
	fmt.Fprintf(r.w, "%s %.3f ms\n", r.label.Render("elapsed_avg:"), rec.AverageMs())
	fmt.Fprintf(r.w, "%s p50=%s p90=%s p99=%s max=%s\n",
		r.label.Render("percentiles:"),
		executor.FormatDuration(rec.Percentile(50)),
		executor.FormatDuration(rec.Percentile(90)),
		executor.FormatDuration(rec.Percentile(99)),
		executor.FormatDuration(rec.MaxLatency()))

	fmt.Fprintln(r.w, r.heading.Render("Throughput"))
	fmt.Fprintf(r.w, "%s %.3f s\n", r.label.Render("elapsed_total:"), s.WallClock.Seconds())
	fmt.Fprintf(r.w, "%s %.2f /s\n", r.label.Render("speed:"), s.Throughput())

	fmt.Fprintln(r.w, r.heading.Render("Results"))
	failed := s.Failed()
	failedText := fmt.Sprintf("%d", failed)
	if failed > 0 {
		failedText = r.bad.Render(failedText)
	}
	fmt.Fprintf(r.w, "total: %d, success: %s, failed: %s\n",
		s.Total, r.good.Render(fmt.Sprintf("%d", rec.Success())), failedText)

	for _, o := range types.Outcomes() {
		if o == types.OutcomeOK {
			continue
		}
		if n := rec.Count(o); n > 0 {
			fmt.Fprintf(r.w, "  %s: %d\n", o, n)
		}
	}
	if s.Interrupted {
		fmt.Fprintf(r.w, "%s dispatched %d of %d\n", r.bad.Render("interrupted:"), s.Dispatched, s.Total)
	}
}
