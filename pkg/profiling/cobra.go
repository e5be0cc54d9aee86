package profiling

import (
	"io"

	"github.com/spf13/cobra"
)

// CobraProfiler wires the --timing flag into a command tree.
type CobraProfiler struct {
	timing bool
}

// NewCobraProfiler creates a profiler for Cobra integration.
func NewCobraProfiler() *CobraProfiler {
	return &CobraProfiler{}
}

// AddFlags adds the --timing flag to cmd.
func (p *CobraProfiler) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVar(&p.timing, "timing", false, "Print a timing summary of the run on exit")
}

// PreRun enables the global profiler when --timing is set.
func (p *CobraProfiler) PreRun(cmd *cobra.Command, args []string) {
	if p.timing {
		Enable()
	}
}

// Finish prints the timing summary to w when --timing is set. Call it once
// Execute returns: cobra skips post-run hooks of a failed command.
func (p *CobraProfiler) Finish(w io.Writer) {
	if p.timing {
		Summarize(w)
		Disable()
	}
}
