package builtin

import (
	"fmt"
	"strconv"
)

// Fg resumes a stopped or background job in the foreground.
type Fg struct{ env *Env }

var _ Builtin = (*Fg)(nil)

func (f *Fg) Name() string        { return "fg" }
func (f *Fg) Description() string { return "continue a job in the foreground: fg <pid>" }

func (f *Fg) Run(args []string) Outcome {
	if len(args) == 0 {
		fmt.Fprintln(f.env.Stderr, "fg: usage: fg <pid>")
		return handled(1)
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil || pid <= 0 {
		fmt.Fprintf(f.env.Stderr, "fg: %s: invalid pid\n", args[0])
		return handled(1)
	}
	if f.env.Jobs == nil {
		fmt.Fprintln(f.env.Stderr, "fg: no job control")
		return handled(1)
	}
	job := f.env.Jobs.Reaper().Lookup(pid)
	if job == nil {
		fmt.Fprintf(f.env.Stderr, "fg: %d: no such job\n", pid)
		return handled(1)
	}
	status, stopped, err := f.env.Jobs.Continue(job)
	if err != nil {
		fmt.Fprintf(f.env.Stderr, "fg: %v\n", err)
		return handled(1)
	}
	if stopped {
		fmt.Fprintf(f.env.Stderr, "[stopped] pgid=%d\n", job.PGID)
	}
	return handled(status)
}
