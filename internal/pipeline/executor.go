package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/marcelocantos/mysh/internal/builtin"
	"github.com/marcelocantos/mysh/internal/jobctl"
)

// ExitSignal tells the read-eval loop whether to keep going.
type ExitSignal int

const (
	Continue ExitSignal = iota
	Terminate
)

func (s ExitSignal) String() string {
	if s == Terminate {
		return "terminate"
	}
	return "continue"
}

// Result is the outcome of one pipeline.
type Result struct {
	Signal   ExitSignal
	Status   int // status of the last segment
	ExitCode int // argument of exit when Signal is Terminate
	PGID     int // process group of the pipeline, 0 if nothing was started
}

// Handle describes a launched segment. Builtins are never started, so their
// PID and PGID stay zero.
type Handle struct {
	PID     int
	PGID    int
	Builtin bool
	Outcome builtin.Outcome
}

// Started reports whether the segment became a process.
func (h Handle) Started() bool { return h.PID > 0 }

// Executor launches pipelines as process groups. Jobs must be set.
type Executor struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Env is the environment of started programs. Nil inherits the
	// shell's environment.
	Env []string

	Builtins *builtin.Registry
	Jobs     *jobctl.Controller
	Log      *zap.Logger
}

// NewExecutor returns an executor wired to the process's standard streams.
func NewExecutor(reg *builtin.Registry, jobs *jobctl.Controller, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if jobs == nil {
		jobs = jobctl.New(jobctl.Options{Logger: log})
	}
	return &Executor{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Builtins: reg,
		Jobs:     jobs,
		Log:      log,
	}
}

func (e *Executor) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// release closes every file that is a pipe end rather than one of the
// executor's own streams.
func (e *Executor) release(files ...*os.File) {
	for _, f := range files {
		if f == nil || f == e.Stdin || f == e.Stdout {
			continue
		}
		f.Close()
	}
}

// ExecuteSegment runs one segment reading from in and writing to out.
//
// Builtins run in the shell process. Anything else is started as a process
// in group pgid, or as the leader of a new group when pgid is 0. The leader
// of a foreground pipeline is given the terminal. When the controller
// shares the shell's group, pgid is ignored and the process stays in the
// shell's group. ExecuteSegment never
// waits: the caller owns the returned process.
//
// in and out are closed before returning unless they are the executor's
// own stdin and stdout.
func (e *Executor) ExecuteSegment(seg *Segment, in, out *os.File, mode Mode, pgid int) (Handle, error) {
	defer e.release(in, out)

	if o := e.Builtins.Dispatch(seg.Args); o.Kind != builtin.NotBuiltin {
		e.log().Debug("builtin", zap.String("name", seg.Name()), zap.Stringer("outcome", o.Kind), zap.Int("code", o.Code))
		return Handle{Builtin: true, Outcome: o}, nil
	}

	name := seg.Name()
	path, err := exec.LookPath(name)
	if err != nil {
		status := 127
		if errors.Is(err, fs.ErrPermission) {
			status = 126
		}
		return Handle{}, &ExecError{Name: name, Status: status, Err: err}
	}

	shared := e.Jobs.SharedGroup()
	sys := &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
	if shared {
		sys = &syscall.SysProcAttr{}
	}
	proc, err := os.StartProcess(path, seg.Args, &os.ProcAttr{
		Env:   e.Env,
		Files: []*os.File{in, out, e.Stderr},
		Sys:   sys,
	})
	if err != nil {
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.ENOMEM),
			errors.Is(err, unix.EMFILE), errors.Is(err, unix.ENFILE):
			return Handle{}, &ForkError{Segment: -1, Name: name, Err: err}
		case errors.Is(err, unix.EACCES):
			return Handle{}, &ExecError{Name: name, Status: 126, Err: err}
		default:
			return Handle{}, &ExecError{Name: name, Status: 127, Err: err}
		}
	}

	h := Handle{PID: proc.Pid, PGID: pgid}
	switch {
	case shared:
		h.PGID = e.Jobs.ShellPgid()
	case pgid == 0:
		h.PGID = proc.Pid
	}
	// Waiting happens with wait4 on the pid.
	proc.Release()

	seg.PID, seg.PGID = h.PID, h.PGID
	e.log().Debug("segment started",
		zap.Int("pid", h.PID),
		zap.Int("pgid", h.PGID),
		zap.String("argv0", name))

	if mode == Foreground && pgid == 0 && !shared {
		e.handOff(h.PGID)
	}
	return h, nil
}

// handOff gives the terminal to a new foreground group. A child that read
// from the terminal before the hand-off was stopped by SIGTTIN; SIGCONT
// resumes it before anyone waits for the stop.
func (e *Executor) handOff(pgid int) {
	if err := e.Jobs.Foreground(pgid); err != nil {
		e.log().Warn("terminal hand-off failed", zap.Int("pgid", pgid), zap.Error(err))
		return
	}
	if e.Jobs.Interactive() {
		if err := unix.Kill(-pgid, unix.SIGCONT); err != nil && !errors.Is(err, unix.ESRCH) {
			e.log().Debug("continue after hand-off", zap.Int("pgid", pgid), zap.Error(err))
		}
	}
}

// Execute launches every segment of p, left to right, connected by pipes
// and sharing one process group.
//
// A foreground pipeline is waited for once the whole chain is running; the
// terminal then returns to the shell. A background pipeline is handed to
// the reaper and Execute returns at once.
//
// A segment whose program cannot be run is reported on Stderr and gets
// status 126 or 127; the rest of the chain still runs. A *ForkError stops
// the launch, and is returned after the processes already started have been
// dealt with.
func (e *Executor) Execute(p *Pipeline) (Result, error) {
	if len(p.Segments) == 0 {
		return Result{}, &ParseError{Segment: -1, Err: ErrEmptyLine}
	}
	for i := range p.Segments {
		if len(p.Segments[i].Args) == 0 {
			return Result{}, &ParseError{Segment: i, Err: ErrEmptyCommand}
		}
	}

	line := p.String()
	e.log().Debug("pipeline launch",
		zap.String("line", line),
		zap.Stringer("mode", p.Mode),
		zap.Int("segments", len(p.Segments)))

	var (
		res       Result
		launchErr error
		n         = len(p.Segments)
		handles   = make([]Handle, n)
		statuses  = make([]int, n)
		upstream  = e.Stdin
	)
	for i := range p.Segments {
		seg := &p.Segments[i]
		out := e.Stdout
		var next *os.File
		if _, ok := p.Next(i); ok {
			r, w, err := os.Pipe()
			if err != nil {
				launchErr = &ForkError{Segment: i, Name: seg.Name(), Err: fmt.Errorf("pipe: %w", err)}
				break
			}
			out, next = w, r
		}

		h, err := e.ExecuteSegment(seg, upstream, out, p.Mode, res.PGID)
		upstream = next
		if err != nil {
			var execErr *ExecError
			if errors.As(err, &execErr) {
				fmt.Fprintf(e.Stderr, "*** ERROR: %v\n", execErr)
				statuses[i] = execErr.Status
				continue
			}
			var forkErr *ForkError
			if errors.As(err, &forkErr) {
				forkErr.Segment = i
			}
			launchErr = err
			break
		}

		handles[i] = h
		switch {
		case h.Started():
			if res.PGID == 0 {
				res.PGID = h.PGID
			}
		case h.Builtin:
			statuses[i] = h.Outcome.Code
			if h.Outcome.Kind == builtin.ExitRequested {
				res.Signal = Terminate
				res.ExitCode = h.Outcome.Code
			}
		}
	}
	// Left over when the launch was cut short.
	e.release(upstream)

	if launchErr != nil {
		statuses[n-1] = 1
	}

	if p.Mode == Background {
		if pids := startedPIDs(handles, 0); len(pids) > 0 {
			id := e.jobID(res.PGID, pids)
			e.Jobs.Reaper().Track(id, line, pids)
			fmt.Fprintf(e.Stderr, "[bg] pid=%d\n", id)
		}
		res.Status = statuses[n-1]
		return res, launchErr
	}

	if res.PGID != 0 {
		defer func() {
			if err := e.Jobs.Reclaim(); err != nil {
				e.log().Warn("reclaim terminal", zap.Error(err))
			}
		}()
		e.wait(line, res.PGID, handles, statuses)
	}
	res.Status = statuses[n-1]
	return res, launchErr
}

// wait blocks until every started process of a foreground pipeline has
// exited. If one stops, the processes not yet reaped become a job the fg
// builtin can resume.
func (e *Executor) wait(line string, pgid int, handles []Handle, statuses []int) {
	for i, h := range handles {
		if !h.Started() {
			continue
		}
		ws, err := jobctl.WaitPID(h.PID)
		if err != nil {
			e.log().Warn("wait failed", zap.Int("pid", h.PID), zap.Error(err))
			statuses[i] = 1
			continue
		}
		statuses[i] = jobctl.Status(ws)
		e.log().Debug("segment waited", zap.Int("pid", h.PID), zap.Int("status", statuses[i]))

		if ws.Stopped() {
			pids := startedPIDs(handles, i)
			id := e.jobID(pgid, pids)
			e.Jobs.Reaper().Track(id, line, pids)
			fmt.Fprintf(e.Stderr, "[stopped] pgid=%d\n", id)
			for j := i + 1; j < len(statuses); j++ {
				if handles[j].Started() {
					statuses[j] = statuses[i]
				}
			}
			return
		}
	}
}

// jobID is the reaper's key for a job: its process group, or its first
// process when pipelines share the shell's group.
func (e *Executor) jobID(pgid int, pids []int) int {
	if e.Jobs.SharedGroup() && len(pids) > 0 {
		return pids[0]
	}
	return pgid
}

// startedPIDs returns the pids of the started handles from index from on.
func startedPIDs(handles []Handle, from int) []int {
	var pids []int
	for _, h := range handles[from:] {
		if h.Started() {
			pids = append(pids, h.PID)
		}
	}
	return pids
}
