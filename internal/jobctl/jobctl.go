// Package jobctl owns the shell's process-wide job-control state: its
// signal disposition, the controlling terminal, and the jobs it has stopped
// waiting for.
package jobctl

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Options configures a Controller.
type Options struct {
	// Terminal is the controlling terminal. Nil disables terminal hand-off,
	// which is the case whenever the shell's input is not a terminal.
	Terminal Terminal
	// NewGroup makes Init move the shell into a process group of its own
	// before taking the terminal.
	NewGroup bool
	// SharedGroup keeps started processes in the shell's own process group
	// instead of one group per pipeline. It is for a terminal session with
	// job control turned off: the terminal stays with the shell's group, so
	// children must be members of it to read from it.
	SharedGroup bool
	Logger      *zap.Logger
}

// Controller is the job-control context shared by the executor and the fg
// builtin.
//
// Init must be called once before the first pipeline runs and Close once
// after the last. Between the two the shell catches the keyboard and
// terminal-read signals and drops them. They are caught rather than ignored
// so that the runtime resets them to their default action in every child
// it starts.
type Controller struct {
	term      Terminal
	newGroup  bool
	shared    bool
	log       *zap.Logger
	reaper    *Reaper
	shellPgid int

	sigs chan os.Signal
	done chan struct{}
}

// New creates a Controller.
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		term:      opts.Terminal,
		newGroup:  opts.NewGroup,
		shared:    opts.SharedGroup && opts.Terminal == nil,
		log:       log,
		reaper:    NewReaper(log),
		shellPgid: unix.Getpgrp(),
	}
}

// Init installs the shell's signal disposition and, when interactive, takes
// the terminal for the shell's process group.
func (c *Controller) Init() error {
	if c.newGroup {
		// A session leader already leads its group and gets EPERM.
		if err := unix.Setpgid(0, 0); err != nil && !errors.Is(err, unix.EPERM) {
			return fmt.Errorf("own process group: %w", err)
		}
	}
	c.shellPgid = unix.Getpgrp()
	c.sigs = make(chan os.Signal, 4)
	c.done = make(chan struct{})
	signal.Notify(c.sigs, unix.SIGINT, unix.SIGQUIT, unix.SIGTSTP, unix.SIGTTIN)
	go c.drain()

	if c.term != nil {
		if err := c.term.SetForeground(c.shellPgid); err != nil {
			return fmt.Errorf("take terminal: %w", err)
		}
	}
	return nil
}

func (c *Controller) drain() {
	for {
		select {
		case sig := <-c.sigs:
			c.log.Debug("signal ignored by shell", zap.Stringer("signal", sig))
		case <-c.done:
			return
		}
	}
}

// Close restores the default signal disposition and stops the drain.
func (c *Controller) Close() {
	if c.sigs == nil {
		return
	}
	signal.Stop(c.sigs)
	close(c.done)
	c.sigs = nil
}

// Interactive reports whether terminal hand-off is active.
func (c *Controller) Interactive() bool { return c.term != nil }

// SharedGroup reports whether started processes join the shell's own
// process group.
func (c *Controller) SharedGroup() bool { return c.shared }

// ShellPgid returns the shell's own process group.
func (c *Controller) ShellPgid() int { return c.shellPgid }

// Reaper returns the reaper for jobs the shell does not wait on.
func (c *Controller) Reaper() *Reaper { return c.reaper }

// Foreground hands the terminal to pgid.
func (c *Controller) Foreground(pgid int) error {
	if c.term == nil {
		return nil
	}
	if err := c.term.SetForeground(pgid); err != nil {
		return fmt.Errorf("give terminal to group %d: %w", pgid, err)
	}
	c.log.Debug("terminal handed over", zap.Int("pgid", pgid))
	return nil
}

// Reclaim hands the terminal back to the shell's process group.
func (c *Controller) Reclaim() error {
	if c.term == nil {
		return nil
	}
	if err := c.term.SetForeground(c.shellPgid); err != nil {
		return fmt.Errorf("reclaim terminal: %w", err)
	}
	c.log.Debug("terminal reclaimed", zap.Int("pgid", c.shellPgid))
	return nil
}

// Continue brings job to the foreground: it hands over the terminal,
// resumes the group with SIGCONT and blocks until the job finishes or stops
// again. The terminal is reclaimed before returning.
func (c *Controller) Continue(job *Job) (status int, stopped bool, err error) {
	if err := c.Foreground(job.PGID); err != nil {
		return 0, false, err
	}
	defer func() {
		if rerr := c.Reclaim(); rerr != nil {
			c.log.Warn("reclaim after fg failed", zap.Error(rerr))
		}
	}()

	job.setWaited()
	job.drainStopped()
	if err := c.signal(job, unix.SIGCONT); err != nil {
		return 0, false, fmt.Errorf("continue job %d: %w", job.PGID, err)
	}

	select {
	case <-job.Done():
		return job.Status(), false, nil
	case status := <-job.Stopped():
		return status, true, nil
	}
}

// signal sends sig to every process of job. A job in the shell's own group
// is signalled process by process so the shell is left out.
func (c *Controller) signal(job *Job, sig unix.Signal) error {
	if !c.shared {
		if err := unix.Kill(-job.PGID, sig); err != nil && !errors.Is(err, unix.ESRCH) {
			return err
		}
		return nil
	}
	for _, pid := range job.PIDs() {
		if err := unix.Kill(pid, sig); err != nil && !errors.Is(err, unix.ESRCH) {
			return err
		}
	}
	return nil
}
