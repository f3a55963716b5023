package jobctl

import (
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal is the controlling terminal's foreground process group.
type Terminal interface {
	// Foreground returns the process group that currently owns the terminal.
	Foreground() (int, error)
	// SetForeground makes pgid the terminal's foreground process group.
	SetForeground(pgid int) error
}

type tty struct {
	fd int
}

// OpenTerminal returns the terminal behind f, or false if f is not a
// terminal.
func OpenTerminal(f *os.File) (Terminal, bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, false
	}
	return &tty{fd: fd}, true
}

func (t *tty) Foreground() (int, error) {
	return unix.IoctlGetInt(t.fd, unix.TIOCGPGRP)
}

// SetForeground runs with SIGTTOU blocked: when the shell takes the
// terminal back it is itself a background group, and the kernel would
// otherwise stop it.
func (t *tty) SetForeground(pgid int) error {
	return withoutSIGTTOU(func() error {
		return unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid)
	})
}
