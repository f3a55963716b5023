//go:build !linux

package jobctl

import (
	"os/signal"

	"golang.org/x/sys/unix"
)

// withoutSIGTTOU ignores SIGTTOU for good. Without a per-thread mask there
// is no way to restore the previous disposition afterwards.
func withoutSIGTTOU(fn func() error) error {
	signal.Ignore(unix.SIGTTOU)
	return fn()
}
