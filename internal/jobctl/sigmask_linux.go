package jobctl

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// withoutSIGTTOU runs fn on a locked thread whose mask blocks SIGTTOU. The
// disposition is never changed, so children keep the default action.
func withoutSIGTTOU(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var set, old unix.Sigset_t
	set.Val[0] |= 1 << (unix.SIGTTOU - 1)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &old); err != nil {
		return err
	}
	defer unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)
	return fn()
}
