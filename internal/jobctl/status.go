package jobctl

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Status converts a wait status into a shell exit status: the exit code for
// exited processes, 128+signal for signalled or stopped ones.
func Status(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	case ws.Stopped():
		return 128 + int(ws.StopSignal())
	default:
		return 1
	}
}

// WaitPID blocks until pid exits, is killed, or stops.
func WaitPID(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return ws, err
	}
}
