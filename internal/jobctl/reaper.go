package jobctl

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Job is a process group the shell no longer waits for in its read-eval
// loop: a background pipeline, or a foreground pipeline that was stopped.
type Job struct {
	// PGID is the job's process group, or its first process when the job
	// runs in the shell's own group.
	PGID int
	Line string

	mu      sync.Mutex
	pids    []int
	live    int
	status  int
	waited  bool // someone is blocked on Done
	done    chan struct{}
	stopped chan int // status of the process that stopped
}

// Done is closed once every process of the job has been reaped.
func (j *Job) Done() <-chan struct{} { return j.done }

// Stopped receives the status of a job process that stopped, 128 plus the
// stopping signal.
func (j *Job) Stopped() <-chan int { return j.stopped }

// Status returns the status of the job's last process. It is only
// meaningful after Done is closed.
func (j *Job) Status() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// PIDs returns the processes of the job.
func (j *Job) PIDs() []int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.pids)
}

func (j *Job) setWaited() {
	j.mu.Lock()
	j.waited = true
	j.mu.Unlock()
}

func (j *Job) isWaited() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.waited
}

func (j *Job) has(pid int) bool {
	return pid == j.PGID || slices.Contains(j.pids, pid)
}

// drainStopped discards a pending stop notification.
func (j *Job) drainStopped() {
	select {
	case <-j.stopped:
	default:
	}
}

func (j *Job) stop(status int) {
	select {
	case j.stopped <- status:
	default:
	}
}

// exited records the status of pid and reports whether it was the job's
// last live process.
func (j *Job) exited(pid, status int) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if pid == j.pids[len(j.pids)-1] {
		j.status = status
	}
	j.live--
	if j.live == 0 {
		close(j.done)
		return true
	}
	return false
}

// Reaper reaps the processes of jobs the shell does not block on, so they
// never linger as zombies.
type Reaper struct {
	log *zap.Logger

	mu       sync.Mutex
	jobs     map[int]*Job // by pgid
	finished []*Job       // done while nobody waited, not yet collected
	wg       sync.WaitGroup
}

// NewReaper creates an empty reaper.
func NewReaper(log *zap.Logger) *Reaper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reaper{log: log, jobs: make(map[int]*Job)}
}

// Track takes over wait responsibility for pids, which all belong to the
// process group pgid. It returns immediately.
func (r *Reaper) Track(pgid int, line string, pids []int) *Job {
	j := &Job{
		PGID:    pgid,
		Line:    line,
		pids:    slices.Clone(pids),
		live:    len(pids),
		done:    make(chan struct{}),
		stopped: make(chan int, 1),
	}
	if len(pids) == 0 {
		close(j.done)
		return j
	}

	r.mu.Lock()
	r.jobs[pgid] = j
	r.mu.Unlock()

	r.wg.Add(len(pids))
	for _, pid := range pids {
		go r.reap(j, pid)
	}
	return j
}

func (r *Reaper) reap(j *Job, pid int) {
	defer r.wg.Done()
	for {
		ws, err := WaitPID(pid)
		if err != nil {
			r.log.Warn("reap failed", zap.Int("pid", pid), zap.Error(err))
			r.finish(j, pid, 1)
			return
		}
		if ws.Stopped() {
			r.log.Debug("job process stopped", zap.Int("pid", pid), zap.Int("pgid", j.PGID))
			j.stop(Status(ws))
			continue
		}
		r.finish(j, pid, Status(ws))
		return
	}
}

func (r *Reaper) finish(j *Job, pid, status int) {
	if !j.exited(pid, status) {
		return
	}
	r.mu.Lock()
	if r.jobs[j.PGID] == j {
		delete(r.jobs, j.PGID)
	}
	if !j.isWaited() {
		r.finished = append(r.finished, j)
	}
	r.mu.Unlock()
	r.log.Info("job done",
		zap.Int("pgid", j.PGID),
		zap.String("line", j.Line),
		zap.Int("status", j.Status()))
}

// Lookup returns the live job containing pid, or nil.
func (r *Reaper) Lookup(pid int) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[pid]; ok {
		return j
	}
	for _, j := range r.jobs {
		if j.has(pid) {
			return j
		}
	}
	return nil
}

// Collect returns the jobs that finished in the background since the last
// call, oldest first.
func (r *Reaper) Collect() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	done := r.finished
	r.finished = nil
	return done
}

// Len returns the number of live jobs.
func (r *Reaper) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Wait blocks until every tracked process has been reaped.
func (r *Reaper) Wait() {
	r.wg.Wait()
}
