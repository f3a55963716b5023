package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/marcelocantos/mysh/internal/audit"
	"github.com/marcelocantos/mysh/internal/pipeline"
)

// Options configures a Shell.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Prompt is printed before each line when Interactive is set. {user}
	// and {cwd} are substituted.
	Prompt      string
	Banner      string
	Interactive bool

	Exec    *pipeline.Executor
	History *audit.Logger // nil disables history
	Log     *zap.Logger
}

// Shell is the read-eval loop.
type Shell struct {
	in          *bufio.Reader
	out, err    io.Writer
	prompt      string
	banner      string
	interactive bool
	exec        *pipeline.Executor
	history     *audit.Logger
	log         *zap.Logger
}

// New creates a Shell.
func New(opts Options) *Shell {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Shell{
		in:          bufio.NewReader(opts.In),
		out:         opts.Out,
		err:         opts.Err,
		prompt:      opts.Prompt,
		banner:      opts.Banner,
		interactive: opts.Interactive,
		exec:        opts.Exec,
		history:     opts.History,
		log:         log,
	}
}

// Run reads and executes lines until exit, end of input or ctx is done,
// and returns the shell's exit code.
func (s *Shell) Run(ctx context.Context) int {
	if s.interactive && s.banner != "" {
		fmt.Fprintln(s.out, s.banner)
	}
	for {
		if err := ctx.Err(); err != nil {
			s.log.Info("shell stopping", zap.Error(context.Cause(ctx)))
			return 1
		}
		s.reportDone()
		if s.interactive {
			fmt.Fprint(s.out, s.expandPrompt())
		}

		line, err := s.in.ReadString('\n')
		if line != "" {
			if res, ok := s.RunLine(line); ok && res.Signal == pipeline.Terminate {
				return res.ExitCode
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(s.err, "mysh: read: %v\n", err)
				return 1
			}
			if s.interactive {
				fmt.Fprintln(s.out)
			}
			return 0
		}
	}
}

// RunCommand executes a single line, as for mysh -c, and returns the exit
// code: the exit argument if the line ran exit, otherwise the line's status.
func (s *Shell) RunCommand(line string) int {
	if strings.Trim(line, pipeline.Delimiters) == "" {
		return 0
	}
	res, ok := s.RunLine(line)
	switch {
	case !ok:
		return 2
	case res.Signal == pipeline.Terminate:
		return res.ExitCode
	default:
		return res.Status
	}
}

// RunLine parses and executes one line. It reports false if the line was
// blank or could not be parsed.
func (s *Shell) RunLine(line string) (pipeline.Result, bool) {
	if strings.Trim(line, pipeline.Delimiters) == "" {
		return pipeline.Result{}, false
	}

	p, err := pipeline.Parse(line)
	if err != nil {
		fmt.Fprintf(s.err, "mysh: %v\n", err)
		return pipeline.Result{}, false
	}

	start := time.Now()
	res, err := s.exec.Execute(p)
	duration := time.Since(start)
	if err != nil {
		fmt.Fprintf(s.err, "mysh: %v\n", err)
	}
	s.record(p, res, err, duration)
	return res, true
}

func (s *Shell) record(p *pipeline.Pipeline, res pipeline.Result, execErr error, d time.Duration) {
	if s.history == nil {
		return
	}
	cwd, _ := os.Getwd()
	err := s.history.Log(audit.Record{
		Line:     p.String(),
		Segments: p.Names(),
		Mode:     p.Mode.String(),
		Status:   res.Status,
		Err:      execErr,
		Duration: d,
		Cwd:      cwd,
	})
	if err != nil {
		s.log.Warn("history write failed", zap.String("path", s.history.Path()), zap.Error(err))
	}
}

// reportDone collects the background jobs that finished since the last
// line and, when interactive, prints a notice for each.
func (s *Shell) reportDone() {
	if s.exec == nil || s.exec.Jobs == nil {
		return
	}
	for _, j := range s.exec.Jobs.Reaper().Collect() {
		if !s.interactive {
			continue
		}
		fmt.Fprintf(s.err, "[done] pgid=%d status=%d\t%s\n", j.PGID, j.Status(), j.Line)
	}
}

func (s *Shell) expandPrompt() string {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "?"
	}
	return strings.NewReplacer("{user}", name, "{cwd}", cwd).Replace(s.prompt)
}
