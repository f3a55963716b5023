package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marcelocantos/mysh/internal/audit"
	"github.com/marcelocantos/mysh/internal/builtin"
	"github.com/marcelocantos/mysh/internal/cli"
	"github.com/marcelocantos/mysh/internal/config"
	"github.com/marcelocantos/mysh/internal/jobctl"
	"github.com/marcelocantos/mysh/internal/logging"
	"github.com/marcelocantos/mysh/internal/pipeline"
)

var version = "dev"

// shutdownGrace bounds how long an exiting shell waits for background jobs
// before leaving them running.
const shutdownGrace = 100 * time.Millisecond

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGTERM)
	defer stop()

	code := 0
	root := newRootCmd(&code)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mysh: %v\n", err)
		return 1
	}
	return code
}

type options struct {
	configPath string
	debug      bool
	command    string
}

func newRootCmd(code *int) *cobra.Command {
	var opts options
	root := &cobra.Command{
		Use:   "mysh",
		Short: "mysh - a small job-control shell",
		Long: `mysh reads command lines and runs them as pipelines of programs.

Each pipeline runs in its own process group and, when mysh is attached to a
terminal, owns the terminal until it finishes or stops. End a line with & to
run it in the background; resume a job with fg <pid>.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			oneShot := cmd.Flags().Changed("command")
			*code, err = runShell(cmd.Context(), cfg, &opts, oneShot)
			return err
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/mysh/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.Flags().StringVarP(&opts.command, "command", "c", "", "run one command line and exit")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newHistoryCmd(&opts, code))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the mysh version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mysh %s\n", version)
		},
	}
}

func newHistoryCmd(opts *options, code *int) *cobra.Command {
	history := &cobra.Command{
		Use:   "history",
		Short: "inspect the command history log",
	}

	verify := &cobra.Command{
		Use:   "verify",
		Short: "check the history hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			*code = cli.RunHistoryVerify(cmd.OutOrStdout(), cfg.History.Path)
			return nil
		},
	}

	var n int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "print the most recent history entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			*code = cli.RunHistoryTail(cmd.OutOrStdout(), cfg.History.Path, n)
			return nil
		},
	}
	tail.Flags().IntVarP(&n, "lines", "n", 20, "number of entries")

	history.AddCommand(verify, tail)
	return history
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runShell(ctx context.Context, cfg *config.Config, opts *options, oneShot bool) (int, error) {
	log, err := logging.New(cfg.Log, opts.debug)
	if err != nil {
		return 1, err
	}
	defer log.Sync()

	tty, isTTY := jobctl.OpenTerminal(os.Stdin)
	jobOpts := jobctl.Options{Logger: log}
	switch {
	case cfg.JobControl.Want(isTTY):
		jobOpts.Terminal = tty
		jobOpts.NewGroup = true
	case isTTY:
		// Job control is off but the terminal still belongs to the
		// shell's group; children must share it to read from it.
		jobOpts.SharedGroup = true
	}
	jobs := jobctl.New(jobOpts)
	defer jobs.Close()
	if err := jobs.Init(); err != nil {
		return 1, fmt.Errorf("job control: %w", err)
	}

	reg := builtin.NewRegistry()
	builtin.RegisterAll(reg, &builtin.Env{Stdout: os.Stdout, Stderr: os.Stderr, Jobs: jobs})
	exec := pipeline.NewExecutor(reg, jobs, log)

	var history *audit.Logger
	if cfg.History.Enabled {
		history, err = audit.NewLogger(cfg.History.Path)
		if err != nil {
			// Continue without history.
			fmt.Fprintf(os.Stderr, "mysh: history: %v\n", err)
			history = nil
		}
	}

	sh := cli.New(cli.Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		Err:         os.Stderr,
		Prompt:      cfg.Prompt,
		Banner:      cfg.Banner,
		Interactive: isTTY && !oneShot,
		Exec:        exec,
		History:     history,
		Log:         log,
	})
	log.Debug("shell started",
		zap.Int("pgid", jobs.ShellPgid()),
		zap.Bool("job_control", jobs.Interactive()),
		zap.Bool("one_shot", oneShot))

	var code int
	if oneShot {
		code = sh.RunCommand(opts.command)
	} else {
		code = sh.Run(ctx)
	}
	waitForJobs(jobs.Reaper(), log)
	return code, nil
}

// waitForJobs gives background jobs a moment to finish so they are reaped
// by the shell rather than by init.
func waitForJobs(r *jobctl.Reaper, log *zap.Logger) {
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGrace):
		log.Info("leaving background jobs running", zap.Int("jobs", r.Len()))
	}
}
