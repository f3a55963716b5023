package builtin

import (
	"fmt"
	"strconv"
)

// Exit asks the shell to terminate, optionally with an exit code.
type Exit struct{ env *Env }

var _ Builtin = (*Exit)(nil)

func (e *Exit) Name() string        { return "exit" }
func (e *Exit) Description() string { return "leave the shell" }

func (e *Exit) Run(args []string) Outcome {
	if len(args) == 0 {
		return Outcome{Kind: ExitRequested}
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(e.env.Stderr, "exit: %s: numeric argument required\n", args[0])
		return Outcome{Kind: ExitRequested, Code: 2}
	}
	return Outcome{Kind: ExitRequested, Code: code & 0xff}
}
