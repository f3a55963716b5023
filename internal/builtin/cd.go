package builtin

import (
	"fmt"
	"os"
)

// Cd changes the shell's working directory. With no argument it goes to
// $HOME.
type Cd struct{ env *Env }

var _ Builtin = (*Cd)(nil)

func (c *Cd) Name() string        { return "cd" }
func (c *Cd) Description() string { return "change the working directory" }

func (c *Cd) Run(args []string) Outcome {
	var dir string
	if len(args) > 0 {
		dir = args[0]
	} else {
		dir = os.Getenv("HOME")
		if dir == "" {
			fmt.Fprintln(c.env.Stderr, "cd: HOME not set")
			return handled(1)
		}
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(c.env.Stderr, "cd: %v\n", err)
		return handled(1)
	}
	return handled(0)
}
