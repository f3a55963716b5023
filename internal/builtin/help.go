package builtin

import "fmt"

// Help lists the builtins, or describes one.
type Help struct {
	env *Env
	reg *Registry
}

var _ Builtin = (*Help)(nil)

func (h *Help) Name() string        { return "help" }
func (h *Help) Description() string { return "list the shell builtins" }

func (h *Help) Run(args []string) Outcome {
	if len(args) > 0 {
		b, ok := h.reg.Lookup(args[0])
		if !ok {
			fmt.Fprintf(h.env.Stderr, "help: %s: not a builtin\n", args[0])
			return handled(1)
		}
		fmt.Fprintf(h.env.Stdout, "%s: %s\n", b.Name(), b.Description())
		return handled(0)
	}

	w := h.env.Stdout
	fmt.Fprintln(w, "builtins:")
	for _, b := range h.reg.All() {
		fmt.Fprintf(w, "  %-6s %s\n", b.Name(), b.Description())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other commands are looked up on $PATH.")
	fmt.Fprintln(w, "Join commands with | and end a line with & to run it in the background.")
	return handled(0)
}
