// Package builtin holds the commands the shell runs in its own process
// because they change the shell's state: cd, exit, fg and help.
package builtin

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marcelocantos/mysh/internal/jobctl"
)

// OutcomeKind classifies the result of dispatching a segment.
type OutcomeKind int

const (
	NotBuiltin    OutcomeKind = iota // args[0] is not a builtin; run it externally
	Handled                          // the builtin ran; the shell continues
	ExitRequested                    // the shell must terminate
)

func (k OutcomeKind) String() string {
	switch k {
	case NotBuiltin:
		return "not-builtin"
	case Handled:
		return "handled"
	case ExitRequested:
		return "exit"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is what a builtin reports back to the executor. Code is the
// builtin's exit status, or the shell's exit code for ExitRequested.
type Outcome struct {
	Kind OutcomeKind
	Code int
}

// Builtin is the interface every shell builtin implements.
type Builtin interface {
	// Name returns the command word that selects the builtin.
	Name() string

	// Description returns a one-line summary for help output.
	Description() string

	// Run executes the builtin. args excludes the command word.
	Run(args []string) Outcome
}

// Env is the shell state builtins act on.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Jobs   *jobctl.Controller
}

// Registry maps command words to builtins.
type Registry struct {
	mu       sync.RWMutex
	builtins map[string]Builtin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: make(map[string]Builtin)}
}

// Register adds a builtin, replacing any with the same name.
func (r *Registry) Register(b Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[b.Name()] = b
}

// Lookup returns the builtin called name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builtins[name]
	return b, ok
}

// Dispatch runs args[0] as a builtin if there is one. Names match exactly
// and case-sensitively.
func (r *Registry) Dispatch(args []string) Outcome {
	if r == nil || len(args) == 0 {
		return Outcome{Kind: NotBuiltin}
	}
	b, ok := r.Lookup(args[0])
	if !ok {
		return Outcome{Kind: NotBuiltin}
	}
	return b.Run(args[1:])
}

// All returns all registered builtins sorted by name.
func (r *Registry) All() []Builtin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Name() < all[j].Name()
	})
	return all
}

func handled(code int) Outcome { return Outcome{Kind: Handled, Code: code} }
