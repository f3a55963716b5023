package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/marcelocantos/mysh/internal/audit"
)

// RunHistoryVerify checks the hash chain of the history log.
func RunHistoryVerify(w io.Writer, path string) int {
	sum, err := audit.Verify(path)
	if err != nil {
		fmt.Fprintf(w, "history verification FAILED: %v\n", err)
		return 1
	}
	fmt.Fprintf(w, "history log integrity verified: %d entries from %d sessions\n", sum.Entries, sum.Sessions)
	return 0
}

// RunHistoryTail prints the last n history entries as JSON.
func RunHistoryTail(w io.Writer, path string, n int) int {
	entries, err := audit.Tail(path, n)
	if err != nil {
		fmt.Fprintf(w, "mysh history: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "no history entries")
		return 0
	}
	for _, e := range entries {
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintf(w, "%s\n", data)
	}
	return 0
}
