package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Summary describes a history log whose chain is intact.
type Summary struct {
	Entries  int
	Sessions int
}

// BrokenEntry locates the first history entry that does not continue the
// chain.
type BrokenEntry struct {
	Line    int // 1-based line in the file
	Seq     uint64
	Session string // empty when the line is not an entry at all
	Command string
	Reason  string
}

func (b *BrokenEntry) Error() string {
	if b.Session == "" {
		return fmt.Sprintf("line %d: %s", b.Line, b.Reason)
	}
	return fmt.Sprintf("line %d (seq %d, session %s, %q): %s",
		b.Line, b.Seq, shortID(b.Session), b.Command, b.Reason)
}

// Verify walks the history log and checks that every entry follows the one
// before it. A broken chain is reported as a *BrokenEntry.
func Verify(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("read history: %w", err)
	}

	var sum Summary
	sessions := make(map[string]bool)
	prev := Entry{Hash: genesisHash()}
	for i, raw := range splitLines(data) {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return sum, &BrokenEntry{Line: i + 1, Reason: fmt.Sprintf("not a history entry: %v", err)}
		}
		broken := &BrokenEntry{Line: i + 1, Seq: e.Seq, Session: e.Session, Command: e.Line}
		switch {
		case e.Seq != prev.Seq+1:
			broken.Reason = fmt.Sprintf("follows seq %d", prev.Seq)
		case e.PrevHash != prev.Hash:
			broken.Reason = fmt.Sprintf("does not chain to seq %d", prev.Seq)
		case e.Hash != computeHash(e):
			broken.Reason = "altered after it was written"
		}
		if broken.Reason != "" {
			return sum, broken
		}
		sessions[e.Session] = true
		sum.Entries++
		prev = e
	}
	sum.Sessions = len(sessions)
	return sum, nil
}

// Tail returns up to n of the most recent entries, oldest first. Lines that
// do not decode are skipped.
func Tail(path string, n int) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	lines := splitLines(data)
	var entries []Entry
	for i := len(lines) - 1; i >= 0 && len(entries) < n; i-- {
		var e Entry
		if json.Unmarshal(lines[i], &e) != nil {
			continue
		}
		entries = append(entries, e)
	}
	slices.Reverse(entries)
	return entries, nil
}

func shortID(session string) string {
	if len(session) <= 8 {
		return session
	}
	return session[:8]
}
