package audit

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const genesisInput = "mysh-genesis"

// Logger is an append-only, hash-chained history writer. Several shells
// may share one file; each resumes the chain from the last entry on disk.
type Logger struct {
	mu      sync.Mutex
	path    string
	session string
}

// NewLogger opens or creates a history log at the given path and starts a
// new session.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Logger{path: path, session: uuid.NewString()}, nil
}

// Session returns the id stamped on every entry this logger writes.
func (l *Logger) Session() string { return l.session }

// Path returns the history file path.
func (l *Logger) Path() string { return l.path }

// Log appends an entry for rec.
func (l *Logger) Log(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	// Serialises appends from concurrent shells; released on close.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("lock history: %w", err)
	}

	seq, prev, err := lastLink(l.path)
	if err != nil {
		return err
	}

	entry := Entry{
		Seq:      seq + 1,
		Time:     time.Now().UTC(),
		PrevHash: prev,
		Session:  l.session,
		Line:     rec.Line,
		Segments: rec.Segments,
		Mode:     rec.Mode,
		Status:   rec.Status,
		Duration: float64(rec.Duration.Microseconds()) / 1000.0,
		Cwd:      rec.Cwd,
	}
	if rec.Err != nil {
		entry.Error = rec.Err.Error()
	}
	entry.Hash = computeHash(entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write history entry: %w", err)
	}
	return nil
}

// lastLink returns the sequence number and hash the next entry chains to.
func lastLink(path string) (uint64, string, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return 0, "", fmt.Errorf("read history: %w", err)
	}
	lines := splitLines(data)
	if len(lines) == 0 {
		return 0, genesisHash(), nil
	}
	var last Entry
	if err := json.Unmarshal(lines[len(lines)-1], &last); err != nil {
		return 0, "", fmt.Errorf("history line %d: invalid JSON: %w", len(lines), err)
	}
	return last.Seq, last.Hash, nil
}

func genesisHash() string {
	h := sha256.Sum256([]byte(genesisInput))
	return fmt.Sprintf("%x", h)
}

func computeHash(e Entry) string {
	e.Hash = ""
	data, _ := json.Marshal(e)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
