package audit

import "time"

// Entry is one executed command line in the history log.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Session  string    `json:"session"`         // shell session that ran the line
	Line     string    `json:"line"`            // canonical pipeline text
	Segments []string  `json:"segments"`        // program names
	Mode     string    `json:"mode"`            // foreground or background
	Status   int       `json:"status"`          // status of the last segment
	Error    string    `json:"error,omitempty"` // launch error, if any
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"` // SHA-256 of this entry with Hash empty
}

// Record is what the shell reports about a line it ran.
type Record struct {
	Line     string
	Segments []string
	Mode     string
	Status   int
	Err      error
	Duration time.Duration
	Cwd      string
}
