package pipeline

import "strings"

// Syntax characters and limits of the command line.
const (
	OpPipe       = '|' // pipe (stdout → stdin)
	OpBackground = '&' // run the pipeline without waiting; the rest of the line is dropped

	// Delimiters separating arguments within a segment.
	Delimiters = " \t\r\n\a"

	// MaxArgs is the largest number of arguments (program name included)
	// a single segment may carry.
	MaxArgs = 19
)

// Mode selects whether the shell waits for a pipeline.
type Mode int

const (
	Foreground Mode = iota // block until every process changes state
	Background             // return immediately, reap asynchronously
)

func (m Mode) String() string {
	switch m {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	default:
		return "mode(?)"
	}
}

// Segment represents a single command in a pipeline.
type Segment struct {
	Args []string // program name first
	PID  int      // set once the segment's process is started; 0 for builtins
	PGID int      // process group the segment's process joined
}

// Name returns the program name.
func (s *Segment) Name() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

// Pipeline is a parsed command line. Segments are stored in launch order;
// the segment after Segments[i] is Segments[i+1].
type Pipeline struct {
	Segments []Segment
	Mode     Mode
}

// Next returns the index of the segment following i, or false if i is the
// last segment.
func (p *Pipeline) Next(i int) (int, bool) {
	if i+1 < len(p.Segments) {
		return i + 1, true
	}
	return 0, false
}

// Names returns the program name of every segment.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.Segments))
	for i := range p.Segments {
		names[i] = p.Segments[i].Name()
	}
	return names
}

// String renders the pipeline in canonical form.
func (p *Pipeline) String() string {
	parts := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		parts[i] = strings.Join(seg.Args, " ")
	}
	s := strings.Join(parts, " | ")
	if p.Mode == Background {
		s += " &"
	}
	return s
}
