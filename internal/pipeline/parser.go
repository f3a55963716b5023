package pipeline

import (
	"strings"
)

// Parse turns one input line into a Pipeline.
//
// The first '&' anywhere in the line marks the pipeline as background and
// truncates the line there. The remainder is split on '|' and each part is
// tokenised on Delimiters. There is no quoting or escaping.
func Parse(line string) (*Pipeline, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return nil, &ParseError{Segment: -1, Err: ErrEmptyLine}
	}

	p := &Pipeline{Mode: Foreground}
	if i := strings.IndexByte(line, OpBackground); i >= 0 {
		line = line[:i]
		p.Mode = Background
	}

	parts := strings.Split(line, string(OpPipe))
	p.Segments = make([]Segment, 0, len(parts))
	for i, part := range parts {
		args, err := tokenize(part)
		if err != nil {
			return nil, &ParseError{Segment: i, Err: err}
		}
		p.Segments = append(p.Segments, Segment{Args: args})
	}
	return p, nil
}

func tokenize(s string) ([]string, error) {
	args := strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(Delimiters, r)
	})
	switch {
	case len(args) == 0:
		return nil, ErrEmptyCommand
	case len(args) > MaxArgs:
		return nil, ErrTooManyArgs
	}
	return args, nil
}
