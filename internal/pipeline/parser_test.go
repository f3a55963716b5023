package pipeline

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseSingleSegment(t *testing.T) {
	p, err := Parse("ls -l /tmp\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(p.Segments))
	}
	if p.Segments[0].Name() != "ls" {
		t.Errorf("expected ls, got %s", p.Segments[0].Name())
	}
	if want := []string{"ls", "-l", "/tmp"}; !reflect.DeepEqual(p.Segments[0].Args, want) {
		t.Errorf("args = %q, want %q", p.Segments[0].Args, want)
	}
	if p.Mode != Foreground {
		t.Errorf("expected foreground, got %s", p.Mode)
	}
}

func TestParsePipeline(t *testing.T) {
	p, err := Parse("cat file | grep foo | wc -l")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"cat", "grep", "wc"}
	if got := p.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %q, want %q", got, want)
	}
	for i := range p.Segments {
		next, ok := p.Next(i)
		if i == len(p.Segments)-1 {
			if ok {
				t.Errorf("last segment has a successor %d", next)
			}
		} else if !ok || next != i+1 {
			t.Errorf("Next(%d) = %d, %v", i, next, ok)
		}
	}
}

func TestParseNoSpacesAroundPipe(t *testing.T) {
	p, err := Parse("echo hi|tr h H")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.String(); got != "echo hi | tr h H" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseDelimiters(t *testing.T) {
	p, err := Parse("\t echo \a a\r\tb  \n")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"echo", "a", "b"}; !reflect.DeepEqual(p.Segments[0].Args, want) {
		t.Errorf("args = %q, want %q", p.Segments[0].Args, want)
	}
}

func TestParseBackground(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"sleep 5 &", "sleep 5 &"},
		{"sleep 5&", "sleep 5 &"},
		{"sleep 5 & echo dropped", "sleep 5 &"},
		{"a | b &\n", "a | b &"},
	}
	for _, tt := range tests {
		p, err := Parse(tt.line)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.line, err)
			continue
		}
		if p.Mode != Background {
			t.Errorf("Parse(%q): mode %s", tt.line, p.Mode)
		}
		if got := p.String(); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line    string
		wantErr error
		segment int
	}{
		{"", ErrEmptyLine, -1},
		{"\n", ErrEmptyLine, -1},
		{"   \n", ErrEmptyCommand, 0},
		{"&", ErrEmptyCommand, 0},
		{"echo a||echo b", ErrEmptyCommand, 1},
		{"| cat", ErrEmptyCommand, 0},
		{"cat |", ErrEmptyCommand, 1},
		{"cat | &", ErrEmptyCommand, 1},
		{"echo " + strings.Repeat("x ", MaxArgs), ErrTooManyArgs, 0},
	}
	for _, tt := range tests {
		_, err := Parse(tt.line)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Parse(%q): got %v, want %v", tt.line, err, tt.wantErr)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): %T is not a *ParseError", tt.line, err)
			continue
		}
		if pe.Segment != tt.segment {
			t.Errorf("Parse(%q): segment %d, want %d", tt.line, pe.Segment, tt.segment)
		}
	}
}

func TestParseMaxArgs(t *testing.T) {
	line := "echo" + strings.Repeat(" x", MaxArgs-1)
	p, err := Parse(line)
	if err != nil {
		t.Fatalf("%d args should parse: %v", MaxArgs, err)
	}
	if len(p.Segments[0].Args) != MaxArgs {
		t.Errorf("got %d args", len(p.Segments[0].Args))
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("a||b")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "parse: segment 1: empty command" {
		t.Errorf("Error() = %q", got)
	}
}
