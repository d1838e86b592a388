package shell

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/peterh/liner"
)

// LineReader reads lines of input for the shell.
type LineReader interface {
	// Prompt shows prompt and reads one line without its line ending. It
	// returns io.EOF once the input is exhausted.
	Prompt(prompt string) (string, error)
	// AppendHistory records a line that was evaluated successfully.
	AppendHistory(line string)
}

// Terminal is a LineReader with line editing and a history file.
type Terminal struct {
	*liner.State
	history string
}

var _ LineReader = (*Terminal)(nil)

// NewTerminal opens the terminal for line editing. If history is not empty,
// it names a file to load history from now and save it to on Close.
func NewTerminal(history string) *Terminal {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	if history != "" {
		// History is best-effort.
		if f, err := os.Open(history); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	return &Terminal{State: ln, history: history}
}

// Close saves history and restores the terminal.
func (t *Terminal) Close() error {
	var err error
	if t.history != "" {
		var f *os.File
		if f, err = os.Create(t.history); err == nil {
			_, err = t.WriteHistory(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}
		if err != nil {
			err = fmt.Errorf("save history: %w", err)
		}
	}
	if cerr := t.State.Close(); err == nil {
		err = cerr
	}
	return err
}

// Lines is a LineReader over plain text, for input that is not a terminal.
type Lines struct {
	sc  *bufio.Scanner
	out io.Writer
}

var _ LineReader = (*Lines)(nil)

// NewLines reads lines from r. Prompts are written to out, which may be nil
// to print none.
func NewLines(r io.Reader, out io.Writer) *Lines {
	sc := bufio.NewScanner(r)
	// Expressions have no length limit.
	sc.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	return &Lines{sc: sc, out: out}
}

// Prompt writes the prompt and reads the next line.
func (l *Lines) Prompt(prompt string) (string, error) {
	if l.out != nil {
		if _, err := io.WriteString(l.out, prompt); err != nil {
			return "", err
		}
	}
	if !l.sc.Scan() {
		if err := l.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return l.sc.Text(), nil
}

// AppendHistory does nothing.
func (*Lines) AppendHistory(string) {}
