package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// ErrInterrupt is returned by a LineReader when the user presses Ctrl-C.
var ErrInterrupt = errors.New("interrupted")

// LineReader reads one line of user input after showing prompt. It returns
// io.EOF when input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// NewLineReader returns a line-editing reader with history when in is a
// terminal and a plain buffered reader otherwise.
func NewLineReader(in *os.File, out io.Writer, historyFile string) (LineReader, error) {
	if in != nil && term.IsTerminal(int(in.Fd())) {
		return newReadlineReader(in, out, historyFile)
	}
	var r io.Reader = os.Stdin
	if in != nil {
		r = in
	}
	return NewScannerReader(r, out), nil
}

type readlineReader struct {
	rl *readline.Instance
}

func newReadlineReader(in *os.File, out io.Writer, historyFile string) (*readlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ExitKeyword,
		Stdin:           in,
		Stdout:          out,

		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline instance: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return line, ErrInterrupt
	}
	return line, err
}

func (r *readlineReader) Close() error { return r.rl.Close() }

// ScannerReader reads newline-terminated input without line editing. It
// is used for pipes and redirected stdin.
type ScannerReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

func NewScannerReader(in io.Reader, out io.Writer) *ScannerReader {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &ScannerReader{sc: sc, out: out}
}

func (r *ScannerReader) ReadLine(prompt string) (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *ScannerReader) Close() error { return nil }
