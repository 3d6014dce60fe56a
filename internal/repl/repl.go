// Package repl runs the interactive prompt that relays user queries to
// the agent and prints each structured response.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mcpchat/mcpchat/internal/console"
	"github.com/mcpchat/mcpchat/internal/render"
	"github.com/mcpchat/mcpchat/internal/schema"
)

const (
	// Prompt is shown before each line of input, after a blank line.
	Prompt = "You: "
	// ExitKeyword ends the loop. Matching ignores case and surrounding space.
	ExitKeyword = "quit"
)

// IsExit reports whether line asks to leave the loop.
func IsExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ExitKeyword)
}

// REPL alternates between awaiting input and processing a query.
type REPL struct {
	agent  schema.Querier
	reader LineReader
	out    *console.Printer
}

func New(agent schema.Querier, reader LineReader, out *console.Printer) *REPL {
	if out == nil {
		out = console.New(nil)
	}
	return &REPL{agent: agent, reader: reader, out: out}
}

type readResult struct {
	line string
	err  error
}

// Run blocks until the user quits, input ends, Ctrl-C is pressed or ctx
// is cancelled. All of these are normal exits. A failed query is reported
// and the loop continues.
func (r *REPL) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			r.bye()
			return nil
		}

		r.out.Break()
		readDone := make(chan readResult, 1)
		go func() {
			line, err := r.reader.ReadLine(Prompt)
			readDone <- readResult{line: line, err: err}
		}()

		var res readResult
		select {
		case res = <-readDone:
		case <-ctx.Done():
			r.out.Break()
			r.bye()
			return nil
		}

		if res.err != nil {
			if errors.Is(res.err, io.EOF) || errors.Is(res.err, ErrInterrupt) {
				r.out.Break()
				r.bye()
				return nil
			}
			return fmt.Errorf("read input: %w", res.err)
		}

		query := strings.TrimSpace(res.line)
		if query == "" {
			continue
		}
		if IsExit(query) {
			r.bye()
			return nil
		}

		r.handle(ctx, query)
	}
}

func (r *REPL) handle(ctx context.Context, query string) {
	resp, err := r.agent.Invoke(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("Agent invocation failed", "err", err)
		r.out.Errorf("Agent error: %v", err)
		return
	}

	r.out.Break()
	r.out.Println("Agent Response:")
	out, err := render.Encode(resp)
	if err != nil {
		slog.Warn("Response not JSON-encodable, printing raw value", "err", err)
		r.out.Println(render.Fallback(resp))
		return
	}
	r.out.Println(string(out))
}

func (r *REPL) bye() {
	r.out.Byef("Exiting agent loop.")
}
