// Package shell implements the interactive read-evaluate-print loop of the
// calculator.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/peterh/liner"

	"github.com/zephyrtronium/calculator"
	"github.com/zephyrtronium/calculator/internal/telemetry"
)

// Options configures a Shell. Zero fields take defaults.
type Options struct {
	// Context evaluates expressions. Default is calculator.NewContext().
	Context *calculator.Context
	// Digits is the number of significant digits to print, or -1 (the
	// default when zero) for as many as identify the result.
	Digits int
	// Prompt is shown before each line.
	Prompt string
	// Logger receives session logs. Default is slog.Default().
	Logger *slog.Logger
	// Metrics and Spans default to telemetry.Noop.
	Metrics telemetry.Recorder
	Spans   telemetry.SpanManager
}

// Shell reads expressions line by line and prints their values.
type Shell struct {
	in      LineReader
	out     io.Writer
	ctx     *calculator.Context
	digits  int
	prompt  string
	log     *slog.Logger
	metrics telemetry.Recorder
	spans   telemetry.SpanManager
	session string
}

// New creates a shell reading from in and printing to out.
func New(in LineReader, out io.Writer, opts Options) *Shell {
	s := &Shell{
		in:      in,
		out:     out,
		ctx:     opts.Context,
		digits:  opts.Digits,
		prompt:  opts.Prompt,
		metrics: opts.Metrics,
		spans:   opts.Spans,
		session: uuid.NewString(),
	}
	if s.ctx == nil {
		s.ctx = calculator.NewContext()
	}
	if s.digits == 0 {
		s.digits = -1
	}
	if s.metrics == nil {
		s.metrics = telemetry.Noop{}
	}
	if s.spans == nil {
		s.spans = telemetry.Noop{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s.log = log.With(slog.String("session", s.session))
	return s
}

// Session returns the identifier of the shell's session.
func (s *Shell) Session() string {
	return s.session
}

// Context returns the evaluation context currently in use.
func (s *Shell) Context() *calculator.Context {
	return s.ctx
}

// Run reads and handles lines until the input ends, a line ends the session,
// or ctx is cancelled. Bad expressions never end the loop.
func (s *Shell) Run(ctx context.Context) error {
	s.log.Info("session started", slog.Uint64("precision", uint64(s.ctx.Prec())))
	defer s.log.Info("session ended")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.in.Prompt(s.prompt)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, liner.ErrPromptAborted):
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}
		if s.Handle(ctx, line) {
			return nil
		}
	}
}

// Handle processes one line of input and reports whether it ends the session.
// A blank line or one containing exit or quit ends the session.
func (s *Shell) Handle(ctx context.Context, line string) (done bool) {
	src := strings.TrimSpace(line)
	lower := strings.ToLower(src)
	if src == "" || strings.Contains(lower, "exit") || strings.Contains(lower, "quit") {
		return true
	}
	fields := strings.Fields(lower)
	switch fields[0] {
	case "help":
		s.help()
		return false
	case "precision":
		s.setPrec(fields[1:])
		return false
	case "digits":
		s.setDigits(fields[1:])
		return false
	}
	r, err := s.Eval(ctx, src)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return false
	}
	fmt.Fprintf(s.out, "%s = %s\n", src, calculator.Format(r, s.digits))
	s.in.AppendHistory(src)
	return false
}

// Eval evaluates an expression in the shell's context, recording its metrics
// and span.
func (s *Shell) Eval(ctx context.Context, src string) (*big.Float, error) {
	prec := s.ctx.Prec()
	ctx, span := s.spans.StartEval(ctx, s.session, src, prec)
	start := time.Now()
	r, err := s.ctx.EvalString(src)
	d := time.Since(start)
	s.metrics.RecordEvaluation(ctx, prec, d, err)
	s.spans.End(span, err)
	if err != nil {
		s.log.Debug("evaluation failed",
			slog.String("expression", src),
			slog.String("kind", calculator.ErrorKind(err)),
			slog.String("error", err.Error()))
		return nil, err
	}
	s.log.Debug("evaluated",
		slog.String("expression", src),
		slog.Duration("duration", d))
	return r, nil
}

func (s *Shell) setPrec(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "precision = %d bits\n", s.ctx.Prec())
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if len(args) > 1 || err != nil || n == 0 || n > big.MaxPrec {
		fmt.Fprintf(s.out, "precision must be a number of bits from 1 to %d\n", uint64(big.MaxPrec))
		return
	}
	s.ctx = s.ctx.Clone(calculator.Prec(uint(n)))
	s.log.Info("precision changed", slog.Uint64("precision", n))
	fmt.Fprintf(s.out, "precision = %d bits\n", n)
}

func (s *Shell) setDigits(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "digits = %d\n", s.digits)
		return
	}
	n, err := strconv.Atoi(args[0])
	if len(args) > 1 || err != nil || n == 0 || n < -1 {
		fmt.Fprintln(s.out, "digits must be positive, or -1 for as many as needed")
		return
	}
	s.digits = n
	fmt.Fprintf(s.out, "digits = %d\n", n)
}

func (s *Shell) help() {
	var opers, funcs []string
	ops := s.ctx.Ops()
	for _, name := range ops.Names() {
		op, _ := ops.Lookup(name)
		if op.Kind == calculator.Operator {
			opers = append(opers, name)
			continue
		}
		switch op.Arity {
		case -1:
			funcs = append(funcs, name+"(a, ...)")
		case 1:
			funcs = append(funcs, name+"(x)")
		default:
			funcs = append(funcs, name+"/"+strconv.Itoa(op.Arity))
		}
	}
	fmt.Fprintln(s.out, "operators:", strings.Join(opers, " "))
	fmt.Fprintln(s.out, "functions:", strings.Join(funcs, " "))
	fmt.Fprintln(s.out, "constants: pi e")
	fmt.Fprintln(s.out, "commands:  precision [bits], digits [n], help, exit")
}
