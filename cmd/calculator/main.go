package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/zephyrtronium/calculator"
	"github.com/zephyrtronium/calculator/internal/config"
	"github.com/zephyrtronium/calculator/internal/shell"
	"github.com/zephyrtronium/calculator/internal/telemetry"
)

func main() {
	log.SetFlags(0)
	var (
		cfgname, inname, history string
		prec                     uint
		digits                   int
		verbose, stats           bool
	)
	flag.StringVar(&cfgname, "config", "", "configuration file (.yaml, .yml, or .json)")
	flag.StringVar(&inname, "in", "", "read expressions from a file, one per line, instead of the terminal (- for stdin)")
	flag.StringVar(&history, "history", "", "shell history file (overrides config)")
	flag.UintVar(&prec, "p", 64, "precision of calculations in bits")
	flag.IntVar(&digits, "digits", -1, "significant digits of results, or -1 for as many as needed")
	flag.BoolVar(&verbose, "v", false, "log evaluations")
	flag.BoolVar(&stats, "stats", false, "print a summary of evaluations on exit")
	flag.Parse()

	cfg := config.Default()
	if cfgname != "" {
		var err error
		cfg, err = config.FromFile(cfgname)
		if err != nil {
			log.Fatal(err)
		}
	}
	// Flags given explicitly override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Precision = prec
		case "digits":
			cfg.Digits = digits
		case "history":
			cfg.History = history
		case "v":
			if verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	level, _ := cfg.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var st *telemetry.Stats
	if stats {
		st = telemetry.NewStats()
		st.Install()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code := run(ctx, cfg, inname)
	if st != nil {
		sum, err := st.Summary(context.Background())
		if err != nil {
			slog.Error("collecting stats", slog.String("error", err.Error()))
		} else {
			fmt.Fprintln(os.Stderr, sum)
		}
		_ = st.Shutdown(context.Background())
	}
	if code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, cfg config.Config, inname string) int {
	opts := shell.Options{
		Context: calculator.NewContext(calculator.Prec(cfg.Precision)),
		Digits:  cfg.Digits,
		Prompt:  cfg.Prompt,
		Metrics: telemetry.NewRecorder(),
		Spans:   telemetry.NewSpanManager(),
	}

	// Expressions given as arguments are evaluated once each.
	if flag.NArg() > 0 {
		sh := shell.New(shell.NewLines(nil, nil), io.Discard, opts)
		code := 0
		for _, arg := range flag.Args() {
			r, err := sh.Eval(ctx, arg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
				code = 1
				continue
			}
			fmt.Println(calculator.Format(r, cfg.Digits))
		}
		return code
	}

	var in shell.LineReader
	switch inname {
	case "":
		t := shell.NewTerminal(cfg.HistoryPath())
		defer func() {
			if err := t.Close(); err != nil {
				slog.Warn("closing terminal", slog.String("error", err.Error()))
			}
		}()
		in = t
	case "-":
		in = shell.NewLines(os.Stdin, nil)
		opts.Prompt = ""
	default:
		f, err := os.Open(inname)
		if err != nil {
			log.Print(err)
			return 1
		}
		defer f.Close()
		in = shell.NewLines(f, nil)
		opts.Prompt = ""
	}
	if err := shell.New(in, os.Stdout, opts).Run(ctx); err != nil {
		log.Print(err)
		return 1
	}
	return 0
}
