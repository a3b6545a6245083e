package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/splinter/internal/config"
	"github.com/bamsammich/splinter/internal/engine"
	"github.com/bamsammich/splinter/internal/event"
	"github.com/bamsammich/splinter/internal/metrics"
	"github.com/bamsammich/splinter/internal/stats"
	"github.com/bamsammich/splinter/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// app carries state shared by every subcommand for one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config

	quiet       bool
	verbose     bool
	noProgress  bool
	showVersion bool
	logFile     string
	metricsFile string

	logCloser   io.Closer
	eventLogger *slog.Logger
	recorder    *metrics.Recorder
}

func execute(args []string, stdout, stderr io.Writer) int {
	defer engine.CleanupTmpFiles()

	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.finish()
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "splinter",
		Short:             "Split large files into numbered chunks and merge them back",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.showVersion {
				fmt.Fprintf(a.stdout, "splinter %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.Flags().BoolVar(&a.showVersion, "version", false, "print version and exit")

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.BoolVar(&a.noProgress, "no-progress", false, "disable progress display")
	pf.StringVar(&a.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&a.metricsFile, "metrics-file", "",
		"write Prometheus metrics to FILE on exit (node_exporter textfile format)")

	rootCmd.AddCommand(a.splitCmd())
	rootCmd.AddCommand(a.mergeCmd())
	rootCmd.AddCommand(a.verifyCmd())
	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

// setup loads the config file and configures logging before any subcommand
// runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := config.Load()
	a.cfg = cfg

	logLevel := slog.LevelInfo
	if a.verbose {
		logLevel = slog.LevelDebug
	} else if a.quiet {
		logLevel = slog.LevelWarn
	}
	textHandler := slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: logLevel})
	var logHandler slog.Handler = textHandler
	if a.logFile != "" {
		lf, err := os.Create(a.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logCloser = lf
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
		a.eventLogger = slog.New(jsonHandler)
	}
	slog.SetDefault(slog.New(logHandler))

	if cfgErr != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", cfgErr)
	}

	if !cmd.Flags().Changed("metrics-file") && a.cfg.Defaults.MetricsFile != nil {
		a.metricsFile = *a.cfg.Defaults.MetricsFile
	}
	if a.metricsFile != "" {
		a.recorder = metrics.NewRecorder()
	}
	return nil
}

// finish flushes metrics and closes the log file.
func (a *app) finish() {
	if a.recorder != nil {
		if err := a.recorder.WriteFile(a.metricsFile); err != nil {
			slog.Warn("failed to write metrics", "error", err)
		}
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// operation is the body of a split or merge run. Events go to sink and
// counters to st.
type operation func(ctx context.Context, sink event.Sink, st *stats.Collector) error

// runOperation runs op with a presenter attached and signal-driven
// cancellation, then records its outcome.
func (a *app) runOperation(kind, dstRoot string, op operation) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	events := make(chan event.Event, 256)

	// When --log is set, tee events through a logging goroutine
	// that writes structured records before forwarding to the presenter.
	presenterEvents := (<-chan event.Event)(events)
	if a.eventLogger != nil {
		presenterEvents = ui.TeeEvents(events, a.eventLogger)
	}

	presenter := ui.NewPresenter(ui.Config{
		Writer:     a.stdout,
		ErrWriter:  a.stderr,
		Stats:      collector,
		Kind:       kind,
		DstRoot:    dstRoot,
		IsTTY:      a.isTTY(),
		Quiet:      a.quiet,
		Verbose:    a.verbose,
		NoProgress: a.noProgress,
	})

	var presenterErr error
	var presenterWg sync.WaitGroup
	presenterWg.Add(1)
	go func() {
		defer presenterWg.Done()
		presenterErr = presenter.Run(presenterEvents)
	}()

	start := time.Now()
	err := op(ctx, event.Chan(events), collector)
	elapsed := time.Since(start)
	stop()
	close(events)
	presenterWg.Wait()
	if presenterErr != nil {
		fmt.Fprintf(a.stderr, "presenter: %v\n", presenterErr)
	}

	if !a.quiet {
		if summary := presenter.Summary(); summary != "" {
			fmt.Fprintln(a.stderr, summary)
		}
	}

	a.observe(kind, err, elapsed, collector.Snapshot())
	if err != nil {
		slog.Error(kind+" failed", "error", err)
		return &exitError{code: 1}
	}
	return nil
}

// observe feeds the metrics recorder when --metrics-file is active.
func (a *app) observe(kind string, err error, elapsed time.Duration, snap stats.Snapshot) {
	if a.recorder == nil {
		return
	}
	outcome := engine.Completed
	if err != nil {
		outcome = engine.Failed
		reason := engine.ReasonOf(err)
		if reason == event.Cancelled {
			outcome = engine.Cancelled
		}
		if reason != 0 {
			a.recorder.Failure(kind, reason)
		}
	}
	a.recorder.Observe(kind, outcome.String(), elapsed, snap)
}

func (a *app) isTTY() bool {
	f, ok := a.stderr.(*os.File)
	return ok && ui.IsTTY(f.Fd())
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
