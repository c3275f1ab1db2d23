package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/config"
	"github.com/banshee-data/scan2bim/internal/db"
	"github.com/banshee-data/scan2bim/internal/version"
)

var (
	configPath = flag.String("config", "", "Tuning config (.json, .yaml or .yml); built-in defaults when empty")
	debugLog   = flag.Bool("debug", false, "Log per-run detector summaries")
	traceLog   = flag.Bool("trace", false, "Log per-candidate detector decisions")
	dbFile     = flag.String("db", "scan2bim.db", "Path to the SQLite job database")
)

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	configureLogging(os.Stderr, *debugLog, *traceLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "scan2bim: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "serve":
		return runServe(ctx, args)
	case "convert":
		return runConvert(ctx, args, out)
	case "submit":
		return runSubmit(ctx, args, out)
	case "migrate":
		return db.RunMigrateCommand(args, *dbFile, out)
	case "version":
		fmt.Fprintln(out, version.Get())
		return nil
	case "help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `scan2bim - point cloud to building model conversion

Usage: scan2bim [global flags] <command> [options]

Commands:
  serve      Run the HTTP job service
  convert    Convert a scan file locally
  submit     Upload a scan to a running service and download the result
  migrate    Manage the job database schema (up, down, status, force)
  version    Show version information
  help       Show this help message

Global flags:
`)
	flag.CommandLine.SetOutput(w)
	flag.PrintDefaults()
}

// configureLogging routes the detector log streams. Operational warnings
// always go to w.
func configureLogging(w io.Writer, debug, trace bool) {
	lw := bim.LogWriters{Ops: w}
	if debug || trace {
		lw.Diag = w
	}
	if trace {
		lw.Trace = w
	}
	bim.SetLogWriters(lw)
}

// loadTuning reads path, or returns the built-in defaults when path is
// empty.
func loadTuning(path string) (*config.TuningConfig, error) {
	if path == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(path)
}
