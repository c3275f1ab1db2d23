package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/remote"
)

func runSubmit(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:8080", "Base URL of the scan2bim service")
	format := fs.String("format", "ifc", "Export format to download ("+formatList()+")")
	output := fs.String("o", "", "Output file (defaults to <scan>.<format> next to the scan)")
	poll := fs.Duration("poll", time.Second, "Status polling interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("submit expects exactly one scan file, got %d", fs.NArg())
	}
	input := fs.Arg(0)
	f, err := pipeline.ParseFormat(*format)
	if err != nil {
		return err
	}
	dst := *output
	if dst == "" {
		dst = strings.TrimSuffix(input, filepath.Ext(input)) + f.Extension()
	}
	return submit(ctx, remote.New(*server, nil), input, f, dst, *poll, out)
}

func submit(ctx context.Context, c *remote.Client, input string, f pipeline.Format, dst string, poll time.Duration, out io.Writer) error {
	c.PollInterval = poll

	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	j, err := c.Upload(ctx, filepath.Base(input), in)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	fmt.Fprintf(out, "uploaded %s as job %s\n", input, j.ID)
	if err := c.Process(ctx, j.ID); err != nil {
		return fmt.Errorf("process: %w", err)
	}
	if _, err := c.Wait(ctx, j.ID); err != nil {
		return err
	}

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := c.Export(ctx, j.ID, string(f), w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s\n", dst)
	return nil
}
