package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ligustah/getter/internal/config"
	"github.com/ligustah/getter/internal/downloader"
	"github.com/ligustah/getter/internal/progress"
)

// runProbe issues a HEAD request and prints the resulting chunk plan.
func runProbe(args []string) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	src := addSourceFlags(fs)

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: getter probe [options]

Send a HEAD request and show how the resource would be split.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	cfg, err := src.loadConfig(config.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if cfg.URL == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	target, err := resolveTarget(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext(false)
	defer cancel()

	info, err := downloader.GetFileInfo(ctx, target, downloaderOptions(cfg, src.logger()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error accessing source: %v\n", err)
		return ExitSourceNotAccess
	}

	printPlan(os.Stdout, info)
	return ExitSuccess
}

func printPlan(w io.Writer, info *downloader.FileInfo) {
	fmt.Fprintf(w, "Resource: %s\n", info.Target)
	fmt.Fprintf(w, "Size: %d bytes (%s)\n", info.Size, progress.FormatBytes(info.Size))
	fmt.Fprintf(w, "Accept-Ranges: %t\n", info.AcceptsRanges)
	if info.ETag != "" {
		fmt.Fprintf(w, "ETag: %s\n", info.ETag)
	}
	fmt.Fprintf(w, "Chunks: %d\n", info.Plan.ChunkCount)

	if !info.Plan.Ranged {
		fmt.Fprintln(w, "  0: whole resource, no Range header")
		return
	}
	for i, r := range info.Plan.Ranges() {
		fmt.Fprintf(w, "  %d: bytes=%s (%d bytes)\n", i, r, r.Len())
	}
}
