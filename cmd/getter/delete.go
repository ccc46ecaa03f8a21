package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"gocloud.dev/blob"

	"github.com/ligustah/getter/pkg/sink"
)

// runDelete removes an assembled object and its manifest, or with -partial
// only the parts left behind by an interrupted download.
func runDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)

	bucket := fs.String("bucket", "", "Bucket URL (required)")
	object := fs.String("object", "", "Object path (required)")
	force := fs.Bool("force", false, "Skip confirmation prompt")
	partial := fs.Bool("partial", false, "Only delete parts of an interrupted download")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: getter delete [options]

Remove an assembled object, its manifest and any leftover parts.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *bucket == "" || *object == "" {
		fmt.Fprintln(os.Stderr, "Error: -bucket and -object are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	if !*force {
		fmt.Printf("Delete %s from %s? [y/N]: ", *object, *bucket)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(os.Stderr, "Cancelled")
			return ExitSuccess
		}
	}

	ctx, cancel := signalContext(false)
	defer cancel()

	bkt, err := blob.OpenBucket(ctx, *bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	if *partial {
		err = sink.DeletePartial(ctx, bkt, *object)
	} else {
		err = sink.Delete(ctx, bkt, *object)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(os.Stderr, "[getter] Deleted: %s/%s\n", *bucket, *object)
	return ExitSuccess
}
