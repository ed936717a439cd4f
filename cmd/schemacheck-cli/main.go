// Command schemacheck-cli runs the schema check steps against local files.
//
// Usage:
//
//	schemacheck-cli validate --schema PATH
//	schemacheck-cli bundle   --schema PATH [--out FILE]
//	schemacheck-cli diff     --previous PATH --schema PATH
//	schemacheck-cli report   --schema PATH [--previous PATH] [--no-validate]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schemacheck/schemacheck-go/internal/differ"
	"github.com/schemacheck/schemacheck-go/internal/observability"
	"github.com/schemacheck/schemacheck-go/internal/pipeline"
	"github.com/schemacheck/schemacheck-go/internal/schema"
	"github.com/schemacheck/schemacheck-go/internal/validator"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	observability.InitLogger(os.Getenv("SCHEMACHECK_LOG_LEVEL"), "json", os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "validate":
		cmdValidate(ctx, os.Args[2:])
	case "bundle":
		cmdBundle(ctx, os.Args[2:])
	case "diff":
		cmdDiff(ctx, os.Args[2:])
	case "report":
		cmdReport(ctx, os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: schemacheck-cli <validate|bundle|diff|report> [flags]")
	os.Exit(1)
}

func cmdValidate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("schema", "", "schema file (required)")
	_ = fs.Parse(args)

	if *path == "" {
		fs.Usage()
		os.Exit(1)
	}

	doc, err := schema.NewLoader(nil).Bundle(ctx, *path)
	if err != nil {
		log.Fatalf("bundle failed: %v", err)
	}
	res, err := validator.New(nil).Validate(ctx, doc)
	if err != nil {
		log.Fatalf("validate failed: %v", err)
	}
	printJSON(res)
	if !res.Valid {
		os.Exit(2)
	}
}

func cmdBundle(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("bundle", flag.ExitOnError)
	path := fs.String("schema", "", "schema file (required)")
	out := fs.String("out", "", "write the bundle here instead of stdout")
	_ = fs.Parse(args)

	if *path == "" {
		fs.Usage()
		os.Exit(1)
	}

	doc, err := schema.NewLoader(nil).Bundle(ctx, *path)
	if err != nil {
		log.Fatalf("bundle failed: %v", err)
	}
	data, err := schema.Encode(doc)
	if err != nil {
		log.Fatalf("encode failed: %v", err)
	}
	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("write failed: %v", err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
}

func cmdDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	prevPath := fs.String("previous", "", "previous schema file (required)")
	path := fs.String("schema", "", "current schema file (required)")
	_ = fs.Parse(args)

	if *prevPath == "" || *path == "" {
		fs.Usage()
		os.Exit(1)
	}

	loader := schema.NewLoader(nil)
	prev, err := loader.Bundle(ctx, *prevPath)
	if err != nil {
		log.Fatalf("bundle previous failed: %v", err)
	}
	cur, err := loader.Bundle(ctx, *path)
	if err != nil {
		log.Fatalf("bundle current failed: %v", err)
	}

	d := differ.NewUnified()
	d.FromFile, d.ToFile = *prevPath, *path
	text, err := d.Diff(prev, cur)
	if err != nil {
		log.Fatalf("diff failed: %v", err)
	}
	if text == "" {
		fmt.Println("no difference")
		return
	}
	fmt.Print(text)
}

// fileReleases serves a local file as the "previous release" so the report
// command runs the same pipeline as the action without network access.
type fileReleases struct {
	path   string
	loader *schema.Loader
}

func (f fileReleases) LatestVersion(_ context.Context, _ string) (string, bool, error) {
	return f.path, f.path != "", nil
}

func (f fileReleases) DownloadBundledSchema(ctx context.Context, _ string) (any, bool, error) {
	doc, err := f.loader.Bundle(ctx, f.path)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

func cmdReport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	path := fs.String("schema", "", "schema file (required)")
	prevPath := fs.String("previous", "", "previous schema file; enables the diff section")
	noValidate := fs.Bool("no-validate", false, "skip meta-schema validation")
	_ = fs.Parse(args)

	if *path == "" {
		fs.Usage()
		os.Exit(1)
	}

	loader := schema.NewLoader(nil)
	runner := pipeline.New(pipeline.Deps{
		Bundler:   loader,
		Validator: validator.New(nil),
		Differ:    differ.NewUnified(),
		Releases:  fileReleases{path: *prevPath, loader: loader},
	})
	res, err := runner.Check(ctx, pipeline.Options{
		SchemaPath: *path,
		Validate:   !*noValidate,
		CreateDiff: *prevPath != "",
	})
	if err != nil {
		log.Fatalf("check failed: %v", err)
	}
	fmt.Println(res.Report.Message)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal: %v", err)
	}
	fmt.Println(string(data))
}
