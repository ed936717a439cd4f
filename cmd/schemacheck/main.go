// Command schemacheck is the GitHub Action entrypoint. It validates and
// diffs a JSON Schema on pull requests and uploads the bundled schema when a
// release is published.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/schemacheck/schemacheck-go/internal/actions"
	"github.com/schemacheck/schemacheck-go/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, actions.New(os.Getenv, os.Stdout))
	stop()
	os.Exit(code)
}
