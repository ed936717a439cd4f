// Package app wires configuration, logging, telemetry and the pipeline into
// one action run, and funnels every failure into the runner's failure signal.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/schemacheck/schemacheck-go/internal/actions"
	"github.com/schemacheck/schemacheck-go/internal/config"
	"github.com/schemacheck/schemacheck-go/internal/differ"
	"github.com/schemacheck/schemacheck-go/internal/github"
	"github.com/schemacheck/schemacheck-go/internal/observability"
	"github.com/schemacheck/schemacheck-go/internal/pipeline"
	"github.com/schemacheck/schemacheck-go/internal/ratelimit"
	"github.com/schemacheck/schemacheck-go/internal/schema"
	"github.com/schemacheck/schemacheck-go/internal/validator"
)

type options struct {
	httpClient *http.Client
	rates      ratelimit.Rates
}

// Option configures Run.
type Option func(*options)

// WithHTTPClient sets the client whose transport carries every REST call.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithRates overrides the client-side request rates.
func WithRates(r ratelimit.Rates) Option {
	return func(o *options) { o.rates = r }
}

// Run performs one action run and returns the process exit code.
func Run(ctx context.Context, rt *actions.Runtime, opts ...Option) (code int) {
	defer func() {
		if p := recover(); p != nil {
			if err, ok := p.(error); ok {
				rt.SetFailed(err.Error())
			} else {
				rt.SetFailed(fmt.Sprintf("unknown error: %v", p))
			}
			code = rt.ExitCode()
		}
	}()

	o := options{httpClient: &http.Client{}, rates: ratelimit.DefaultRates()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := config.Load(rt)
	if err != nil {
		rt.SetFailed(err.Error())
		return rt.ExitCode()
	}

	logger := observability.InitLogger(cfg.LogLevel, cfg.LogFormat, rt.Writer())
	shutdown := observability.Setup(ctx, cfg.OTelEnabled, logger)
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
		metrics = nil
	}

	deps := pipeline.Deps{
		Bundler:           schema.NewLoader(logger),
		Validator:         validator.New(logger),
		Differ:            differ.NewUnified(),
		Logger:            logger,
		Metrics:           metrics,
		DiffWarnThreshold: cfg.DiffWarnThreshold,
	}
	if cfg.NeedsNetwork() {
		gh := github.NewWithHTTPClient(github.Options{
			Owner:     cfg.Owner,
			Repo:      cfg.Repo,
			APIURL:    cfg.APIURL,
			ServerURL: cfg.ServerURL,
			Token:     cfg.Token,
			Limiter:   ratelimit.New(o.rates),
		}, o.httpClient)
		deps.Releases = gh
		deps.Uploader = gh
	}
	runner := pipeline.New(deps)

	if cfg.Release.IsPublished() {
		return publish(ctx, rt, runner, cfg, logger)
	}
	return check(ctx, rt, runner, cfg, logger)
}

func publish(ctx context.Context, rt *actions.Runtime, runner *pipeline.Runner, cfg config.Config, logger *slog.Logger) int {
	logger.Info("release published, uploading bundled schema", "tag", cfg.Release.TagName)
	res, err := runner.Publish(ctx, pipeline.PublishOptions{
		SchemaPath: cfg.SchemaPath,
		OutputDir:  cfg.OutputDir,
	}, cfg.Release)
	if err != nil {
		rt.SetFailed(err.Error())
		return rt.ExitCode()
	}
	if !res.OK {
		rt.SetFailed(fmt.Sprintf("Asset upload failed with status %d", res.Status))
	}
	return rt.ExitCode()
}

func check(ctx context.Context, rt *actions.Runtime, runner *pipeline.Runner, cfg config.Config, logger *slog.Logger) int {
	res, err := runner.Check(ctx, pipeline.Options{
		SchemaPath:      cfg.SchemaPath,
		Validate:        cfg.Validate,
		CreateDiff:      cfg.CreateDiff,
		PreviousVersion: cfg.PreviousVersion,
	})
	if err != nil {
		rt.SetFailed(err.Error())
		return rt.ExitCode()
	}

	rt.SetOutput("message", res.Report.Message)
	rt.SetOutput("summary", res.Report.Summary)
	rt.AppendSummary(res.Report.Summary)
	logger.Debug("report written", "bytes", len(res.Report.Message))
	return rt.ExitCode()
}
