// Package pipeline runs the schema check steps: bundle, validate, diff and
// report on pull requests, or bundle and upload on a published release.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/schemacheck/schemacheck-go/internal/domain"
	"github.com/schemacheck/schemacheck-go/internal/observability"
	"github.com/schemacheck/schemacheck-go/internal/report"
	"github.com/schemacheck/schemacheck-go/internal/schema"
)

// DefaultDiffWarnThreshold is used when Deps.DiffWarnThreshold is zero.
const DefaultDiffWarnThreshold = 1000

// Deps are the collaborators a Runner is built from. Releases and Uploader
// may be nil when no step needs the network.
type Deps struct {
	Bundler   Bundler
	Validator Validator
	Differ    Differ
	Releases  ReleaseSource
	Uploader  AssetUploader
	Logger    *slog.Logger
	Metrics   *observability.Metrics

	DiffWarnThreshold int
}

// Runner executes the check and publish pipelines.
type Runner struct {
	deps   Deps
	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a Runner.
func New(deps Deps) *Runner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.DiffWarnThreshold <= 0 {
		deps.DiffWarnThreshold = DefaultDiffWarnThreshold
	}
	return &Runner{deps: deps, logger: logger, tracer: otel.Tracer("schemacheck/pipeline")}
}

// Options selects the steps of a check run.
type Options struct {
	SchemaPath      string
	Validate        bool
	CreateDiff      bool
	PreviousVersion string
}

// Result is the outcome of a check run.
type Result struct {
	Validation *domain.ValidationResult
	Diff       domain.DiffResult
	Report     domain.Report
}

// Check bundles the schema, then validates and diffs it as configured and
// renders the report. Validation failures and a missing previous version are
// reported, not returned as errors.
func (r *Runner) Check(ctx context.Context, opts Options) (Result, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.Check",
		trace.WithAttributes(
			attribute.String("schema.path", opts.SchemaPath),
			attribute.Bool("validate", opts.Validate),
			attribute.Bool("create_diff", opts.CreateDiff),
		))
	defer span.End()

	doc, err := r.bundle(ctx, opts.SchemaPath)
	if err != nil {
		return Result{}, fail(span, err)
	}

	var res Result
	if opts.Validate {
		v, err := r.validate(ctx, doc)
		if err != nil {
			return Result{}, fail(span, err)
		}
		res.Validation = &v
	}

	res.Diff, err = r.diff(ctx, opts, doc)
	if err != nil {
		return Result{}, fail(span, err)
	}

	res.Report = report.Build(report.Input{Validation: res.Validation, Diff: res.Diff})
	return res, nil
}

// PublishOptions configures a release publish.
type PublishOptions struct {
	SchemaPath string
	OutputDir  string
}

// Publish bundles the schema, writes bundled-<tag>.json to the output
// directory and uploads it to the release. Only status 200 counts as a
// successful upload; any other status is reported through the result.
func (r *Runner) Publish(ctx context.Context, opts PublishOptions, rel domain.ReleaseContext) (domain.UploadResult, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.Publish",
		trace.WithAttributes(attribute.String("release.tag", rel.TagName)))
	defer span.End()

	if err := domain.ValidateReleaseContext(rel); err != nil {
		return domain.UploadResult{}, fail(span, err)
	}
	if r.deps.Uploader == nil {
		return domain.UploadResult{}, fail(span, errors.New("pipeline: publish requires an asset uploader"))
	}

	doc, err := r.bundle(ctx, opts.SchemaPath)
	if err != nil {
		return domain.UploadResult{}, fail(span, err)
	}
	data, err := schema.Encode(doc)
	if err != nil {
		return domain.UploadResult{}, fail(span, err)
	}

	res := domain.UploadResult{AssetName: domain.BundledAssetName(rel.TagName)}
	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	res.Path = filepath.Join(dir, res.AssetName)
	if err := os.WriteFile(res.Path, data, 0o644); err != nil {
		return res, fail(span, fmt.Errorf("pipeline: write %s: %w", res.Path, err))
	}
	r.logger.Info("bundled schema written", "path", res.Path, "bytes", len(data))

	start := time.Now()
	status, err := r.deps.Uploader.UploadReleaseAsset(ctx, rel.UploadURL, res.AssetName, data)
	r.deps.Metrics.RecordStage(ctx, "upload", time.Since(start))
	if err != nil {
		return res, fail(span, err)
	}
	r.deps.Metrics.RecordUpload(ctx, status)
	span.SetAttributes(attribute.Int("http.status_code", status))

	res.Status = status
	res.OK = status == http.StatusOK
	if res.OK {
		r.logger.Info("asset upload succeeded", "asset", res.AssetName, "tag", rel.TagName)
	} else {
		r.logger.Error("asset upload failed", "asset", res.AssetName, "status", status)
		span.SetStatus(codes.Error, fmt.Sprintf("upload status %d", status))
	}
	return res, nil
}

func (r *Runner) bundle(ctx context.Context, path string) (any, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.bundle")
	defer span.End()

	start := time.Now()
	doc, err := r.deps.Bundler.Bundle(ctx, path)
	r.deps.Metrics.RecordStage(ctx, "bundle", time.Since(start))
	if err != nil {
		return nil, fail(span, fmt.Errorf("pipeline: bundle %s: %w", path, err))
	}
	return doc, nil
}

func (r *Runner) validate(ctx context.Context, doc any) (domain.ValidationResult, error) {
	ctx, span := r.tracer.Start(ctx, "pipeline.validate")
	defer span.End()

	start := time.Now()
	res, err := r.deps.Validator.Validate(ctx, doc)
	r.deps.Metrics.RecordStage(ctx, "validate", time.Since(start))
	if err != nil {
		return domain.ValidationResult{}, fail(span, fmt.Errorf("pipeline: validate: %w", err))
	}
	r.deps.Metrics.RecordValidation(ctx, string(res.Draft), res.Valid)
	span.SetAttributes(attribute.Bool("schema.valid", res.Valid), attribute.String("schema.draft", string(res.Draft)))

	if res.Valid {
		r.logger.Info("schema is valid", "draft", res.Draft)
	} else {
		r.logger.Warn("schema failed meta-schema validation", "draft", res.Draft, "errors", len(res.Errors))
	}
	return res, nil
}

func (r *Runner) diff(ctx context.Context, opts Options, doc any) (domain.DiffResult, error) {
	if !opts.CreateDiff {
		return domain.DiffResult{Outcome: domain.DiffNotConfigured}, nil
	}
	if r.deps.Releases == nil {
		return domain.DiffResult{}, errors.New("pipeline: diff requires a release source")
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.diff")
	defer span.End()
	start := time.Now()
	defer func() { r.deps.Metrics.RecordStage(ctx, "diff", time.Since(start)) }()

	noPrevious := domain.DiffResult{Outcome: domain.DiffNoPrevious}

	tag, found, err := r.deps.Releases.LatestVersion(ctx, opts.PreviousVersion)
	if err != nil {
		r.logger.Warn("previous version lookup failed", "error", err)
		return r.recordDiff(ctx, noPrevious), nil
	}
	if !found {
		r.logger.Info("no previous release or tag found")
		return r.recordDiff(ctx, noPrevious), nil
	}
	span.SetAttributes(attribute.String("previous.tag", tag))
	noPrevious.PreviousTag = tag

	prev, found, err := r.deps.Releases.DownloadBundledSchema(ctx, tag)
	if err != nil {
		r.logger.Warn("previous schema download failed", "tag", tag, "error", err)
		return r.recordDiff(ctx, noPrevious), nil
	}
	if !found {
		r.logger.Info("no bundled schema published with previous version", "tag", tag)
		return r.recordDiff(ctx, noPrevious), nil
	}

	text, err := r.deps.Differ.Diff(prev, doc)
	if err != nil {
		return domain.DiffResult{}, fail(span, fmt.Errorf("pipeline: diff: %w", err))
	}
	if text == "" {
		r.logger.Info("no difference to previous version", "tag", tag)
		return r.recordDiff(ctx, domain.DiffResult{Outcome: domain.DiffIdentical, PreviousTag: tag}), nil
	}
	if n := utf8.RuneCountInString(text); n > r.deps.DiffWarnThreshold {
		r.logger.Warn("diff is large, report formatting may degrade",
			"length", n, "threshold", r.deps.DiffWarnThreshold)
	}

	changes, err := r.deps.Differ.Summarize(prev, doc)
	if err != nil {
		r.logger.Warn("change summary unavailable", "error", err)
		changes = nil
	}
	return r.recordDiff(ctx, domain.DiffResult{
		Outcome:     domain.DiffChanged,
		PreviousTag: tag,
		Text:        text,
		Changes:     changes,
	}), nil
}

func (r *Runner) recordDiff(ctx context.Context, d domain.DiffResult) domain.DiffResult {
	r.deps.Metrics.RecordDiff(ctx, string(d.Outcome), utf8.RuneCountInString(d.Text))
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("diff.outcome", string(d.Outcome)))
	return d
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
