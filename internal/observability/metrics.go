package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OTel metric instruments for schema checks.
type Metrics struct {
	ValidationRuns metric.Int64Counter
	DiffOutcomes   metric.Int64Counter
	DiffLength     metric.Int64Histogram
	UploadAttempts metric.Int64Counter
	StageDuration  metric.Float64Histogram
}

// NewMetrics creates the schemacheck metric instruments on mp. A nil mp
// means the global provider installed by Setup.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(ServiceName)

	validationRuns, err := meter.Int64Counter("schemacheck.validation.runs",
		metric.WithDescription("Number of meta-schema validations by result"),
	)
	if err != nil {
		return nil, err
	}

	diffOutcomes, err := meter.Int64Counter("schemacheck.diff.outcomes",
		metric.WithDescription("Number of diff computations by outcome"),
	)
	if err != nil {
		return nil, err
	}

	diffLength, err := meter.Int64Histogram("schemacheck.diff.length_chars",
		metric.WithDescription("Length of the rendered unified diff"),
	)
	if err != nil {
		return nil, err
	}

	uploadAttempts, err := meter.Int64Counter("schemacheck.upload.attempts",
		metric.WithDescription("Number of release asset uploads by HTTP status"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram("schemacheck.stage.duration_seconds",
		metric.WithDescription("Wall time spent per pipeline stage"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ValidationRuns: validationRuns,
		DiffOutcomes:   diffOutcomes,
		DiffLength:     diffLength,
		UploadAttempts: uploadAttempts,
		StageDuration:  stageDuration,
	}, nil
}

// RecordValidation records one validation run. Safe on a nil receiver.
func (m *Metrics) RecordValidation(ctx context.Context, draft string, valid bool) {
	if m == nil {
		return
	}
	m.ValidationRuns.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("draft", draft),
			attribute.Bool("valid", valid),
		),
	)
}

// RecordDiff records a diff outcome and, when a diff was rendered, its length.
func (m *Metrics) RecordDiff(ctx context.Context, outcome string, length int) {
	if m == nil {
		return
	}
	m.DiffOutcomes.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
	if length > 0 {
		m.DiffLength.Record(ctx, int64(length))
	}
}

// RecordUpload records a release asset upload attempt.
func (m *Metrics) RecordUpload(ctx context.Context, status int) {
	if m == nil {
		return
	}
	m.UploadAttempts.Add(ctx, 1,
		metric.WithAttributes(attribute.Int("status", status)),
	)
}

// RecordStage records how long a pipeline stage took.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
