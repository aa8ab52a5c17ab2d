// Package telemetry records request metrics through the global OpenTelemetry meter. Nothing is
// exported unless the embedding program installs a meter provider.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values for Recorder.Request.
const (
	OutcomeWritten  = "written"
	OutcomeDryRun   = "dry_run"
	OutcomeNoAction = "no_action"
	OutcomeFailed   = "failed"
)

// Recorder holds the instruments for one meter.
type Recorder struct {
	requests metric.Int64Counter
	members  metric.Int64Counter
	duration metric.Float64Histogram
}

// New builds a recorder from the global meter provider.
func New() (*Recorder, error) {
	return NewWithProvider(otel.GetMeterProvider())
}

// NewWithProvider builds a recorder from provider.
func NewWithProvider(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)

	requests, err := meter.Int64Counter(
		"delegen.requests",
		metric.WithDescription("Total number of mock generation requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating requests counter: %w", err)
	}

	members, err := meter.Int64Counter(
		"delegen.members.mocked",
		metric.WithDescription("Total number of source members turned into mock members"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating members counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"delegen.request.duration",
		metric.WithDescription("Mock generation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Recorder{requests: requests, members: members, duration: duration}, nil
}

// Request records one finished request.
func (r *Recorder) Request(ctx context.Context, language, outcome string, mocked int, elapsed time.Duration) {
	if r == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.String("outcome", outcome),
	)

	r.requests.Add(ctx, 1, attrs)
	r.duration.Record(ctx, elapsed.Seconds(), attrs)

	if mocked > 0 {
		r.members.Add(ctx, int64(mocked), metric.WithAttributes(attribute.String("language", language)))
	}
}

const meterName = "github.com/toejough/mockdelegates"
