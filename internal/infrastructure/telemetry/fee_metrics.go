package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when FeeMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// FeeMetrics counts ledger corrections and audit trail gaps
type FeeMetrics struct {
	corrections   metric.Int64Counter
	auditFailures metric.Int64Counter
	sideEffects   metric.Int64Counter
}

// NewFeeMetrics registers the fee counters on meter
func NewFeeMetrics(meter metric.Meter) (*FeeMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	corrections, err := meter.Int64Counter("fee_corrections_total",
		metric.WithDescription("Fee corrections committed, by action"),
		metric.WithUnit("{correction}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter fee_corrections_total: %w", err)
	}
	auditFailures, err := meter.Int64Counter("fee_audit_write_failures_total",
		metric.WithDescription("Correction audit rows that could not be written"),
		metric.WithUnit("{failure}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter fee_audit_write_failures_total: %w", err)
	}
	sideEffects, err := meter.Int64Counter("fee_side_effect_failures_total",
		metric.WithDescription("Best-effort side effects that failed, by kind"),
		metric.WithUnit("{failure}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter fee_side_effect_failures_total: %w", err)
	}
	return &FeeMetrics{corrections: corrections, auditFailures: auditFailures, sideEffects: sideEffects}, nil
}

// RecordCorrection counts one committed correction
func (m *FeeMetrics) RecordCorrection(ctx context.Context, action string) {
	if m == nil {
		return
	}
	m.corrections.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

// RecordAuditFailure counts one audit row that was not written
func (m *FeeMetrics) RecordAuditFailure(ctx context.Context, action string, blocking bool) {
	if m == nil {
		return
	}
	m.auditFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("blocking", blocking),
	))
}

// RecordSideEffectFailure counts a failed notification, receipt or saga step
func (m *FeeMetrics) RecordSideEffectFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.sideEffects.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
