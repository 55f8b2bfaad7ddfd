// Package telemetry holds the domain metrics recorded by the services.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/SabevEnlapse/LynkSkill-1-sub001/internal/platform/errs"
)

const meterName = "github.com/SabevEnlapse/LynkSkill-1-sub001"

// Metrics records operation outcomes and transfer lifecycle counts.
// A nil *Metrics records nothing.
type Metrics struct {
	operations metric.Int64Counter
	transfers  metric.Int64Counter
}

// NewMetrics registers the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	operations, err := meter.Int64Counter("authz.operations",
		metric.WithDescription("Authorization operations by name and outcome"),
		metric.WithUnit("{operation}"))
	if err != nil {
		return nil, err
	}
	transfers, err := meter.Int64Counter("authz.ownership_transfers",
		metric.WithDescription("Ownership transfer requests by state reached"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &Metrics{operations: operations, transfers: transfers}, nil
}

// RecordOperation counts one call of op with the outcome derived from err.
func (m *Metrics) RecordOperation(ctx context.Context, op string, err error) {
	if m == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", Outcome(err)),
	))
}

// RecordTransfer counts a transfer request reaching state.
func (m *Metrics) RecordTransfer(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.transfers.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// Outcome names the error kind of err, "ok" for nil and "internal" for unclassified errors.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := errs.Kind(err); k != nil {
		return k.Error()
	}
	return "internal"
}
