package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig configures periodic metric export.
type MetricsConfig struct {
	Enabled bool
	Collector
	ExportInterval time.Duration // zero means 60s
}

// MeterProvider owns the SDK meter provider. When metrics are disabled
// Meter hands out meters from the global no-op provider.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider builds the OTLP metric pipeline and sets the global provider.
func NewMeterProvider(ctx context.Context, cfg MetricsConfig, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled")
		return mp, nil
	}

	interval := cfg.ExportInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("Metrics enabled", append(cfg.fields(), zap.Duration("export_interval", interval))...)
	return mp, nil
}

// Shutdown exports the last collection and stops the reader
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	return shutdownProvider(ctx, mp.provider, "meter", mp.logger)
}

// Meter returns a named meter from this provider, or from the global one when disabled
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp == nil || mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

func (mp *MeterProvider) IsEnabled() bool { return mp != nil && mp.provider != nil }

// Metric attribute keys
var (
	AttrPaymentMethod  = attribute.Key("payment_method")
	AttrAutoDistribute = attribute.Key("auto_distribute")
	AttrOutcome        = attribute.Key("outcome")
	AttrErrorCode      = attribute.Key("error_code")
)

// PaymentMetrics records payment allocation metrics.
// A nil *PaymentMetrics is valid and records nothing.
type PaymentMetrics struct {
	paymentsTotal     metric.Int64Counter
	allocationsTotal  metric.Int64Counter
	amountReceived    metric.Float64Counter
	amountUnallocated metric.Float64Counter
	duration          metric.Float64Histogram
}

// NewPaymentMetrics creates the payment instruments on the given meter.
func NewPaymentMetrics(meter metric.Meter) (*PaymentMetrics, error) {
	m := &PaymentMetrics{}
	var err error

	if m.paymentsTotal, err = meter.Int64Counter("payments_processed_total",
		metric.WithDescription("Payments processed, by outcome"),
		metric.WithUnit("{payment}")); err != nil {
		return nil, fmt.Errorf("failed to create payments counter: %w", err)
	}
	if m.allocationsTotal, err = meter.Int64Counter("payment_allocations_total",
		metric.WithDescription("Allocation rows written"),
		metric.WithUnit("{allocation}")); err != nil {
		return nil, fmt.Errorf("failed to create allocations counter: %w", err)
	}
	if m.amountReceived, err = meter.Float64Counter("payment_amount_received",
		metric.WithDescription("Total amount of committed payments")); err != nil {
		return nil, fmt.Errorf("failed to create amount counter: %w", err)
	}
	if m.amountUnallocated, err = meter.Float64Counter("payment_amount_unallocated",
		metric.WithDescription("Amount left unallocated after auto distribution")); err != nil {
		return nil, fmt.Errorf("failed to create unallocated counter: %w", err)
	}
	if m.duration, err = meter.Float64Histogram("payment_processing_duration_seconds",
		metric.WithDescription("Time spent processing a payment"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5)); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return m, nil
}

// RecordPayment records a committed payment.
func (m *PaymentMetrics) RecordPayment(ctx context.Context, method string, autoDistribute bool, allocations int, amount, unallocated decimal.Decimal, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		AttrPaymentMethod.String(method),
		AttrAutoDistribute.Bool(autoDistribute),
		AttrOutcome.String("success"),
	)
	m.paymentsTotal.Add(ctx, 1, attrs)
	m.allocationsTotal.Add(ctx, int64(allocations), attrs)
	m.amountReceived.Add(ctx, amount.InexactFloat64(), attrs)
	if unallocated.IsPositive() {
		m.amountUnallocated.Add(ctx, unallocated.InexactFloat64(), attrs)
	}
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordFailure records a payment that was rejected or rolled back.
func (m *PaymentMetrics) RecordFailure(ctx context.Context, method, errorCode string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		AttrPaymentMethod.String(method),
		AttrOutcome.String("failure"),
		AttrErrorCode.String(errorCode),
	)
	m.paymentsTotal.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
