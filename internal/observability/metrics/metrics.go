package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	resolutions      metric.Int64Counter
	stepsApplied     metric.Int64Counter
	priceWrites      metric.Int64Counter
	versionConflicts metric.Int64Counter
	registryRebuilds metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "pricelist"
	}
	meter := provider.Meter(name)

	resolutions, err := meter.Int64Counter("pricelist_resolutions_total")
	if err != nil {
		return nil, err
	}
	stepsApplied, err := meter.Int64Counter("pricelist_resolution_steps_total")
	if err != nil {
		return nil, err
	}
	priceWrites, err := meter.Int64Counter("pricelist_price_writes_total")
	if err != nil {
		return nil, err
	}
	versionConflicts, err := meter.Int64Counter("pricelist_version_conflicts_total")
	if err != nil {
		return nil, err
	}
	registryRebuilds, err := meter.Int64Counter("pricelist_registry_rebuilds_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		resolutions:      resolutions,
		stepsApplied:     stepsApplied,
		priceWrites:      priceWrites,
		versionConflicts: versionConflicts,
		registryRebuilds: registryRebuilds,
	}, nil
}

// RecordResolution increments resolution counts per outcome.
func (m *Metrics) RecordResolution(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.resolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordSteps counts promotion steps applied during a resolution.
func (m *Metrics) RecordSteps(ctx context.Context, kind string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("kind", strings.TrimSpace(kind)))
	m.stepsApplied.Add(ctx, count, metric.WithAttributes(attrs...))
}

// RecordPriceWrite increments price write counts per outcome.
func (m *Metrics) RecordPriceWrite(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.priceWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordVersionConflict increments optimistic-concurrency conflict counts.
func (m *Metrics) RecordVersionConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.versionConflicts.Add(ctx, 1)
}

// RecordRegistryRebuild counts promotion registry bucket rebuilds.
func (m *Metrics) RecordRegistryRebuild(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.registryRebuilds.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"outcome": {},
	"kind":    {},
	"reason":  {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
