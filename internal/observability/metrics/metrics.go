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

// Metrics exposes billing-level instruments.
type Metrics struct {
	documentWrites  metric.Int64Counter
	documentsSent   metric.Int64Counter
	exportsRendered metric.Int64Counter
	pdfRendered     metric.Int64Counter
	recurringFired  metric.Int64Counter
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

// New builds the billing instruments on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "invoicely"
	}
	meter := provider.Meter(name)

	documentWrites, err := meter.Int64Counter("invoicely_document_writes_total")
	if err != nil {
		return nil, err
	}
	documentsSent, err := meter.Int64Counter("invoicely_documents_sent_total")
	if err != nil {
		return nil, err
	}
	exportsRendered, err := meter.Int64Counter("invoicely_exports_rendered_total")
	if err != nil {
		return nil, err
	}
	pdfRendered, err := meter.Int64Counter("invoicely_pdf_rendered_total")
	if err != nil {
		return nil, err
	}
	recurringFired, err := meter.Int64Counter("invoicely_recurring_fired_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		documentWrites:  documentWrites,
		documentsSent:   documentsSent,
		exportsRendered: exportsRendered,
		pdfRendered:     pdfRendered,
		recurringFired:  recurringFired,
	}, nil
}

// RecordDocumentWrite counts committed create/update/delete transactions.
func (m *Metrics) RecordDocumentWrite(ctx context.Context, document, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("document", strings.TrimSpace(document)),
		attribute.String("operation", strings.TrimSpace(operation)),
	)
	m.documentWrites.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordDocumentSent(ctx context.Context, document string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("document", strings.TrimSpace(document)))
	m.documentsSent.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordExport(ctx context.Context, kind, format string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("format", strings.TrimSpace(format)),
	)
	m.exportsRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordPDF(ctx context.Context, variant string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("variant", strings.TrimSpace(variant)))
	m.pdfRendered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRecurringFired(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.recurringFired.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
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
	"document":  {},
	"operation": {},
	"kind":      {},
	"format":    {},
	"variant":   {},
	"outcome":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
// Caller and document identifiers never become labels.
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
