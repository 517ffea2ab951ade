package observability

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// TracingOptions 链路追踪选项
type TracingOptions struct {
	Enabled     bool
	Endpoint    string // OTLP/HTTP 地址；为空时输出到 stderr
	ServiceName string
	Version     string
}

// SetupTracing 安装全局 TracerProvider。未启用时返回空操作的 shutdown，
// 引擎里的 span 走 otel 默认的 noop 实现。
func SetupTracing(ctx context.Context, opts TracingOptions) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }
	if !opts.Enabled {
		return noop, nil
	}

	var exporter sdktrace.SpanExporter
	if opts.Endpoint != "" {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(opts.Endpoint))
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	}
	if err != nil {
		return noop, fmt.Errorf("创建 trace exporter 失败: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.Version),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("创建 trace resource 失败: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
