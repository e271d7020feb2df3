package observability

import (
	"context"
	"time"

	"github.com/annel0/voxelgine/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ShutdownFunc завершает работу провайдера трассировки
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// При enabled=false глобальный провайдер не меняется (спаны движка no-op).
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, serviceName string, enabled bool) (ShutdownFunc, error) {
	if !enabled {
		logging.Debug("OpenTelemetry отключен")
		return noopShutdown, nil
	}

	// OTLP HTTP экспортер (по умолчанию localhost:4318)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp, err := newProvider(ctx, serviceName, trace.WithBatcher(exp))
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → 4318, service=%s)", serviceName)
	return shutdownWithTimeout(tp), nil
}

// InitWithProcessor устанавливает глобальный провайдер с произвольным обработчиком спанов.
// Используется в тестах и утилитах.
func InitWithProcessor(ctx context.Context, serviceName string, sp trace.SpanProcessor) (ShutdownFunc, error) {
	tp, err := newProvider(ctx, serviceName, trace.WithSpanProcessor(sp))
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	return shutdownWithTimeout(tp), nil
}

func newProvider(ctx context.Context, serviceName string, opts ...trace.TracerProviderOption) (*trace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}
	opts = append(opts, trace.WithResource(res))
	return trace.NewTracerProvider(opts...), nil
}

func shutdownWithTimeout(tp *trace.TracerProvider) ShutdownFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
}
