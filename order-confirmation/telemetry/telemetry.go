// Package telemetry builds loggers and OpenTelemetry providers for the
// order confirmation processes.
//
// Metrics are disabled by default. With CONFIRM_OTEL_ENABLED=true a periodic
// stdout exporter is installed.
package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.temporal.io/sdk/log"
)

const instrumentationScope = "voice-order-confirm"

var shutdownFns []func(context.Context) error

// NewLogger returns a JSON key/value logger writing to w, usable by Temporal clients too
func NewLogger(w io.Writer, level slog.Level) log.Logger {
	return log.NewStructuredLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// NopLogger discards everything
func NopLogger() log.Logger {
	return log.NewStructuredLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// Init installs the global meter provider. When enabled is false a no-op provider is used.
func Init(ctx context.Context, enabled bool) error {
	if !enabled {
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	exp, err := stdoutmetric.New()
	if err != nil {
		return err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second)),
	))
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, mp.Shutdown)
	return nil
}

// Shutdown flushes and stops every provider installed by Init
func Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range shutdownFns {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	shutdownFns = nil
	return errors.Join(errs...)
}

// Meter returns a meter scoped under the module name
func Meter(name string) metric.Meter {
	return otel.Meter(instrumentationScope + "/" + name)
}
