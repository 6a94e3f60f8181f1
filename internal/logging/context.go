package logging

import (
	"context"
	"log/slog"

	"untethered/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID is the standardized key for the run correlation identifier.
	FieldCorrelationID = "correlation_id"
	// FieldDevice is the standardized key for the device address.
	FieldDevice = "device"
	// FieldZone is the standardized key for the playback zone.
	FieldZone = "zone"
	// FieldChart is the standardized key for the test chart name.
	FieldChart = "chart"
	// FieldEventType classifies warnings for filtering.
	FieldEventType = "event_type"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if device, ok := services.DeviceFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDevice, device))
	}
	if zone, ok := services.ZoneFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldZone, zone))
	}
	if chart, ok := services.ChartFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldChart, chart))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
