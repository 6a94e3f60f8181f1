package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	deviceKey    contextKey = "device"
	zoneKey      contextKey = "zone"
	chartKey     contextKey = "chart"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDevice annotates context with the device address being driven.
func WithDevice(ctx context.Context, address string) context.Context {
	if address == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceKey, address)
}

// DeviceFromContext returns the device address if present.
func DeviceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(deviceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithZone annotates context with the playback zone identifier.
func WithZone(ctx context.Context, zone int) context.Context {
	return context.WithValue(ctx, zoneKey, zone)
}

// ZoneFromContext extracts the playback zone if present.
func ZoneFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(zoneKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithChart annotates context with the test chart name.
func WithChart(ctx context.Context, chart string) context.Context {
	if chart == "" {
		return ctx
	}
	return context.WithValue(ctx, chartKey, chart)
}

// ChartFromContext returns the chart name if present.
func ChartFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(chartKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
