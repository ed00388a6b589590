package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// STANDARD FIELDS - HTTP
// =================================================================================

// RequestID field for the request id.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method field for the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path field for the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status field for the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration field for the request duration.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// DurationMs field for the duration in milliseconds.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes field for the response size.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// =================================================================================
// STANDARD FIELDS - DOMAIN
// =================================================================================

// Provider field for the OAuth provider tag.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// CorrelationKey field for the client-supplied correlation key.
func CorrelationKey(v string) zap.Field {
	return zap.String("correlation_key", v)
}

// EventID field for a webhook event id.
func EventID(v string) zap.Field {
	return zap.String("event_id", v)
}

// EventType field for a webhook event type.
func EventType(v string) zap.Field {
	return zap.String("event_type", v)
}

// CodeHash field for a claimed code hash (never the raw code).
func CodeHash(v string) zap.Field {
	return zap.String("code_hash", v)
}

// =================================================================================
// STANDARD FIELDS - SYSTEM
// =================================================================================

// Component field for the component/module.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op field for the current operation.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer field for the layer (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err field for an error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// GENERIC FIELDS
// =================================================================================

// Count field for a count.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Key field for a generic key.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Any generic field for any value.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String generic string field.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int generic int field.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool generic bool field.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
