package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer used for business-level spans.
const TracerName = "anycrm-backend"

// Attribute keys for business spans. Metric attributes live in
// metrics.go as attribute.Key values; these are for trace spans.
const (
	SpanAttrAccountID       = "account_id"
	SpanAttrAccountName     = "account_name"
	SpanAttrEnrichmentState = "enrichment_state"

	SpanAttrContactID    = "contact_id"
	SpanAttrContactEmail = "contact_email"

	SpanAttrAttachmentID = "attachment_id"
	SpanAttrStorageKey   = "storage_key"
	SpanAttrFileSize     = "file_size"

	SpanAttrImportEntity = "import_entity"
	SpanAttrRowCount     = "row_count"
)

// StartSpan opens a span on the global tracer provider. The caller must
// End the returned span.
//
//	ctx, span := telemetry.StartSpan(ctx, "account.enrich")
//	defer span.End()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, opts...)
}

// StartServiceSpan opens a span named {service}.{method}, the naming
// used for application service operations.
func StartServiceSpan(ctx context.Context, service, method string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// WithAttribute attaches one attribute at span start.
func WithAttribute(key string, value interface{}) trace.SpanStartOption {
	return trace.WithAttributes(attrValue(key, value))
}

// WithSpanKind overrides the default internal span kind.
func WithSpanKind(kind trace.SpanKind) trace.SpanStartOption {
	return trace.WithSpanKind(kind)
}

// SetAttributes annotates the span from alternating key/value
// arguments. Keys must be strings; a pair with a non-string key is
// skipped, as is a trailing key without a value. Nil spans are ignored.
func SetAttributes(span trace.Span, keyValues ...interface{}) {
	if span == nil {
		return
	}
	span.SetAttributes(alternatingAttrs(keyValues)...)
}

// RecordError stores err on the span and flips its status to error.
// No-op for nil span or nil err.
func RecordError(span trace.Span, err error, opts ...trace.EventOption) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, opts...)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks the span successful. Optional; spans without an error
// status already count as successful.
func SetOK(span trace.Span) {
	if span == nil {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// AddEvent records a timestamped event on the span, with attributes in
// the same alternating key/value form as SetAttributes.
func AddEvent(span trace.Span, name string, keyValues ...interface{}) {
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(alternatingAttrs(keyValues)...))
}

func alternatingAttrs(keyValues []interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, attrValue(key, keyValues[i+1]))
		}
	}
	return attrs
}

func attrValue(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case []int:
		return attribute.IntSlice(key, v)
	case []int64:
		return attribute.Int64Slice(key, v)
	case []float64:
		return attribute.Float64Slice(key, v)
	case []bool:
		return attribute.BoolSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
