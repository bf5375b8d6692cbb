package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Error classifications recorded on failed spans as error.type.
const (
	ErrTypeValidation = "validation"
	ErrTypeSyntax     = "syntax"
	ErrTypeTimeout    = "timeout"
	ErrTypeCanceled   = "canceled"
	ErrTypeInternal   = "internal"
)

// Error origins recorded on failed spans as error.source.
const (
	ErrSourceClient = "client"
	ErrSourceServer = "server"
)

// RecordSpanError marks span as failed and tags it with the error type and,
// when non-empty, its source.
func RecordSpanError(span trace.Span, err error, errType, errSource string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	attrs := []attribute.KeyValue{attribute.String("error.type", errType)}
	if errSource != "" {
		attrs = append(attrs, attribute.String("error.source", errSource))
	}

	span.SetAttributes(attrs...)
}
