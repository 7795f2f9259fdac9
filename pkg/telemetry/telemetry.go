// Package telemetry holds the scheduler's span attribute keys and its default
// tracer provider.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/stateforward/go-command/embedded"
)

// NewProvider returns the provider the scheduler uses when none is
// configured. Its spans record nothing.
func NewProvider() trace.TracerProvider {
	return noop.NewTracerProvider()
}

const (
	CommandName = attribute.Key("command.name")
	CommandId   = attribute.Key("command.id")
	CommandKind = attribute.Key("command.kind")
	Reason      = attribute.Key("command.end_reason")
	Phase       = attribute.Key("command.phase")
	ActiveCount = attribute.Key("scheduler.active")
)

// Attributes describes an element for span attributes and events.
func Attributes(element embedded.Element) []attribute.KeyValue {
	if element == nil {
		return nil
	}
	return []attribute.KeyValue{
		CommandName.String(element.Name()),
		CommandId.String(element.Id()),
		CommandKind.Int64(int64(element.Kind())),
	}
}
