// Package observability defines the hook through which components report
// the operations they perform.
//
// Components accept an optional Observer (usually through a WithObserver
// builder) and call it after each operation. A nil Observer disables
// reporting. The metrics package provides a Prometheus-backed
// implementation.
package observability

import "time"

// Observer receives one OperationContext per completed operation.
// Implementations must be safe for concurrent use and must not block.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "kafka".
	Component string

	// Operation is what was done, e.g. "produce" or "derive_key".
	Operation string

	// Resource is the primary target, e.g. a topic or record type name.
	Resource string

	// SubResource narrows Resource, e.g. the key field name.
	SubResource string

	Duration time.Duration

	// Error is nil on success.
	Error error

	// Size is the number of bytes involved, if meaningful.
	Size int64

	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }
