package rabbit

import (
	"time"

	"github.com/Aleph-Alpha/recordkey/v1/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
// This is used internally to track publish and key-derivation operations for metrics.
func (p *Publisher) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if p.observer != nil {
		p.observer.ObserveOperation(observability.OperationContext{
			Component:   "rabbit",
			Operation:   operation,
			Resource:    resource,
			SubResource: subResource,
			Duration:    duration,
			Error:       err,
			Size:        size,
			Metadata:    nil,
		})
	}
}
