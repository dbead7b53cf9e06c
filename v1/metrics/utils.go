package metrics

import (
	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// ObserveOperation records one completed operation.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := statusSuccess
	if op.Error != nil {
		status = statusError
	}

	m.operationsTotal.WithLabelValues(op.Component, op.Operation, status, errorKind(op.Error)).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation).Observe(op.Duration.Seconds())
	if op.Size > 0 {
		m.operationBytes.WithLabelValues(op.Component, op.Operation).Observe(float64(op.Size))
	}
}

// errorKind keeps label cardinality bounded: key errors are labelled by
// kind, everything else is "other".
func errorKind(err error) string {
	if err == nil {
		return "none"
	}
	if kind := recordkey.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "other"
}
