package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/recordkey"
)

func TestObserveOperation_Success(t *testing.T) {
	m := NewMetrics(Config{Namespace: "test"})

	m.ObserveOperation(observability.OperationContext{
		Component: "kafka",
		Operation: "produce",
		Duration:  2 * time.Millisecond,
		Size:      64,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("kafka", "produce", "success", "none")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationBytes))
}

func TestObserveOperation_KeyErrorKinds(t *testing.T) {
	m := NewMetrics(Config{})

	m.ObserveOperation(observability.OperationContext{
		Component: "kafka",
		Operation: "derive_key",
		Error:     &recordkey.Error{Kind: recordkey.MissingField, Field: "id"},
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "kafka",
		Operation: "produce",
		Error:     errors.New("broker unavailable"),
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("kafka", "derive_key", "error", "missing_field")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("kafka", "produce", "error", "other")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.operationBytes))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(Config{Namespace: "recordkey", ServiceName: "svc"})
	m.ObserveOperation(observability.OperationContext{Component: "kafka", Operation: "produce"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `recordkey_operations_total{component="kafka",error_kind="none",operation="produce",service="svc",status="success"} 1`), body)
}

func TestNewMetrics_DefaultAddress(t *testing.T) {
	m := NewMetrics(Config{})
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
}
