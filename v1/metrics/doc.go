// Package metrics exposes operation metrics in Prometheus format.
//
// *Metrics implements observability.Observer, so any component with a
// WithObserver builder (the Kafka producer in particular) can report into
// it. Key derivation failures are labelled by their recordkey error kind
// (unconfigured, missing_field, unencodable_type), which makes stale key
// configuration after a schema change visible on a dashboard.
//
// Basic Usage:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:   ":9090",
//	    Namespace: "recordkey",
//	})
//	producer = producer.WithObserver(m)
//	go m.Server.ListenAndServe()
//
// With FX, include metrics.FXModule; it provides the observer and manages
// the server lifecycle.
package metrics
