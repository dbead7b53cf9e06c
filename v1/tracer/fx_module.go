package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
)

// FXModule provides the tracer and flushes it on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    tracer.FXModule,
//	    fx.Provide(func() tracer.Config {
//	        return tracer.Config{ServiceName: "orders-producer"}
//	    }),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle registers an OnStop hook that shuts the tracer
// provider down, flushing pending spans to the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, t *Tracer, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down tracer", nil, nil)
			return t.Shutdown(ctx)
		},
	})
}
