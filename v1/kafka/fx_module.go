package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/tracer"
)

// FXModule is an fx.Module that provides and configures the keyed producer.
// The logger, observer and tracer are picked up when present in the
// container.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,  // optional
//	    metrics.FXModule, // optional, provides the observer
//	    kafka.FXModule,
//	    fx.Provide(func() kafka.Config {
//	        return kafka.Config{
//	            Brokers: []string{"localhost:9092"},
//	            Topic:   "users",
//	        }
//	    }),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewProducerWithDI,
	),
	fx.Invoke(RegisterProducerLifecycle),
)

// ProducerParams groups the dependencies needed to create a Producer.
type ProducerParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewProducerWithDI creates a Producer from injected dependencies.
func NewProducerWithDI(params ProducerParams) (*Producer, error) {
	p, err := NewProducer(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		p = p.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		p = p.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		p = p.WithTracer(params.Tracer)
	}
	return p, nil
}

// RegisterProducerLifecycle closes the producer on application stop, which
// flushes any pending asynchronous writes.
func RegisterProducerLifecycle(lc fx.Lifecycle, p *Producer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.logger != nil {
				p.logger.Info("Kafka producer initialized", nil, map[string]interface{}{
					"topic":    p.cfg.Topic,
					"balancer": p.cfg.Balancer,
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if p.logger != nil {
				p.logger.Info("Closing Kafka producer", nil, nil)
			}
			return p.Close()
		},
	})
}
