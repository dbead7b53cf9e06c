package rabbit

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
	"github.com/Aleph-Alpha/recordkey/v1/observability"
	"github.com/Aleph-Alpha/recordkey/v1/tracer"
)

// FXModule is an fx.Module that provides the keyed RabbitMQ publisher and
// keeps its connection alive for the application's lifetime.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule, // optional
//	    rabbit.FXModule,
//	    fx.Provide(func() rabbit.Config {
//	        return rabbit.Config{
//	            Connection: rabbit.Connection{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
//	            Exchange:   rabbit.Exchange{Name: "users", Declare: true},
//	        }
//	    }),
//	)
var FXModule = fx.Module("rabbit",
	fx.Provide(
		NewPublisherWithDI,
	),
	fx.Invoke(RegisterPublisherLifecycle),
)

// PublisherParams groups the dependencies needed to create a Publisher.
type PublisherParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Tracer   *tracer.Tracer         `optional:"true"`
}

// NewPublisherWithDI creates a Publisher from injected dependencies.
func NewPublisherWithDI(params PublisherParams) (*Publisher, error) {
	p, err := NewPublisher(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		p.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		p.WithObserver(params.Observer)
	}
	if params.Tracer != nil {
		p.WithTracer(params.Tracer)
	}
	return p, nil
}

// RegisterPublisherLifecycle runs RetryConnection while the application is
// up and closes the publisher on stop.
func RegisterPublisherLifecycle(lc fx.Lifecycle, p *Publisher) {
	wg := &sync.WaitGroup{}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.RetryConnection()
			}()

			p.logInfo("RabbitMQ publisher initialized", map[string]interface{}{
				"exchange": p.cfg.Exchange.Name,
				"type":     p.cfg.Exchange.Type,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.logInfo("Closing RabbitMQ publisher", nil)
			err := p.Close()
			wg.Wait()
			return err
		},
	})
}
