package schema_registry

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
)

// FXModule is an fx.Module that provides the Schema Registry client as a
// Registry. keyserde.Registry takes that Registry to build key serializers
// bound to a subject's schema ID.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule, // optional
//	    schema_registry.FXModule,
//	    fx.Provide(func() schema_registry.Config {
//	        return schema_registry.Config{URL: "http://localhost:8081"}
//	    }),
//	)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams groups the dependencies needed to create a Schema Registry client
type SchemaRegistryParams struct {
	fx.In

	Config Config
}

// NewClientWithDI creates a Schema Registry client from injected
// dependencies and returns it as a Registry.
func NewClientWithDI(params SchemaRegistryParams) (Registry, error) {
	return NewClient(params.Config)
}

// SchemaRegistryLifecycleParams groups the dependencies needed for Schema Registry lifecycle management
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Registry  Registry
	Config    Config
	Logger    logger.Logger `optional:"true"`
}

// RegisterSchemaRegistryLifecycle logs the client's start and stop. The
// HTTP client holds no resources that need closing.
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	if params.Logger == nil {
		return
	}
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("Schema Registry client initialized", nil, map[string]interface{}{
				"url": params.Config.URL,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Schema Registry client shutdown", nil, nil)
			return nil
		},
	})
}
