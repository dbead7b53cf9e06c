package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/recordkey/v1/kafka"
	"github.com/Aleph-Alpha/recordkey/v1/record"
	"github.com/Aleph-Alpha/recordkey/v1/schema_registry"
)

type publishOptions struct {
	brokers     []string
	topic       string
	values      string
	count       int
	registryURL string
	timeout     time.Duration
}

func newPublishCmd(opts *options) *cobra.Command {
	po := &publishOptions{}

	cmd := &cobra.Command{
		Use:   "publish --defs FILE --type TYPE --brokers HOST:PORT --topic TOPIC",
		Short: "Publish a record, or fake records, to a Kafka topic.",
		Long: `Publish sends the record given with --values, or --count fake records when
--values is empty. With --registry the type's Avro schema is registered
under the topic's value subject and values are framed with its ID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadType()
			if err != nil {
				return err
			}

			recs, err := po.records(t)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), po.timeout)
			defer cancel()

			log := opts.logger()
			defer func() { _ = log.Zap.Sync() }()

			cfg := kafka.Config{Brokers: po.brokers, Topic: po.topic}
			if po.registryURL != "" {
				cfg.ValueSchemaID, err = registerValueSchema(ctx, po.registryURL, po.topic, t)
				if err != nil {
					return err
				}
				log.Info("Registered value schema", nil, map[string]interface{}{
					"subject":   schema_registry.ValueSubject(po.topic),
					"schema_id": cfg.ValueSchemaID,
				})
			}

			producer, err := kafka.NewProducer(cfg)
			if err != nil {
				return err
			}
			producer.WithLogger(log)
			defer func() { _ = producer.Close() }()

			if err := producer.PublishBatch(ctx, recs, nil); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "published %d record(s) to %s\n", len(recs), po.topic)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&po.brokers, "brokers", []string{"localhost:9092"}, "bootstrap brokers")
	cmd.Flags().StringVar(&po.topic, "topic", "", "destination topic")
	cmd.Flags().StringVar(&po.values, "values", "", "field values as a JSON object")
	cmd.Flags().IntVar(&po.count, "count", 1, "number of fake records when --values is empty")
	cmd.Flags().StringVar(&po.registryURL, "registry", "", "schema registry URL")
	cmd.Flags().DurationVar(&po.timeout, "timeout", 30*time.Second, "overall timeout")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func (po *publishOptions) records(t *record.Type) ([]*record.Instance, error) {
	if po.values != "" {
		inst, err := t.NewFromJSON([]byte(po.values))
		if err != nil {
			return nil, err
		}
		return []*record.Instance{inst}, nil
	}

	recs := make([]*record.Instance, 0, po.count)
	for range po.count {
		inst, err := record.Fake(t)
		if err != nil {
			return nil, err
		}
		recs = append(recs, inst)
	}
	return recs, nil
}

func registerValueSchema(ctx context.Context, url, topic string, t *record.Type) (int, error) {
	client, err := schema_registry.NewClient(schema_registry.Config{URL: url})
	if err != nil {
		return 0, err
	}

	schema, err := t.AvroSchema()
	if err != nil {
		return 0, err
	}

	return client.RegisterSchema(ctx, schema_registry.ValueSubject(topic), schema, "AVRO")
}
