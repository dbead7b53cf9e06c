package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/recordkey/v1/kafka"
	"github.com/Aleph-Alpha/recordkey/v1/rabbit"
)

func newRouteCmd(opts *options) *cobra.Command {
	var (
		values     string
		partitions int
		balancer   string
	)

	cmd := &cobra.Command{
		Use:   "route --defs FILE --type TYPE --values JSON",
		Short: "Show where a record's key sends it.",
		Long: `Route derives the key of the record given as JSON and prints the RabbitMQ
routing key it is published with. With --partitions it also prints the Kafka
partition the configured balancer picks for it.`,
		Example: `  keyctl route --defs users.yaml --type User --values '{"_id":"abc"}' --partitions 6
  routing_key=616263 partition=4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadType()
			if err != nil {
				return err
			}

			inst, err := t.NewFromJSON([]byte(values))
			if err != nil {
				return err
			}

			key, err := inst.Key()
			if err != nil {
				return err
			}

			routingKey, err := rabbit.RoutingKey(key)
			if err != nil {
				return err
			}

			if partitions == 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "routing_key=%s\n", routingKey)
				return err
			}

			partition, err := kafka.Partition(balancer, key, partitions)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "routing_key=%s partition=%d\n", routingKey, partition)
			return err
		},
	}

	cmd.Flags().StringVar(&values, "values", "{}", "field values as a JSON object")
	cmd.Flags().IntVar(&partitions, "partitions", 0, "partition count of the Kafka topic")
	cmd.Flags().StringVar(&balancer, "balancer", kafka.DefaultBalancer, "Kafka partition balancer (murmur2, hash, crc32)")
	return cmd
}
