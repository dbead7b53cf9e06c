package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schema --defs FILE --type TYPE",
		Short: "Print the Avro schema of a record type.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadType()
			if err != nil {
				return err
			}

			// compiling catches schemas goavro would reject at publish time
			if _, err := t.Codec(); err != nil {
				return err
			}

			schema, err := t.AvroSchema()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}
}
