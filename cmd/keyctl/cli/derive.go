package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

func newDeriveCmd(opts *options) *cobra.Command {
	var values string

	cmd := &cobra.Command{
		Use:   "derive --defs FILE --type TYPE --values JSON",
		Short: "Print the hex-encoded key of a record given as JSON.",
		Example: `  keyctl derive --defs users.yaml --type User --values '{"_id":"abc"}'
  616263`,
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

			_, err = fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(key))
			return err
		},
	}

	cmd.Flags().StringVar(&values, "values", "{}", "field values as a JSON object")
	return cmd
}
