package cli

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/recordkey/v1/record"
)

// fakeOutput is one line printed by the fake command.
type fakeOutput struct {
	Key      string           `json:"key,omitempty"`
	KeyError string           `json:"key_error,omitempty"`
	Record   *record.Instance `json:"record"`
}

func newFakeCmd(opts *options) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "fake --defs FILE --type TYPE [--count N]",
		Short: "Generate fake records and print them with their keys as JSON lines.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.loadType()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for range count {
				inst, err := record.Fake(t)
				if err != nil {
					return err
				}

				out := fakeOutput{Record: inst}
				if key, err := inst.Key(); err != nil {
					out.KeyError = err.Error()
				} else {
					out.Key = hex.EncodeToString(key)
				}

				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("failed to write fake record: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "number of records to generate")
	return cmd
}
