// Package cli implements the keyctl commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/recordkey/v1/logger"
	"github.com/Aleph-Alpha/recordkey/v1/record"
)

// options are the flags shared by all commands.
type options struct {
	defsPath string
	typeName string
	logLevel string
}

// NewRootCmd builds the keyctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "keyctl [command] [flags]",
		Short: "Derive, inspect and publish message keys of record types.",
		Long: `keyctl loads record types from a YAML definitions file and derives the
Kafka message key each type declares.

Key errors are printed with their exact message, e.g.
  There is no field with name invalid_id!`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.defsPath, "defs", "", "path of the YAML record definitions")
	root.PersistentFlags().StringVar(&opts.typeName, "type", "", "record type to use")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", logger.Warning, "log level (debug, info, warning, error)")
	_ = root.MarkPersistentFlagRequired("defs")
	_ = root.MarkPersistentFlagRequired("type")

	root.AddCommand(
		newDeriveCmd(opts),
		newFakeCmd(opts),
		newSchemaCmd(opts),
		newPublishCmd(opts),
		newRouteCmd(opts),
	)
	return root
}

// loadType reads the definitions file and returns the selected type.
func (o *options) loadType() (*record.Type, error) {
	f, err := os.Open(o.defsPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	types, err := record.LoadDefinitions(f)
	if err != nil {
		return nil, err
	}

	t, ok := types[o.typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not defined in %s", record.ErrUnknownType, o.typeName, o.defsPath)
	}
	return t, nil
}

func (o *options) logger() *logger.LoggerClient {
	return logger.NewLoggerClient(logger.Config{Level: o.logLevel, ServiceName: "keyctl"})
}
