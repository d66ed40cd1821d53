package commands

import (
	"github.com/spf13/cobra"

	"pool-wizard/internal/common/logger"
)

var (
	logLevel string
	log      logger.Logger
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "poolctl",
		Short:        "Offline tools for lending pool submissions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log = logger.NewZapAdapter(logger.New(logLevel, "console", "stderr"))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(repaymentCmd(), validateCmd())
	return root
}
