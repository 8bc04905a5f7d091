package main

import (
	"github.com/spf13/cobra"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/lib/config"
	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/lib/logging"
)

var rootCmd = &cobra.Command{
	Use:   "scionic",
	Short: "Build, verify, diff, and materialize Scionic Merkle DAGs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.InitConfig(); err != nil {
			logging.Warnf("config init failed, continuing with defaults: %v", err)
		}
		return logging.InitLogger()
	},
}

// exitCodeFor maps a dag error to the exit-code contract: 0 success, 1
// input/verification error, 2 I/O error.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if dag.IsKind(err, dag.ErrKindIO) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(materializeCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(rangeCmd)
}
