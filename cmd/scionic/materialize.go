package main

import (
	"github.com/spf13/cobra"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize <dag-file> <dest-path>",
	Short: "Reconstruct a dag's files and directories onto disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dag.LoadDagFromFile(args[0])
		if err != nil {
			return err
		}
		return dag.Materialize(d, args[1])
	},
}
