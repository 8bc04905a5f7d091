package main

import (
	"github.com/spf13/cobra"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <dag-file>",
	Short: "Verify a serialized dag (full if complete, partial if not)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dag.LoadDagFromFile(args[0])
		if err != nil {
			return err
		}

		if err := dag.Verify(d); err != nil {
			return err
		}

		cmd.Println("ok")
		return nil
	},
}
