package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-dag-file> <new-dag-file>",
	Short: "Show the leaf-hash-set difference between two dags",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldDag, err := dag.LoadDagFromFile(args[0])
		if err != nil {
			return err
		}
		newDag, err := dag.LoadDagFromFile(args[1])
		if err != nil {
			return err
		}

		d, err := dag.Diff(oldDag, newDag)
		if err != nil {
			return err
		}

		for _, entry := range d.Diffs {
			cmd.Println(fmt.Sprintf("%s %s", entry.Type, entry.Hash))
		}
		cmd.Println(fmt.Sprintf("total: %d added, %d removed", d.Summary.Added, d.Summary.Removed))
		return nil
	},
}
