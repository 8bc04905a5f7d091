package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
)

var labelsCmd = &cobra.Command{
	Use:   "labels <dag-file>",
	Short: "Print every leaf's depth-first label",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dag.LoadDagFromFile(args[0])
		if err != nil {
			return err
		}

		labels, err := dag.CalculateLabels(d)
		if err != nil {
			return err
		}

		cmd.Println("0", d.Root)
		for hash, label := range labels {
			cmd.Println(label, hash)
		}
		return nil
	},
}

var rangeCmd = &cobra.Command{
	Use:   "range <dag-file> <start> <end>",
	Short: "Print the leaf hashes labeled within [start, end]",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := dag.LoadDagFromFile(args[0])
		if err != nil {
			return err
		}

		start, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		end, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}

		if _, err := dag.CalculateLabels(d); err != nil {
			return err
		}

		hashes, err := dag.GetHashesByLabelRange(d, start, end)
		if err != nil {
			return err
		}

		for _, h := range hashes {
			cmd.Println(h)
		}
		return nil
	},
}
