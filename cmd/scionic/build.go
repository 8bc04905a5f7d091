package main

import (
	"github.com/spf13/cobra"

	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/dag"
	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/lib/config"
	"github.com/HORNET-Storage/Scionic-Merkle-Tree/v2/lib/logging"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build <path>",
	Short: "Build a Scionic Merkle DAG from a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		d, err := dag.CreateDagWithConfig(args[0], &dag.BuilderConfig{
			EnableParallel: cfg.Builder.EnableParallel,
			MaxWorkers:     cfg.Builder.MaxWorkers,
			ChunkSize:      &cfg.Chunk.SizeBytes,
		})
		if err != nil {
			return err
		}

		logging.Infof("built dag %s with %d leaves", d.Root, len(d.Leafs))

		if buildOut != "" {
			if err := d.SaveToFile(buildOut); err != nil {
				return err
			}
		}

		cmd.Println(d.Root)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "write the built dag to this file")
}
