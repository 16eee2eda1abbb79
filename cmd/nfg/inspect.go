package main

import (
	"NetFlowGen/internal/writer"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <processed_data_set>",
	Short: "Print the metadata of a processed dataset artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := writer.OpenDataset(args[0])
		if err != nil {
			return err
		}
		defer d.Close()

		cmd.Printf("format:   %s\n", d.Header.Format)
		cmd.Printf("encoder:  %s\n", d.Header.Encoder)
		cmd.Printf("features: %d\n", len(d.Header.FeatureNames))
		cmd.Printf("rows:     %d\n", d.Meta.Rows)
		cmd.Printf("chunks:   %d\n", d.Meta.Chunks)
		cmd.Printf("created:  %s\n", d.Meta.CreatedAt)
		if len(d.Meta.Unknown) == 0 {
			cmd.Println("unknown-category substitutions: 0")
		} else {
			cmd.Println("unknown-category substitutions:")
			for field, n := range d.Meta.Unknown {
				cmd.Printf("  %s: %d\n", field, n)
			}
		}
		for name, sm := range d.Meta.Encoding.Scales {
			cmd.Printf("scale %s: [%g, %g] %s\n", name, sm.Min, sm.Max, sm.Policy)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
