package main

import (
	"NetFlowGen/internal/pipeline"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagFormat    string
	flagEncoder   string
	flagChunkSize int
	flagNRows     int64
	flagForce     bool
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <data_set> <processed_data_set>",
	Short: "Encode a raw flow dataset into a processed training artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("encoder") {
			cfg.Preprocess.Encoder = flagEncoder
		}
		if cmd.Flags().Changed("chunk-size") {
			cfg.Preprocess.ChunkSize = flagChunkSize
		}
		if cmd.Flags().Changed("nrows") {
			cfg.Preprocess.MaxRows = flagNRows
		}
		if err := cfg.Validate(); err != nil {
			return &usageError{err}
		}

		log := newLogger(cfg.Logging.Level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p := pipeline.New(cfg, log, flagFormat, args[0], args[1], flagForce)
		log.Info().Msg(p.Describe())
		_, err = p.Run(ctx)
		return err
	},
}

func init() {
	preprocessCmd.Flags().StringVar(&flagFormat, "format", "cidds", "raw dataset format")
	preprocessCmd.Flags().StringVar(&flagEncoder, "encoder", "", "encoding strategy: binary, numeric or embedding")
	preprocessCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "rows per chunk")
	preprocessCmd.Flags().Int64Var(&flagNRows, "nrows", 0, "cap on total rows read (0 = all)")
	preprocessCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "overwrite an existing output")
	rootCmd.AddCommand(preprocessCmd)
}
