package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/readmit/internal/db"
	"github.com/gyeh/readmit/internal/exitcode"
	"github.com/gyeh/readmit/internal/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a CSV of encounters into Parquet and optionally Postgres",
	RunE:  runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&cfg.InputPath, "input", "", "Path to the encounter CSV (required)")
	f.StringVar(&cfg.OutputPath, "output", "", "Path of the scored Parquet file (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-score even if this input was already stored for the model")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Write Parquet only, even when --dsn is set")
	f.Float64Var(&cfg.Threshold, "threshold", 0, "Positive-class probability cut (default from the bundle)")
	_ = scoreCmd.MarkFlagRequired("input")
	_ = scoreCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	log := setup(cmd)
	ctx := context.Background()

	if err := cfg.ValidateScore(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	p := loadPredictor(log)

	var store score.Store
	if cfg.DSN != "" && !cfg.DryRun {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		store = db.NewStore(pool, log)
	} else {
		log.Info().Msg("no database configured, writing Parquet only")
	}

	summary, err := score.Run(ctx, p, store, log, score.Options{
		InputPath:  cfg.InputPath,
		OutputPath: cfg.OutputPath,
		Force:      cfg.Force,
	})
	if err != nil {
		var pe *score.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("scoring failed")
			switch pe.Phase {
			case "read":
				os.Exit(exitcode.ValidationError)
			case "store":
				os.Exit(exitcode.CopyError)
			default:
				os.Exit(exitcode.ScoreError)
			}
		}
		log.Error().Err(err).Msg("scoring failed")
		os.Exit(exitcode.ScoreError)
	}

	fmt.Printf("Scoring complete: %d rows scored, %d rejected, %d stored, %.1f%% high risk (%.1fs)\n",
		summary.RowsScored, summary.RowsRejected, summary.RowsStored,
		100*summary.PositiveRate(), summary.DurationTotal.Seconds())
	if summary.RowsRejected > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
