package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/readmit/internal/exitcode"
	"github.com/gyeh/readmit/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the readmission model and write the artifact bundle",
	RunE:  runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&cfg.DataPath, "data", "", "Path to the labeled encounter CSV (required)")
	f.Float64Var(&cfg.TestRatio, "test-ratio", cfg.TestRatio, "Held-out fraction for evaluation")
	f.StringSliceVar(&cfg.Strict, "strict", nil, "Categorical columns that reject unseen values")
	f.IntVar(&cfg.Training.NEstimators, "n-estimators", cfg.Training.NEstimators, "Number of boosting rounds")
	f.Float64Var(&cfg.Training.LearningRate, "learning-rate", cfg.Training.LearningRate, "Shrinkage per tree")
	f.IntVar(&cfg.Training.MaxDepth, "max-depth", cfg.Training.MaxDepth, "Maximum tree depth")
	f.Int64Var(&cfg.Training.Seed, "seed", cfg.Training.Seed, "Random seed for the split and subsampling")
	_ = trainCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	log := setup(cmd)

	if err := cfg.ValidateTrain(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	bundle, summary, err := train.Run(log, train.Options{
		DataPath:    cfg.DataPath,
		ArtifactDir: cfg.ArtifactDir,
		Target:      cfg.Target,
		TestRatio:   cfg.TestRatio,
		Params:      cfg.Training,
		Strict:      cfg.Strict,
		Threshold:   cfg.Threshold,
	})
	if err != nil {
		var pe *train.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("training failed")
			switch pe.Phase {
			case "load":
				os.Exit(exitcode.ValidationError)
			case "save":
				os.Exit(exitcode.ArtifactError)
			default:
				os.Exit(exitcode.TrainError)
			}
		}
		log.Error().Err(err).Msg("training failed")
		os.Exit(exitcode.TrainError)
	}

	m := bundle.Manifest.Metrics
	fmt.Printf("Model %s: %d train rows, %d test rows, %d trees (%.1fs)\n",
		summary.ModelID, summary.TrainRows, summary.TestRows, summary.Trees, summary.DurationTotal.Seconds())
	if m.TestRows > 0 {
		fmt.Printf("Held-out log loss: %.4f\n\n", m.LogLoss)
		fmt.Print(m.Report.String())
	}
	return nil
}
