package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/readmit/internal/artifact"
	"github.com/gyeh/readmit/internal/exitcode"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Verify the artifact bundle and print its schema (no writes)",
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	log := setup(cmd)
	p := loadPredictor(log)

	manifest, err := artifact.LoadManifest(cfg.ArtifactDir)
	if err != nil {
		log.Error().Err(err).Msg("failed to read manifest")
		os.Exit(exitcode.ArtifactError)
	}

	strict := make(map[string]bool)
	for _, name := range p.Strict() {
		strict[name] = true
	}
	fields := make(map[string]bool)
	for _, name := range cfg.Fields {
		fields[name] = true
	}

	fmt.Println("=== Artifact Bundle ===")
	fmt.Printf("Directory:   %s\n", cfg.ArtifactDir)
	fmt.Printf("Model ID:    %s\n", manifest.ModelID)
	fmt.Printf("Created:     %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("Target:      %s == %q\n", manifest.Target, manifest.Positive)
	fmt.Printf("Threshold:   %.2f (in use: %.2f)\n", manifest.Threshold, p.Threshold())
	fmt.Printf("Trees:       %d (depth %d, lr %g)\n",
		manifest.Params.NEstimators, manifest.Params.MaxDepth, manifest.Params.LearningRate)
	if m := manifest.Metrics; m.TestRows > 0 {
		fmt.Printf("Evaluation:  %d train / %d test rows, accuracy %.3f, log loss %.4f\n",
			m.TrainRows, m.TestRows, m.Report.Accuracy, m.LogLoss)
	}

	fmt.Printf("\n=== Feature Schema (%d columns) ===\n", p.Schema().Len())
	fmt.Printf("%-28s %-12s %-20s %s\n", "column", "kind", "fill", "flags")
	var unknownFields []string
	effective := p.Schema().WithFills(cfg.Defaults)
	for _, c := range effective.Columns() {
		var flags []string
		if _, ok := cfg.Defaults[c.Name]; ok {
			flags = append(flags, "override")
		}
		if fields[c.Name] {
			flags = append(flags, "field")
		}
		if strict[c.Name] {
			flags = append(flags, "strict")
		}
		fmt.Printf("%-28s %-12s %-20s %s\n", c.Name, c.Kind, c.Fill, strings.Join(flags, ","))
	}
	for _, name := range cfg.Fields {
		if p.Schema().Index(name) < 0 {
			unknownFields = append(unknownFields, name)
		}
	}
	if len(unknownFields) > 0 {
		fmt.Printf("\nWARNING: configured fields not in schema (will be ignored): %s\n", strings.Join(unknownFields, ", "))
		os.Exit(exitcode.PartialSuccess)
	}

	fmt.Println("\nArtifacts OK")
	return nil
}
