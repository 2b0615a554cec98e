package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/readmit/internal/artifact"
	"github.com/gyeh/readmit/internal/config"
	"github.com/gyeh/readmit/internal/exitcode"
	"github.com/gyeh/readmit/internal/logging"
	"github.com/gyeh/readmit/internal/predict"
	"github.com/gyeh/readmit/internal/reconcile"
)

var cfg = config.New()

var rootCmd = &cobra.Command{
	Use:   "readmit",
	Short: "30-day readmission risk: train, predict, score and serve",
	Long: "Trains a gradient-boosted readmission model from encounter data and " +
		"serves predictions from the handful of fields a clinician actually enters.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("READMIT_DB_URL"), "Postgres connection string (or set READMIT_DB_URL)")
	pf.StringVar(&cfg.ArtifactDir, "artifacts", envOr("READMIT_ARTIFACTS", "artifacts"), "Artifact bundle directory (or set READMIT_ARTIFACTS)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	pf.StringVar(&cfg.ConfigPath, "config", "", "Optional YAML config file")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fileFlags are the flags that a config file can also set.
var fileFlags = []string{"threshold", "test-ratio", "strict", "n-estimators", "learning-rate", "max-depth", "seed"}

// markExplicit protects flags given on the command line from the config file.
func markExplicit(cmd *cobra.Command, c *config.Config) {
	for _, name := range fileFlags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			c.MarkExplicit(strings.ReplaceAll(name, "-", "_"))
		}
	}
}

// setup builds the logger and merges the config file, exiting on failure.
// Flags given on the command line win over the file.
func setup(cmd *cobra.Command) zerolog.Logger {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if cfg.ConfigPath != "" {
		markExplicit(cmd, &cfg)
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			log.Error().Err(err).Str("file", cfg.ConfigPath).Msg("config load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	return log
}

// loadPredictor loads and verifies the artifact bundle, exiting with
// ArtifactError when it cannot be used.
func loadPredictor(log zerolog.Logger) *predict.Predictor {
	if err := cfg.ValidateArtifacts(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	bundle, err := artifact.Load(cfg.ArtifactDir)
	if err != nil {
		log.Error().Err(err).Str("dir", cfg.ArtifactDir).Msg("artifact load failed")
		os.Exit(exitcode.ArtifactError)
	}
	p, err := predict.New(bundle, reconcile.DefaultsFromSchema(bundle.Schema, cfg.Defaults), cfg.Threshold)
	if err != nil {
		log.Error().Err(err).Msg("artifact bundle rejected")
		os.Exit(exitcode.ArtifactError)
	}
	log.Debug().
		Str("model_id", p.ModelID()).
		Int("columns", p.Schema().Len()).
		Float64("threshold", p.Threshold()).
		Msg("artifacts loaded")
	return p
}
