package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/readmit/internal/db"
	"github.com/gyeh/readmit/internal/exitcode"
	"github.com/gyeh/readmit/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prediction API over HTTP",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.Addr, "addr", ":8080", "Listen address")
	f.BoolVar(&cfg.Record, "record", false, "Record served predictions in Postgres (requires --dsn)")
	f.Float64Var(&cfg.Threshold, "threshold", 0, "Positive-class probability cut (default from the bundle)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := setup(cmd)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := loadPredictor(log)

	var recorder server.Recorder
	if cfg.Record {
		if err := cfg.ValidateWithDSN(); err != nil {
			log.Error().Err(err).Msg("config validation failed")
			os.Exit(exitcode.UsageError)
		}
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		recorder = db.NewPredictionLog(pool)
	}

	if log.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	h := server.NewHandlers(p, cfg.Fields, recorder, server.NewMetrics(), log)
	if err := server.New(cfg.Addr, h).Run(ctx); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(exitcode.ServerError)
	}
	return nil
}
