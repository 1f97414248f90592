package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/1siamBot/tilepatch/engine/config"
	"github.com/1siamBot/tilepatch/engine/content"
	"github.com/1siamBot/tilepatch/engine/ledger"
	"github.com/1siamBot/tilepatch/engine/logging"
	"github.com/1siamBot/tilepatch/engine/pipeline"
)

func main() {
	_ = godotenv.Load(".env")

	fs := pflag.NewFlagSet("tilepatch", pflag.ExitOnError)
	configPath := fs.String("config", "", "path to tilepatch.yaml")
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, closer, err := logging.New(cfg.Log.Options())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	failures, err := run(cfg, log)
	if err != nil {
		log.WithError(err).Error("tilepatch failed")
		closer.Close()
		os.Exit(1)
	}
	if failures > 0 {
		log.Warnf("finished with %d failed entities or rows", failures)
		closer.Close()
		os.Exit(2)
	}
}

func run(cfg *config.Config, log *logrus.Logger) (int, error) {
	packs, err := content.NewLoader(log).LoadAll(cfg.PacksDir)
	if err != nil {
		return 0, fmt.Errorf("load packs: %w", err)
	}
	entities := content.Entities(packs)
	log.WithFields(logrus.Fields{"packs": len(packs), "entities": len(entities)}).Info("content loaded")

	opts := pipeline.Options{
		HostDir:      cfg.HostDir,
		OutDir:       cfg.OutDir,
		MaxHeight:    cfg.MaxTilesheetHeight,
		CacheMaxCost: cfg.SheetCacheMaxCost,
		StartIndex:   cfg.StartIndex,
		Log:          log,
	}
	if cfg.LedgerPath != "" {
		led, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return 0, err
		}
		defer led.Close()
		opts.Ledger = led
	}

	r, err := pipeline.New(opts)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	r.AssignIDs(entities)
	sum, err := r.Run(entities)
	if err != nil {
		return 0, err
	}
	for _, path := range sum.Written {
		log.WithField("path", path).Info("wrote")
	}
	st := r.Pool().Stats()
	log.WithFields(logrus.Fields{
		"rented":    st.Rented,
		"reused":    st.Reused,
		"allocated": st.Allocated,
	}).Debug("scratch pool")
	return sum.Failures, nil
}
