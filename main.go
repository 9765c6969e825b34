package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itsrody/Brave/config"
	"github.com/itsrody/Brave/engine"
	"github.com/itsrody/Brave/fetch"
	"github.com/itsrody/Brave/patterns"
	"github.com/itsrody/Brave/report"
	"github.com/itsrody/Brave/updater"
)

func main() {
	_ = godotenv.Load()

	defaultConfig := "config.yaml"
	if v := os.Getenv("BRAVE_CONFIG"); v != "" {
		defaultConfig = v
	}
	defaultData := "data"
	if v := os.Getenv("BRAVE_DATA_DIR"); v != "" {
		defaultData = v
	}

	configPath := flag.String("config", defaultConfig, "Path to configuration file")
	dataDir := flag.String("data", defaultData, "Path to data directory for caching")
	flag.Parse()

	log.Printf("Starting Brave filter-list builder...")

	// 1. Load Config
	cfgMgr := config.NewManager(*configPath)
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := cfgMgr.Get()
	log.Printf("Configuration loaded from %s (%d filter lists)", *configPath, len(cfg.FilterLists))

	switch cfg.Settings.TranslationStrategy {
	case config.StrategyCommentOut, config.StrategyDrop:
	default:
		log.Printf("Warning: unknown translation_strategy %q, untranslatable rules will be commented out",
			cfg.Settings.TranslationStrategy)
	}

	// 2. Load Pattern Database (fatal on any malformed entry)
	db, err := patterns.Load(cfg.Settings.PatternsDir)
	if err != nil {
		log.Fatalf("Failed to load pattern database: %v", err)
	}
	supported, translations, unsupported := db.Counts()
	log.Printf("Pattern database ready: %d supported, %d translatable, %d unsupported entries",
		supported, translations, unsupported)

	// 3. Wire the pipeline
	cacheDir := cfg.Settings.CacheDir
	if cacheDir == "" {
		cacheDir = *dataDir
	}
	fetcher := fetch.New(cacheDir, time.Duration(cfg.Settings.CacheTTL),
		cfg.Settings.MaxParallelDownloads, cfg.Settings.MaxRetries, nil)
	eng := engine.New(cfg, db, fetcher, nil)

	ctx := context.Background()
	var journal *report.Journal
	if cfg.Settings.ReportDB != "" {
		journal, err = report.Open(ctx, cfg.Settings.ReportDB)
		if err != nil {
			log.Fatalf("Failed to open report journal: %v", err)
		}
		defer journal.Close()
	}

	// 4. Initial build
	stats, err := eng.Run(ctx)
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	record(journal, stats)

	if cfg.Settings.RefreshInterval <= 0 {
		return
	}

	// 5. Periodic rebuilds until shutdown
	upd := updater.New(time.Duration(cfg.Settings.RefreshInterval), eng,
		func(s *engine.RunStats) { record(journal, s) }, nil)
	upd.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigChan
	log.Printf("Received signal %v, shutting down...", s)
	upd.Stop()
}

func record(journal *report.Journal, stats *engine.RunStats) {
	if journal == nil || stats == nil {
		return
	}
	if err := journal.Record(context.Background(), stats); err != nil {
		log.Printf("Warning: failed to record run %s: %v", stats.RunID, err)
	}
}
