package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"notice-watcher/pkg/clean"
	"notice-watcher/pkg/config"
	"notice-watcher/pkg/export"
	"notice-watcher/pkg/pipeline"
	"notice-watcher/pkg/store"
	"notice-watcher/pkg/utils"
	"notice-watcher/pkg/watch"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runHarvest(os.Args[2:])
	case "clean":
		runClean(os.Args[2:])
	case "combine":
		runCombine(os.Args[2:])
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("notice-watcher %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `notice-watcher - Incremental regulatory-notice harvester

Usage:
  notice-watcher <command> [options]

Commands:
  run        Fetch the listing, extract new notices, update the master store
  clean      Split a run artifact into cleaned per-record documents
  combine    Combine cleaned documents into a JSONL feed
  watch      Run the harvest stage on a schedule
  validate   Validate configuration file
  version    Show version info

Run 'notice-watcher <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file.
func loadConfig(path string) (*config.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg config.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// mustLoadConfig loads, parses, and validates the config file, exiting
// on any error.
func mustLoadConfig(path string, log *logrus.Logger) *config.AppConfig {
	cfg, err := loadConfig(path)
	if err != nil {
		log.Fatalf("Config file '%s' error: %v", path, err)
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	return cfg
}

func newLogger(levelName string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelName, err)
	} else {
		log.SetLevel(level)
	}
	return log
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, with a
// forced exit on the second signal.
func signalContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, cancel
}

func runHarvest(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := newLogger(*logLevel)
	cfg := mustLoadConfig(*configFile, log)

	ctx, cancel := signalContext(log)
	defer cancel()

	result, err := pipeline.New(cfg, log).Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Run cancelled gracefully.")
			os.Exit(0)
		}
		log.WithField("error_category", utils.CategorizeError(err)).
			Errorf("Run finished with error: %v", err)
		os.Exit(1)
	}

	if result.InSync {
		fmt.Println("Everything synchronized. No new entries.")
		return
	}

	fmt.Printf("%s: %d new records, %d succeeded, %d failed (%.1f%% success)\n",
		result.ProcessType, result.NewRecords, result.Stats.Succeeded,
		result.Stats.Failed, result.Stats.SuccessRate())
	fmt.Printf("Artifact: %s\n", result.ArtifactPath)
	fmt.Printf("Master store: %d total records\n", result.TotalRecords)

	if n := len(result.Stats.Problematic); n > 0 {
		fmt.Printf("\n%d problematic records detected:\n", n)
		for i, p := range result.Stats.Problematic {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", n-5)
				break
			}
			fmt.Printf("  - %s: %s\n", p.ID, p.Reason)
		}
		fmt.Printf("\nReview %s and fix issues if needed, then run:\n", result.ArtifactPath)
		fmt.Println("  notice-watcher clean")
	}
}

func runClean(args []string) {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	inputFile := fs.String("input", "", "Run artifact to process (default: most recent artifact)")
	outDir := fs.String("out", "", "Output directory for cleaned documents (default: processed dir from config)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := newLogger(*logLevel)
	cfg := mustLoadConfig(*configFile, log)

	input := *inputFile
	if input == "" {
		input = latestArtifact(cfg)
		if input == "" {
			log.Fatalf("No run artifact found. Expected %s or %s, or pass -input.",
				cfg.InitialLoadPath(), cfg.DeltaUpdatePath())
		}
		log.Infof("Auto-detected input artifact: %s", input)
	}

	out := *outDir
	if out == "" {
		out = cfg.ProcessedDir
	}

	drift, err := store.OpenDriftIndex(cfg.StateDir, logrus.NewEntry(log))
	if err != nil {
		log.Warnf("Drift index unavailable, continuing without drift tracking: %v", err)
		drift = nil
	} else {
		defer drift.Close()
	}

	splitter := export.NewSplitter(clean.NewCleaner(cfg.Cleaner), drift, log)
	results, err := splitter.SplitAndClean(input, out)
	if err != nil {
		log.Fatalf("Split and clean failed: %v", err)
	}

	fmt.Printf("Processed %d records into %s\n", len(results), out)
}

// latestArtifact returns the most recently modified run artifact, "" when
// neither exists.
func latestArtifact(cfg *config.AppConfig) string {
	var best string
	var bestTime time.Time
	for _, path := range []string{cfg.DeltaUpdatePath(), cfg.InitialLoadPath()} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = path
			bestTime = info.ModTime()
		}
	}
	return best
}

func runCombine(args []string) {
	fs := flag.NewFlagSet("combine", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	inDir := fs.String("dir", "", "Directory of cleaned documents (default: processed dir from config)")
	outFile := fs.String("out", "", "Output JSONL path (default: <data_dir>/notices.jsonl)")
	source := fs.String("source", "oncology_notices", "Source name stamped on every feed line")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := newLogger(*logLevel)
	cfg := mustLoadConfig(*configFile, log)

	dir := *inDir
	if dir == "" {
		dir = cfg.ProcessedDir
	}
	out := *outFile
	if out == "" {
		out = cfg.DataDir + "/notices.jsonl"
	}

	stats, err := export.CombineJSONL(dir, out, *source, log)
	if err != nil {
		log.Fatalf("Combine failed: %v", err)
	}

	fmt.Printf("Wrote %d lines from %d files to %s (%d errors)\n", stats.Lines, stats.Files, out, stats.Errors)
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	intervalStr := fs.String("interval", "24h", "Harvest interval (examples: 30m, 1h, 24h, 7d)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := newLogger(*logLevel)
	cfg := mustLoadConfig(*configFile, log)

	interval, err := watch.ParseInterval(*intervalStr)
	if err != nil {
		log.Fatalf("Invalid interval: %v", err)
	}

	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	argv := []string{self, "run", "-config", *configFile, "-loglevel", *logLevel}

	scheduler := watch.NewScheduler(cfg, argv, interval, logrus.NewEntry(log).WithField("component", "watch"))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Stopping watch scheduler...", sig)
		scheduler.Stop()
	}()

	log.Infof("Watching every %s. Cleaning stays manual: review each artifact, then run the clean subcommand.",
		watch.FormatInterval(interval))
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Watch scheduler error: %v", err)
	}
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate validates the config file and reports the effective values.
// Returns the process exit code.
func doValidate(configPath string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := cfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARNING: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Configuration valid")
	fmt.Fprintf(stdout, "  listing_url:   %s\n", cfg.ListingURL)
	fmt.Fprintf(stdout, "  base_domain:   %s\n", cfg.BaseDomain)
	fmt.Fprintf(stdout, "  data_dir:      %s\n", cfg.DataDir)
	fmt.Fprintf(stdout, "  processed_dir: %s\n", cfg.ProcessedDir)
	fmt.Fprintf(stdout, "  state_dir:     %s\n", cfg.StateDir)
	return 0
}
