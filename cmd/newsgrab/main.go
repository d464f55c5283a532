package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pevans/newsgrab"
	"github.com/pevans/newsgrab/config"
	"github.com/pevans/newsgrab/store"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop between articles on SIGINT/SIGTERM; collected records are still
	// saved
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, finishing current article", sig)
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout))
}

// run resolves configuration, scrapes and persists. It returns the process
// exit code.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	scraper := newsgrab.NewScraper(cfg, stdout)
	result, err := scraper.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	code := persist(cfg, result, stdout)
	printSummary(stdout, result)
	return code
}

// loadConfig applies, in order, defaults, the YAML file, NEWSGRAB_*
// variables and explicitly set flags.
func loadConfig(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("newsgrab", flag.ContinueOnError)
	configPath := fs.String("config", getEnv("NEWSGRAB_CONFIG", "newsgrab.yaml"), "Path to YAML config file (NEWSGRAB_CONFIG)")
	listingURL := fs.String("url", "", "Listing page URL (NEWSGRAB_LISTING_URL)")
	baseOrigin := fs.String("base", "", "Origin prefixed to relative links (NEWSGRAB_BASE_ORIGIN)")
	mode := fs.String("mode", "", "Discovery mode: listing or feed (NEWSGRAB_MODE)")
	feedURL := fs.String("feed", "", "RSS/Atom feed URL for feed mode (NEWSGRAB_FEED_URL)")
	output := fs.String("output", "", "CSV output path (NEWSGRAB_OUTPUT)")
	sqlitePath := fs.String("sqlite", "", "SQLite archive path, empty to disable (NEWSGRAB_SQLITE)")
	userAgent := fs.String("user-agent", "", "User-Agent header (NEWSGRAB_USER_AGENT)")
	trailing := fs.Int("trailing", 0, "Navigation links at the end of the listing (NEWSGRAB_TRAILING)")
	timeout := fs.Duration("timeout", 0, "Timeout per request (NEWSGRAB_TIMEOUT)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// Only flags given on the command line override file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.ListingURL = *listingURL
		case "base":
			cfg.BaseOrigin = *baseOrigin
		case "mode":
			cfg.DiscoveryMode = *mode
		case "feed":
			cfg.FeedURL = *feedURL
		case "output":
			cfg.OutputPath = *output
		case "sqlite":
			cfg.SQLitePath = *sqlitePath
		case "user-agent":
			if cfg.RequestHeaders == nil {
				cfg.RequestHeaders = map[string]string{}
			}
			cfg.RequestHeaders["User-Agent"] = *userAgent
		case "trailing":
			cfg.TrailingNavLinkCount = *trailing
		case "timeout":
			cfg.RequestTimeout = *timeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// persist writes the CSV file and, when configured, the SQLite archive.
func persist(cfg *config.Config, result *newsgrab.RunResult, stdout io.Writer) int {
	code := 0

	_, err := store.SaveCSV(result.Records, cfg.OutputPath)
	switch {
	case errors.Is(err, store.ErrNoRecords):
		fmt.Fprintln(stdout, "Нет данных для сохранения в файл.")
		return 0
	case err != nil:
		fmt.Fprintf(stdout, "Ошибка при сохранении данных в файл: %v\n", err)
		code = 1
	default:
		fmt.Fprintf(stdout, "Данные успешно сохранены в файл %s\n", cfg.OutputPath)
	}

	if cfg.SQLitePath == "" {
		return code
	}

	archive, err := store.OpenArchive(cfg.SQLitePath)
	if err != nil {
		log.Printf("ERROR: Failed to open archive %s: %v", cfg.SQLitePath, err)
		return 1
	}
	defer archive.Close()

	inserted, err := archive.Save(result.RunID, result.Records)
	if err != nil {
		log.Printf("ERROR: Failed to archive run %s: %v", result.RunID, err)
		return 1
	}
	log.Printf("INFO: Archived %d new articles to %s", inserted, cfg.SQLitePath)

	return code
}

func printSummary(w io.Writer, result *newsgrab.RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run completed:")
	fmt.Fprintf(w, "  Run ID: %s\n", result.RunID)
	fmt.Fprintf(w, "  Links discovered: %d\n", result.LinksDiscovered)
	fmt.Fprintf(w, "  Articles extracted: %d\n", len(result.Records))
	fmt.Fprintf(w, "  Links skipped: %d\n", result.Skipped)
	fmt.Fprintf(w, "  Elapsed: %v\n", result.Duration.Round(time.Millisecond))
}
