// Package newsgrab runs one scrape of a news portal: discover article links,
// normalize them, extract every article and hand the records back to the
// caller for persistence.
//
// Failures are handled per stage:
//
//	listing or feed fetch fails   -> logged, no links, empty result
//	fewer links than the tail     -> logged, no links, empty result
//	article link has no ID        -> logged, link skipped
//	article page fails to load    -> logged, link skipped
//	title or paragraphs missing   -> placeholder values
//
// Only an invalid configuration makes Run return an error.
package newsgrab

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsgrab/article"
	"github.com/pevans/newsgrab/config"
	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/links"
	"github.com/pevans/newsgrab/listing"
)

// Scraper performs scrape runs for one configuration.
type Scraper struct {
	config   *config.Config
	client   *fetch.Client
	progress io.Writer
}

// RunResult is everything one run produced. Records are in link order and
// may still contain repeated IDs; the store package removes them.
type RunResult struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	// LinksDiscovered counts hrefs found before the trailing block is cut.
	LinksDiscovered int
	// LinksProcessed counts the links handed to the article extractor.
	LinksProcessed int
	Skipped        int
	Records        []article.Record
}

// NewScraper creates a scraper. A nil config uses config.Default(). Progress
// lines are written to progress when it is non-nil.
func NewScraper(cfg *config.Config, progress io.Writer) *Scraper {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Scraper{
		config:   cfg,
		client:   fetch.NewClient(cfg.RequestHeaders, cfg.RequestTimeout),
		progress: progress,
	}
}

// Run discovers and extracts articles. Each call starts with an empty result
// set.
func (s *Scraper) Run(ctx context.Context) (*RunResult, error) {
	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	result := &RunResult{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Records:   []article.Record{},
	}

	log.Printf("INFO: Run %s starting (%s mode)", result.RunID, s.config.DiscoveryMode)

	discovered, toProcess := s.discover(ctx)
	result.LinksDiscovered = discovered
	result.LinksProcessed = len(toProcess)

	if len(toProcess) > 0 {
		extractor := article.NewExtractor(s.client, s.progress)
		result.Records = extractor.Extract(ctx, toProcess)
		result.Skipped = extractor.Skipped
	}

	result.Duration = time.Since(result.StartedAt)

	log.Printf("INFO: Run %s finished: %d links discovered, %d articles extracted, %d skipped in %v",
		result.RunID, result.LinksDiscovered, len(result.Records), result.Skipped, result.Duration)

	return result, nil
}

// discover returns the number of hrefs found and the links to extract.
func (s *Scraper) discover(ctx context.Context) (int, []string) {
	origin := s.config.Origin()

	if s.config.DiscoveryMode == config.ModeFeed {
		found := listing.FeedLinks(ctx, s.client, s.config.FeedURL)
		return len(found), links.Absolute(found, origin)
	}

	trailing := s.config.TrailingNavLinkCount
	found := listing.Links(ctx, s.client, s.config.ListingURL)
	discovered := len(found)
	if discovered == 0 {
		return 0, found
	}

	normalized := links.Normalize(found, origin, trailing)
	return discovered, links.TrimTrailing(normalized, trailing)
}
