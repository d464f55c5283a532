package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pevans/newsgrab/fetch"
	"github.com/pevans/newsgrab/links"
)

// Discovery modes.
const (
	ModeListing = "listing"
	ModeFeed    = "feed"
)

// Custom errors for configuration validation
var (
	ErrMissingListingURL = errors.New("listing_url is required")
	ErrMissingFeedURL    = errors.New("feed_url is required in feed mode")
	ErrMissingOutputPath = errors.New("output_path is required")
	ErrInvalidMode       = errors.New("discovery_mode must be listing or feed")
	ErrInvalidTrailing   = errors.New("trailing_nav_link_count must not be negative")
	ErrInvalidTimeout    = errors.New("request_timeout must be positive")
)

// Config holds every input of a scrape run.
type Config struct {
	ListingURL string `yaml:"listing_url"`
	// BaseOrigin is prefixed to relative links. Empty means the scheme and
	// host of ListingURL.
	BaseOrigin    string `yaml:"base_origin"`
	DiscoveryMode string `yaml:"discovery_mode"`
	FeedURL       string `yaml:"feed_url"`
	OutputPath    string `yaml:"output_path"`
	// SQLitePath enables the article archive when set.
	SQLitePath     string            `yaml:"sqlite_path"`
	RequestHeaders map[string]string `yaml:"request_headers"`
	// TrailingNavLinkCount is the number of navigation links at the end of
	// the listing page that are never articles.
	TrailingNavLinkCount int           `yaml:"trailing_nav_link_count"`
	RequestTimeout       time.Duration `yaml:"request_timeout"`
}

// Default returns the configuration for news.mail.ru.
func Default() *Config {
	return &Config{
		ListingURL:    "https://news.mail.ru",
		DiscoveryMode: ModeListing,
		FeedURL:       "https://news.mail.ru/rss/",
		OutputPath:    "news.csv",
		RequestHeaders: map[string]string{
			"User-Agent": fetch.DefaultUserAgent,
		},
		TrailingNavLinkCount: links.TrailingNavLinkCount,
		RequestTimeout:       fetch.DefaultTimeout,
	}
}

// Origin returns BaseOrigin, or the scheme and host of ListingURL when
// BaseOrigin is empty.
func (c *Config) Origin() string {
	if c.BaseOrigin != "" {
		return c.BaseOrigin
	}
	u, err := url.Parse(c.ListingURL)
	if err != nil || u.Host == "" {
		return c.ListingURL
	}
	return u.Scheme + "://" + u.Host
}

// ApplyEnv overrides fields from NEWSGRAB_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("NEWSGRAB_LISTING_URL"); v != "" {
		c.ListingURL = v
	}
	if v := os.Getenv("NEWSGRAB_BASE_ORIGIN"); v != "" {
		c.BaseOrigin = v
	}
	if v := os.Getenv("NEWSGRAB_MODE"); v != "" {
		c.DiscoveryMode = v
	}
	if v := os.Getenv("NEWSGRAB_FEED_URL"); v != "" {
		c.FeedURL = v
	}
	if v := os.Getenv("NEWSGRAB_OUTPUT"); v != "" {
		c.OutputPath = v
	}
	if v := os.Getenv("NEWSGRAB_SQLITE"); v != "" {
		c.SQLitePath = v
	}
	if v := os.Getenv("NEWSGRAB_USER_AGENT"); v != "" {
		if c.RequestHeaders == nil {
			c.RequestHeaders = map[string]string{}
		}
		c.RequestHeaders["User-Agent"] = v
	}
	if v := os.Getenv("NEWSGRAB_TRAILING"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NEWSGRAB_TRAILING: %w", err)
		}
		c.TrailingNavLinkCount = n
	}
	if v := os.Getenv("NEWSGRAB_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid NEWSGRAB_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	switch c.DiscoveryMode {
	case ModeListing:
		if c.ListingURL == "" {
			return ErrMissingListingURL
		}
	case ModeFeed:
		if c.FeedURL == "" {
			return ErrMissingFeedURL
		}
	default:
		return ErrInvalidMode
	}

	if c.OutputPath == "" {
		return ErrMissingOutputPath
	}
	if c.TrailingNavLinkCount < 0 {
		return ErrInvalidTrailing
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
