// Package config holds the tunable parameters for the recovery engine
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every timeout and threshold the engine uses. The zero value is
// not usable; start from Default() and override fields as needed so tests can
// run with short windows.
type Config struct {
	// PollInterval is how often a strategy re-samples the observed text
	// while waiting for it to stabilize.
	PollInterval time.Duration

	// StabilizeHold is how long the sampled text must remain unchanged
	// before a strategy accepts it as complete.
	StabilizeHold time.Duration

	// DirectTimeout, ClipboardTimeout and ScrapeTimeout bound each
	// strategy individually. When a strategy runs out of time it fails
	// over to the next one.
	DirectTimeout    time.Duration
	ClipboardTimeout time.Duration
	ScrapeTimeout    time.Duration

	// MinAcceptChars rejects captures that are too short to be a real
	// response (truncated copies, echoed fragments).
	MinAcceptChars int

	// MinSections is how many of the five profile sections must be
	// non-empty before a parsed record is accepted.
	MinSections int

	// SelectorMemoryFile is where working locators are persisted between
	// runs. Empty disables persistence.
	SelectorMemoryFile string
}

// Default returns the production configuration. The values mirror the
// constants the scraper has been tuned with against the live chat UI.
func Default() Config {
	return Config{
		PollInterval:       500 * time.Millisecond,
		StabilizeHold:      7 * time.Second,
		DirectTimeout:      60 * time.Second,
		ClipboardTimeout:   120 * time.Second,
		ScrapeTimeout:      120 * time.Second,
		MinAcceptChars:     300,
		MinSections:        3,
		SelectorMemoryFile: "working_selectors_company.json",
	}
}

// FromEnv applies environment overrides on top of Default. Only the knobs
// that operators actually turn are exposed.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("STABILIZE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.StabilizeHold = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("MIN_ACCEPT_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MinAcceptChars = n
		}
	}
	if v := os.Getenv("MIN_SECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 5 {
			cfg.MinSections = n
		}
	}
	if v := os.Getenv("SELECTOR_MEMORY_FILE"); v != "" {
		cfg.SelectorMemoryFile = v
	}
	return cfg
}
