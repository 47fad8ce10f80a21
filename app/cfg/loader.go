package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Aggregation inputs
	SourcesFile string `long:"sources" env:"SOURCES_FILE" default:"./sources.yml" description:"YAML file listing the feeds to aggregate"`
	CachePath   string `long:"cache" env:"CACHE_PATH" default:"./cache/orbit.db" description:"Path to the SQLite cache database"`
	OutputDir   string `long:"output-dir" env:"OUTPUT_DIR" default:"./output" description:"Directory for generated output pages"`

	// Run behavior
	WorkerCount  int   `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of concurrent feed workers"`
	FetchTimeout int   `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"20" description:"Per-feed fetch timeout in seconds"`
	RunTimeout   int   `long:"run-timeout" env:"RUN_TIMEOUT" default:"300" description:"Whole-run timeout in seconds"`
	MaxBodySize  int64 `long:"max-body-size" env:"MAX_BODY_SIZE" default:"10485760" description:"Maximum feed document size in bytes"`
	WindowSize   int   `long:"window-size" env:"WINDOW_SIZE" default:"100" description:"Cached entries kept per source"`
	MaxItems     int   `long:"max-items" env:"MAX_ITEMS" default:"60" description:"Entries included in the merged output"`

	// Site metadata for rendered pages
	SiteName   string `long:"name" env:"SITE_NAME" default:"Unconfigured Orbit" description:"Site title for generated pages"`
	SiteLink   string `long:"link" env:"SITE_LINK" default:"http://localhost:8080/" description:"Public URL of the generated site"`
	OwnerName  string `long:"owner-name" env:"OWNER_NAME" default:"Anonymous Coward" description:"Site owner name"`
	OwnerEmail string `long:"owner-email" env:"OWNER_EMAIL" description:"Site owner e-mail address"`

	// Preview server
	Serve bool   `long:"serve" env:"SERVE" description:"Serve the output directory over HTTP after the run"`
	Port  string `long:"port" env:"PORT" default:"8080" description:"Preview server port"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		SourcesFile:  raw.SourcesFile,
		CachePath:    raw.CachePath,
		OutputDir:    raw.OutputDir,
		WorkerCount:  raw.WorkerCount,
		FetchTimeout: raw.FetchTimeout,
		RunTimeout:   raw.RunTimeout,
		MaxBodySize:  raw.MaxBodySize,
		WindowSize:   raw.WindowSize,
		MaxItems:     raw.MaxItems,
		SiteName:     raw.SiteName,
		SiteLink:     raw.SiteLink,
		OwnerName:    raw.OwnerName,
		OwnerEmail:   raw.OwnerEmail,
		Serve:        raw.Serve,
		Port:         raw.Port,
		UserAgent:    cmp.Or(raw.UserAgent, fmt.Sprintf("Orbit/%s (+%s)", GetVersion(), raw.SiteLink)),
		Timezone:     raw.Timezone,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
