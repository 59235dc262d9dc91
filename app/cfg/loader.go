package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// HTTP surface
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://watch.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key; the /api endpoints are disabled when unset"`

	// Storage locations
	DataDir      string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory holding archives, exclusions and the database"`
	SourcesDir   string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing archive source definitions (*.yml)"`
	DatabasePath string `long:"db-path" env:"DB_PATH" description:"SQLite database file (default: <data-dir>/quickwatch.db)"`

	// Archives
	OfficialArchive        string `long:"official-archive" env:"OFFICIAL_ARCHIVE" default:"archive.csv" description:"Official channels archive, relative to data dir"`
	OfficialBootstrapURL   string `long:"official-bootstrap-url" env:"OFFICIAL_BOOTSTRAP_URL" description:"Zip to fetch when the official archive is missing (sources/*.yml take precedence)"`
	ThirdPartyArchive      string `long:"third-party-archive" env:"THIRD_PARTY_ARCHIVE" default:"archive_third_party.csv" description:"Third-party channels archive, relative to data dir"`
	ThirdPartyBootstrapURL string `long:"third-party-bootstrap-url" env:"THIRD_PARTY_BOOTSTRAP_URL" description:"Zip to fetch when the third-party archive is missing (sources/*.yml take precedence)"`

	// Exclusion store
	ExclusionBackend string `long:"exclusion-backend" env:"EXCLUSION_BACKEND" default:"file" choice:"file" choice:"sqlite" choice:"redis" description:"Exclusion store backend"`
	ExclusionFile    string `long:"exclusion-file" env:"EXCLUSION_FILE" default:"not_relevant.json" description:"Exclusion file, relative to data dir"`
	RedisAddr        string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address for the redis exclusion backend"`
	RedisDB          int    `long:"redis-db" env:"REDIS_DB" default:"0" description:"Redis database number"`
	RedisKey         string `long:"redis-key" env:"REDIS_KEY" default:"quickwatch:not_relevant" description:"Redis hash key holding exclusions"`

	// Live feed
	LiveFeedKind    string   `long:"live-feed" env:"LIVE_FEED" default:"rss" choice:"rss" choice:"sheet" description:"Live feed collaborator"`
	LiveFeedURLs    []string `long:"live-feed-url" env:"LIVE_FEED_URLS" env-delim:"," description:"RSS/Atom URLs for the rss live feed"`
	SpreadsheetID   string   `long:"spreadsheet-id" env:"SPREADSHEET_ID" description:"Google spreadsheet holding the live feed and ledger tabs"`
	LiveTab         string   `long:"live-tab" env:"LIVE_TAB" default:"quickwatch" description:"Worksheet with the live feed"`
	CredentialsFile string   `long:"credentials" env:"GOOGLE_APPLICATION_CREDENTIALS" default:"credentials.json" description:"Google service account credentials file"`
	RefreshInterval int      `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"900" description:"Live feed refresh interval in seconds"`

	// Ledger
	LedgerBackend string `long:"ledger" env:"LEDGER_BACKEND" default:"sqlite" choice:"sheet" choice:"sqlite" description:"Download ledger backend"`
	LedgerTab     string `long:"ledger-tab" env:"LEDGER_TAB" default:"downloaded_movie_id" description:"Worksheet used as the download ledger"`

	// Media
	DownloadDir string `long:"download-dir" env:"DOWNLOAD_DIR" default:"./downloads" description:"Directory for downloaded media"`
	MediaFormat string `long:"media-format" env:"MEDIA_FORMAT" default:"best[ext=mp4]/best" description:"yt-dlp format selector"`

	// Background work
	WorkerCount int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"QuickWatch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads .env (when present), then flags and environment.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses args and the environment into the global configuration.
// It returns nil, nil when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:                   raw.Port,
		BaseUrl:                raw.BaseUrl,
		APIAccessKey:           raw.APIAccessKey,
		DataDir:                raw.DataDir,
		SourcesDir:             raw.SourcesDir,
		DatabasePath:           cmp.Or(raw.DatabasePath, filepath.Join(raw.DataDir, "quickwatch.db")),
		OfficialArchive:        raw.OfficialArchive,
		OfficialBootstrapURL:   raw.OfficialBootstrapURL,
		ThirdPartyArchive:      raw.ThirdPartyArchive,
		ThirdPartyBootstrapURL: raw.ThirdPartyBootstrapURL,
		ExclusionBackend:       raw.ExclusionBackend,
		ExclusionFile:          inDataDir(raw.DataDir, raw.ExclusionFile),
		RedisAddr:              raw.RedisAddr,
		RedisDB:                raw.RedisDB,
		RedisKey:               raw.RedisKey,
		LiveFeedKind:           raw.LiveFeedKind,
		LiveFeedURLs:           raw.LiveFeedURLs,
		SpreadsheetID:          raw.SpreadsheetID,
		LiveTab:                raw.LiveTab,
		CredentialsFile:        raw.CredentialsFile,
		RefreshInterval:        raw.RefreshInterval,
		LedgerBackend:          raw.LedgerBackend,
		LedgerTab:              raw.LedgerTab,
		DownloadDir:            raw.DownloadDir,
		MediaFormat:            raw.MediaFormat,
		WorkerCount:            raw.WorkerCount,
		UserAgent:              raw.UserAgent,
		Timezone:               raw.Timezone,
		Debug:                  raw.Debug,
		Version:                GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
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

func validate(cfg *Cfg) error {
	if cfg.LiveFeedKind == "rss" && len(cfg.LiveFeedURLs) == 0 {
		return fmt.Errorf("live feed 'rss' requires at least one --live-feed-url")
	}
	if (cfg.LiveFeedKind == "sheet" || cfg.LedgerBackend == "sheet") && cfg.SpreadsheetID == "" {
		return fmt.Errorf("sheet collaborators require --spreadsheet-id")
	}
	if cfg.WorkerCount < 1 {
		return fmt.Errorf("worker count must be positive")
	}
	if cfg.RefreshInterval < 0 {
		return fmt.Errorf("refresh interval must be non-negative")
	}
	return nil
}

func inDataDir(dataDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dataDir, path)
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
