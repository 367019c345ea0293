// Package config provides configuration loading from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/usestring/quietsearch/pkg/extract"
	"github.com/usestring/quietsearch/pkg/linksan"
	"github.com/usestring/quietsearch/pkg/types"
	"github.com/usestring/quietsearch/pkg/upstream"
)

// Search handle cache defaults
const (
	DefaultSearchCacheMaxItems = 128
	DefaultSuggestLimitValue   = 10
)

// Config holds all configuration for quietsearch.
type Config struct {
	UpstreamBaseURL     string        // QUIETSEARCH_UPSTREAM_URL, default "https://www.google.com"
	UpstreamTimeout     time.Duration // UPSTREAM_TIMEOUT_MS, default 10000ms (10s)
	TargetTimeout       time.Duration // TARGET_TIMEOUT_MS, default 10000ms (10s)
	MaxResponseBytes    int           // MAX_RESPONSE_BYTES, default 4 MiB
	UserAgent           string        // QUIETSEARCH_USER_AGENT, default "" (randomized)
	PublicURL           string        // QUIETSEARCH_URL, default "" (relative viewer links)
	AllowPrivateTargets bool          // QUIETSEARCH_ALLOW_PRIVATE_TARGETS, default false
	BangsFile           string        // QUIETSEARCH_BANGS_FILE, default "" (bangs disabled)
	SettingsFile        string        // QUIETSEARCH_SETTINGS_FILE, default ""
	SearchCacheMaxItems int           // SEARCH_CACHE_MAX_ITEMS, default 128
	DefaultSuggestLimit int           // DEFAULT_SUGGEST_LIMIT, default 10

	// Filter defaults. Country and language also accept the provider forms.
	Country   string // QUIETSEARCH_COUNTRY, e.g. "DE" or "countryDE"
	Language  string // QUIETSEARCH_LANGUAGE, e.g. "de" or "lang_de"
	TimeRange string // QUIETSEARCH_TIME_RANGE, hour|day|month|year
	NoJS      bool   // QUIETSEARCH_NOJS, default false
	Dark      bool   // QUIETSEARCH_DARK, default false
	Near      string // QUIETSEARCH_NEAR, city name
	Safe      bool   // QUIETSEARCH_SAFE, default false
	Alts      bool   // QUIETSEARCH_ALTS, default false

	// Result filters
	BlockedSites []string // QUIETSEARCH_BLOCK, comma-separated hosts
	BlockTitle   string   // QUIETSEARCH_BLOCK_TITLE, regular expression
	BlockURL     string   // QUIETSEARCH_BLOCK_URL, regular expression

	// Set from the settings file only
	ViewerEndpoint      string            // script_free_endpoint, overrides the QUIETSEARCH_URL derived one
	ExtraTrackingParams []string          // tracking_params
	InternalHosts       []string          // internal_hosts
	Extraction          *extract.Rules    // extraction
	SiteAlternatives    map[string]string // site_alternatives, nil means linksan.DefaultSiteAlternatives

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, text or json, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true

	appliedSettings string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		UpstreamBaseURL:     getEnvString("QUIETSEARCH_UPSTREAM_URL", upstream.DefaultBaseURL),
		UpstreamTimeout:     getEnvDurationMs("UPSTREAM_TIMEOUT_MS", 10000),
		TargetTimeout:       getEnvDurationMs("TARGET_TIMEOUT_MS", 10000),
		MaxResponseBytes:    getEnvInt("MAX_RESPONSE_BYTES", upstream.DefaultMaxBytes),
		UserAgent:           getEnvString("QUIETSEARCH_USER_AGENT", ""),
		PublicURL:           getEnvString("QUIETSEARCH_URL", ""),
		AllowPrivateTargets: getEnvBool("QUIETSEARCH_ALLOW_PRIVATE_TARGETS", false),
		BangsFile:           getEnvString("QUIETSEARCH_BANGS_FILE", ""),
		SettingsFile:        getEnvString("QUIETSEARCH_SETTINGS_FILE", ""),
		SearchCacheMaxItems: getEnvInt("SEARCH_CACHE_MAX_ITEMS", DefaultSearchCacheMaxItems),
		DefaultSuggestLimit: getEnvInt("DEFAULT_SUGGEST_LIMIT", DefaultSuggestLimitValue),

		Country:   getEnvString("QUIETSEARCH_COUNTRY", ""),
		Language:  getEnvString("QUIETSEARCH_LANGUAGE", ""),
		TimeRange: getEnvString("QUIETSEARCH_TIME_RANGE", ""),
		NoJS:      getEnvBool("QUIETSEARCH_NOJS", false),
		Dark:      getEnvBool("QUIETSEARCH_DARK", false),
		Near:      getEnvString("QUIETSEARCH_NEAR", ""),
		Safe:      getEnvBool("QUIETSEARCH_SAFE", false),
		Alts:      getEnvBool("QUIETSEARCH_ALTS", false),

		BlockedSites: getEnvList("QUIETSEARCH_BLOCK"),
		BlockTitle:   getEnvString("QUIETSEARCH_BLOCK_TITLE", ""),
		BlockURL:     getEnvString("QUIETSEARCH_BLOCK_URL", ""),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFormat:     getEnvString("LOG_FORMAT", "text"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// Filters returns the configured default filters with region and language
// codes canonicalized.
func (c *Config) Filters() (types.FilterSet, error) {
	region, err := CanonicalRegion(c.Country)
	if err != nil {
		return types.FilterSet{}, fmt.Errorf("default country: %w", err)
	}
	lang, err := CanonicalLanguage(c.Language)
	if err != nil {
		return types.FilterSet{}, fmt.Errorf("default language: %w", err)
	}
	tr, err := types.ParseTimeRange(c.TimeRange)
	if err != nil {
		return types.FilterSet{}, fmt.Errorf("default time range: %w", err)
	}
	return types.FilterSet{
		TimeRange: tr,
		Region:    region,
		Language:  lang,
		NoJS:      c.NoJS,
		DarkMode:  c.Dark,

		SafeSearch:       c.Safe,
		SiteAlternatives: c.Alts,
	}, nil
}

// ScriptFreeEndpoint returns the viewer URL rewritten links point at.
func (c *Config) ScriptFreeEndpoint() string {
	if c.ViewerEndpoint != "" {
		return c.ViewerEndpoint
	}
	if c.PublicURL == "" {
		return linksan.DefaultScriptFreeEndpoint
	}
	return strings.TrimSuffix(c.PublicURL, "/") + linksan.DefaultScriptFreeEndpoint
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvList splits a comma-separated value, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
