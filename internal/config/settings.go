package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/usestring/quietsearch/pkg/extract"
)

//go:embed settings.schema.json
var settingsSchema []byte

// Settings is the optional YAML settings file. Values present in the file
// override the environment.
type Settings struct {
	UpstreamURL        string            `yaml:"upstream_url"`
	ScriptFreeEndpoint string            `yaml:"script_free_endpoint"`
	BangsFile          string            `yaml:"bangs_file"`
	Defaults           *DefaultsSettings `yaml:"defaults"`
	TrackingParams     []string          `yaml:"tracking_params"`
	InternalHosts      []string          `yaml:"internal_hosts"`
	Extraction         *extract.Rules    `yaml:"extraction"`

	BlockSites       []string          `yaml:"block_sites"`
	BlockTitle       string            `yaml:"block_title"`
	BlockURL         string            `yaml:"block_url"`
	SiteAlternatives map[string]string `yaml:"site_alternatives"`
}

// DefaultsSettings overrides individual filter defaults.
type DefaultsSettings struct {
	Region    *string `yaml:"region"`
	Language  *string `yaml:"language"`
	TimeRange *string `yaml:"time_range"`
	NoJS      *bool   `yaml:"no_js"`
	DarkMode  *bool   `yaml:"dark_mode"`
	Near      *string `yaml:"near"`

	SafeSearch       *bool `yaml:"safe_search"`
	SiteAlternatives *bool `yaml:"site_alternatives"`
}

// LoadSettings reads and validates a settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings validates YAML settings against the embedded schema and
// decodes them.
func ParseSettings(data []byte) (*Settings, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if doc == nil {
		return &Settings{}, nil
	}

	// The validator expects encoding/json values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("settings must be a mapping with string keys: %w", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}

	schema, err := compileSettingsSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &s, nil
}

func compileSettingsSchema() (*jsonschema.Schema, error) {
	var schemaValue any
	if err := json.Unmarshal(settingsSchema, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling settings schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("settings.schema.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding settings schema: %w", err)
	}
	compiled, err := compiler.Compile("settings.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling settings schema: %w", err)
	}
	return compiled, nil
}

// ApplySettingsFile loads SettingsFile, if set, and applies it. A file is
// applied at most once per Config.
func (c *Config) ApplySettingsFile() error {
	if c.SettingsFile == "" || c.appliedSettings == c.SettingsFile {
		return nil
	}
	s, err := LoadSettings(c.SettingsFile)
	if err != nil {
		return err
	}
	c.Apply(s)
	c.appliedSettings = c.SettingsFile
	return nil
}

// Apply overlays file settings onto the configuration.
func (c *Config) Apply(s *Settings) {
	if s == nil {
		return
	}
	if s.UpstreamURL != "" {
		c.UpstreamBaseURL = s.UpstreamURL
	}
	if s.ScriptFreeEndpoint != "" {
		c.ViewerEndpoint = s.ScriptFreeEndpoint
	}
	if s.BangsFile != "" {
		c.BangsFile = s.BangsFile
	}
	c.ExtraTrackingParams = append(c.ExtraTrackingParams, s.TrackingParams...)
	c.InternalHosts = append(c.InternalHosts, s.InternalHosts...)
	if s.Extraction != nil {
		c.Extraction = s.Extraction
	}
	c.BlockedSites = append(c.BlockedSites, s.BlockSites...)
	if s.BlockTitle != "" {
		c.BlockTitle = s.BlockTitle
	}
	if s.BlockURL != "" {
		c.BlockURL = s.BlockURL
	}
	if s.SiteAlternatives != nil {
		c.SiteAlternatives = s.SiteAlternatives
	}

	if d := s.Defaults; d != nil {
		setString(&c.Country, d.Region)
		setString(&c.Language, d.Language)
		setString(&c.TimeRange, d.TimeRange)
		setString(&c.Near, d.Near)
		if d.NoJS != nil {
			c.NoJS = *d.NoJS
		}
		if d.DarkMode != nil {
			c.Dark = *d.DarkMode
		}
		if d.SafeSearch != nil {
			c.Safe = *d.SafeSearch
		}
		if d.SiteAlternatives != nil {
			c.Alts = *d.SiteAlternatives
		}
	}
}

// Rules returns the extraction rules: the defaults, with any non-empty
// selector list from the settings file replacing its default, plus the
// configured internal hosts and block lists. Top-level block patterns win
// over the ones inside extraction.
func (c *Config) Rules() extract.Rules {
	r := extract.DefaultRules()
	if o := c.Extraction; o != nil {
		replace(&r.Blocks, o.Blocks)
		replace(&r.Title, o.Title)
		replace(&r.Link, o.Link)
		replace(&r.Snippet, o.Snippet)
		replace(&r.Display, o.Display)
		replace(&r.AdMarkers, o.AdMarkers)
		replace(&r.NonContent, o.NonContent)
		replace(&r.InternalHosts, o.InternalHosts)
		r.BlockedSites = append(r.BlockedSites, o.BlockedSites...)
		r.BlockTitle = o.BlockTitle
		r.BlockURL = o.BlockURL
	}
	r.InternalHosts = append(r.InternalHosts, c.InternalHosts...)
	r.BlockedSites = append(r.BlockedSites, c.BlockedSites...)
	if c.BlockTitle != "" {
		r.BlockTitle = c.BlockTitle
	}
	if c.BlockURL != "" {
		r.BlockURL = c.BlockURL
	}
	return r
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func replace(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = append([]string(nil), v...)
	}
}
