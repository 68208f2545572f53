package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/fakefs/internal/util"
	"gopkg.in/yaml.v3"
)

// CLI style log verbosity values accepted by [ConfigOverride].LogLvl
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultFilePerms are the permission bits reported for file nodes (read-only)
	DefaultFilePerms = 0o444

	// DefaultDirPerms are the permission bits reported for directory nodes
	DefaultDirPerms = 0o555

	// DefaultAttrTimeout is the attribute cache timeout in seconds
	DefaultAttrTimeout = 1.0

	// DefaultEntryTimeout is the directory entry cache timeout in seconds
	DefaultEntryTimeout = 1.0

	// DefaultDirectIO determines whether to bypass the kernel page cache
	DefaultDirectIO = false

	// DefaultFetchConcurrency is the number of content sources fetched at once
	// while loading a tree definition
	DefaultFetchConcurrency = 4

	// DefaultFetchTimeout is the per-source fetch timeout in seconds
	DefaultFetchTimeout = 30.0

	// DefaultMaxLinkHops bounds link-to-link resolution when serving a mount
	// (same as Linux SYMLOOP_MAX)
	DefaultMaxLinkHops = 40

	// DefaultMaxSourceBytes caps the content fetched from a single source
	DefaultMaxSourceBytes = 64 << 20
)

// Config contains runtime configuration values for the fake filesystem host.
// The in-memory tree itself has no tunables; everything here shapes how a tree
// is loaded and presented.
type Config struct {
	MountOptions
	LogLvl           util.LogLevel // Global log level (Default info)
	FilePerms        uint32        // Permission bits reported for files (Default 0444)
	DirPerms         uint32        // Permission bits reported for directories (Default 0555)
	AttrTimeout      float64       // Attribute cache timeout in seconds (Default 1.0)
	EntryTimeout     float64       // Directory entry cache timeout in seconds (Default 1.0)
	DirectIO         bool          // Whether to bypass the page cache on reads (Default false)
	FetchConcurrency int           // Concurrent content source fetches while loading (Default 4)
	FetchTimeout     float64       // Per-source fetch timeout in seconds; 0 disables (Default 30)
	MaxLinkHops      int           // Link chain bound when resolving mounted links (Default 40)
	MaxSourceBytes   int64         // Per-source content cap in bytes; 0 or less disables (Default 64 MiB)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	Debug  *bool   `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName *string `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name   *string `yaml:"name,omitempty" json:"name,omitempty"`
	// LogLvl is a CLI style verbosity between 1 (error) and 5 (trace)
	LogLvl           *int     `yaml:"log_lvl,omitempty" json:"log_lvl,omitempty"`
	FilePerms        *uint32  `yaml:"file_perms,omitempty" json:"file_perms,omitempty"`
	DirPerms         *uint32  `yaml:"dir_perms,omitempty" json:"dir_perms,omitempty"`
	AttrTimeout      *float64 `yaml:"attr_timeout,omitempty" json:"attr_timeout,omitempty"`
	EntryTimeout     *float64 `yaml:"entry_timeout,omitempty" json:"entry_timeout,omitempty"`
	DirectIO         *bool    `yaml:"direct_io,omitempty" json:"direct_io,omitempty"`
	FetchConcurrency *int     `yaml:"fetch_concurrency,omitempty" json:"fetch_concurrency,omitempty"`
	FetchTimeout     *float64 `yaml:"fetch_timeout,omitempty" json:"fetch_timeout,omitempty"`
	MaxLinkHops      *int     `yaml:"max_link_hops,omitempty" json:"max_link_hops,omitempty"`
	MaxSourceBytes   *int64   `yaml:"max_source_bytes,omitempty" json:"max_source_bytes,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:           DefaultLogLvl,
		FilePerms:        DefaultFilePerms,
		DirPerms:         DefaultDirPerms,
		AttrTimeout:      DefaultAttrTimeout,
		EntryTimeout:     DefaultEntryTimeout,
		DirectIO:         DefaultDirectIO,
		FetchConcurrency: DefaultFetchConcurrency,
		FetchTimeout:     DefaultFetchTimeout,
		MaxLinkHops:      DefaultMaxLinkHops,
		MaxSourceBytes:   DefaultMaxSourceBytes,
	}
}

// NewConfig creates a Config from defaults with override applied on top.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.LogLvl != nil {
		c.LogLvl = util.LevelFromVerbosity(*override.LogLvl)
	}
	if override.FilePerms != nil {
		c.FilePerms = *override.FilePerms & 0o777
	}
	if override.DirPerms != nil {
		c.DirPerms = *override.DirPerms & 0o777
	}
	if override.AttrTimeout != nil {
		c.AttrTimeout = *override.AttrTimeout
	}
	if override.EntryTimeout != nil {
		c.EntryTimeout = *override.EntryTimeout
	}
	if override.DirectIO != nil {
		c.DirectIO = *override.DirectIO
	}
	if override.FetchConcurrency != nil {
		// errgroup treats a negative limit as unlimited; zero would deadlock
		c.FetchConcurrency = max(*override.FetchConcurrency, 1)
	}
	if override.FetchTimeout != nil {
		c.FetchTimeout = *override.FetchTimeout
	}
	if override.MaxLinkHops != nil {
		c.MaxLinkHops = max(*override.MaxLinkHops, 1)
	}
	if override.MaxSourceBytes != nil {
		c.MaxSourceBytes = *override.MaxSourceBytes
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
