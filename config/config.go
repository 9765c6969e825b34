package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Accepted values for settings.translation_strategy and filter_lists[].format.
const (
	StrategyCommentOut = "comment_out_untranslatable"
	StrategyDrop       = "drop_untranslatable"

	FormatABP   = "abp"
	FormatHosts = "hosts"
)

// Config represents the top-level configuration structure.
type Config struct {
	Settings    Settings `yaml:"settings"`
	FilterLists []Source `yaml:"filter_lists"`
}

// Settings holds run-wide knobs.
type Settings struct {
	OutputFile           string   `yaml:"output_file"`
	ListTitle            string   `yaml:"list_title"`
	ListVersion          string   `yaml:"list_version"`
	Homepage             string   `yaml:"homepage"`
	PatternsDir          string   `yaml:"patterns_dir"`
	TranslationStrategy  string   `yaml:"translation_strategy"`
	MaxParallelDownloads int      `yaml:"max_parallel_downloads"`
	MaxWorkers           int      `yaml:"max_workers"` // 0 means NumCPU
	MaxRetries           int      `yaml:"max_retries"`
	CacheDir             string   `yaml:"cache_dir,omitempty"`
	CacheTTL             Duration `yaml:"cache_ttl"`
	RefreshInterval      Duration `yaml:"refresh_interval"` // 0 disables periodic rebuilds
	ReportDB             string   `yaml:"report_db,omitempty"`
}

// Source represents a single filter list to merge.
type Source struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url,omitempty"`    // Remote URL
	Path   string `yaml:"path,omitempty"`   // Local file path
	Format string `yaml:"format,omitempty"` // abp (default) or hosts
}

// Duration accepts human-friendly values like "30s" or "1h" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
