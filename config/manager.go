package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const defaultConfig = `# Unified Brave filter-list builder configuration.
settings:
  output_file: output/unified_brave_list.txt
  list_title: Unified Brave Adblock List
  list_version: "1.0"
  homepage: https://github.com/itsrody/Brave
  patterns_dir: syntax_patterns
  # comment_out_untranslatable keeps untranslatable rules as annotated comments,
  # drop_untranslatable removes them from the output entirely.
  translation_strategy: comment_out_untranslatable
  max_parallel_downloads: 5
  max_retries: 2
  cache_ttl: 1h
  # 0 disables periodic rebuilds; anything below 15m is rounded up.
  refresh_interval: 0s

filter_lists:
  - name: easylist
    url: https://easylist.to/easylist/easylist.txt
  - name: ublock_filters
    url: https://raw.githubusercontent.com/uBlockOrigin/uAssets/master/filters/filters.txt
`

// Manager handles thread-safe configuration access.
type Manager struct {
	mu         sync.RWMutex
	current    *Config
	configPath string
}

// NewManager creates a new configuration manager.
func NewManager(path string) *Manager {
	return &Manager{
		configPath: path,
		current:    &Config{},
	}
}

// Load reads the configuration file from disk and updates the current state.
// A missing file is bootstrapped with a commented default before loading.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := m.writeDefault(); err != nil {
			return err
		}
		data, err = os.ReadFile(m.configPath)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var newConfig Config
	if err := yaml.Unmarshal(data, &newConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	applyDefaults(&newConfig)

	m.mu.Lock()
	m.current = &newConfig
	m.mu.Unlock()
	return nil
}

// Get returns the current configuration safely.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) writeDefault() error {
	if dir := filepath.Dir(m.configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(m.configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	s := &cfg.Settings
	if s.OutputFile == "" {
		s.OutputFile = "output/unified_brave_list.txt"
	}
	if s.ListTitle == "" {
		s.ListTitle = "Unified Brave Adblock List"
	}
	if s.ListVersion == "" {
		s.ListVersion = "1.0"
	}
	if s.PatternsDir == "" {
		s.PatternsDir = "syntax_patterns"
	}
	if s.TranslationStrategy == "" {
		s.TranslationStrategy = StrategyCommentOut
	}
	if s.MaxParallelDownloads <= 0 {
		s.MaxParallelDownloads = 5
	}
	if s.MaxRetries <= 0 {
		s.MaxRetries = 2
	}
}
