package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML file shape. Everything is optional; set fields
// override the corresponding settings.
type fileConfig struct {
	Search struct {
		Endpoints []string `yaml:"endpoints"`
		Strategy  string   `yaml:"strategy"`
	} `yaml:"search"`
	Scrape struct {
		MaxConcurrent int    `yaml:"max_concurrent"`
		MinInterval   string `yaml:"min_interval"`
	} `yaml:"scrape"`
	Cache struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"cache"`
	Research struct {
		Depth string `yaml:"depth"`
	} `yaml:"research"`
}

// applyFile overlays values from a YAML config file onto the settings.
func (s *Settings) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if len(fc.Search.Endpoints) > 0 {
		s.Search.Endpoints = fc.Search.Endpoints
	}
	if fc.Search.Strategy != "" {
		s.Search.Strategy = fc.Search.Strategy
	}
	if fc.Scrape.MaxConcurrent > 0 {
		s.Scrape.MaxConcurrent = fc.Scrape.MaxConcurrent
	}
	if fc.Scrape.MinInterval != "" {
		d, err := time.ParseDuration(fc.Scrape.MinInterval)
		if err != nil {
			return fmt.Errorf("config: invalid scrape.min_interval: %w", err)
		}
		s.Scrape.MinInterval = d
	}
	if fc.Cache.Path != "" {
		s.Cache.Path = fc.Cache.Path
	}
	if fc.Cache.TTL != "" {
		d, err := time.ParseDuration(fc.Cache.TTL)
		if err != nil {
			return fmt.Errorf("config: invalid cache.ttl: %w", err)
		}
		s.Cache.TTL = d
	}
	if fc.Research.Depth != "" {
		s.Research.Depth = fc.Research.Depth
	}
	return nil
}
