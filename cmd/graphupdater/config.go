// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/graphupdater/pkg/ingest"
)

// Config is the on-disk project configuration, saved as
// .graphupdater/project.yaml in the repository being ingested.
type Config struct {
	ProjectID string `yaml:"project_id"`

	Graph struct {
		URI      string `yaml:"uri"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"graph"`

	Indexing struct {
		FolderFilter  []string `yaml:"folder_filter,omitempty"`
		FilePatterns  []string `yaml:"file_patterns,omitempty"`
		ExternalRoots []string `yaml:"external_roots,omitempty"`
		SkipTests     bool     `yaml:"skip_tests"`
		MaxFileSize   int64    `yaml:"max_file_size"`
		ParseWorkers  int      `yaml:"parse_workers"`
		BatchRows     int      `yaml:"batch_rows"`
		MacroExpansion string  `yaml:"macro_expansion"`
	} `yaml:"indexing"`
}

// DefaultConfig returns the configuration applied when a project is
// initialized with no overrides: a local single-instance Neo4j
// listening on the default Bolt port, the ingest package's defaults
// for everything else.
func DefaultConfig(projectID string) *Config {
	cfg := &Config{ProjectID: projectID}
	cfg.Graph.URI = "bolt://localhost:7687"
	cfg.Graph.Username = "neo4j"
	cfg.Graph.Database = "neo4j"

	defaults := ingest.DefaultConfig()
	cfg.Indexing.MaxFileSize = defaults.MaxFileSize
	cfg.Indexing.BatchRows = defaults.BatchRows
	cfg.Indexing.MacroExpansion = string(defaults.MacroExpansion)
	return cfg
}

// ConfigDir returns the .graphupdater directory under repoRoot.
func ConfigDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".graphupdater")
}

// ConfigPath returns the default project.yaml path under repoRoot.
func ConfigPath(repoRoot string) string {
	return filepath.Join(ConfigDir(repoRoot), "project.yaml")
}

// LoadConfig reads and parses the project configuration at path. An
// empty path resolves to ConfigPath of the current directory.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration found at %s (run 'graphupdater init' first)", path)
		}
		return nil, fmt.Errorf("cannot read configuration: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse configuration: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories
// as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create configuration directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write configuration: %w", err)
	}
	return nil
}

// toIngestConfig translates the on-disk project config plus a
// resolved source into the ingest package's run configuration.
func (c *Config) toIngestConfig(source ingest.Config) ingest.Config {
	defaults := ingest.DefaultConfig()

	source.ProjectName = c.ProjectID
	source.FolderFilter = c.Indexing.FolderFilter
	source.FilePatterns = c.Indexing.FilePatterns
	source.ExternalRoots = c.Indexing.ExternalRoots
	source.SkipTests = c.Indexing.SkipTests

	source.MaxFileSize = c.Indexing.MaxFileSize
	if source.MaxFileSize == 0 {
		source.MaxFileSize = defaults.MaxFileSize
	}
	source.ParseWorkers = c.Indexing.ParseWorkers
	source.BatchRows = c.Indexing.BatchRows
	if source.BatchRows == 0 {
		source.BatchRows = defaults.BatchRows
	}
	source.MacroExpansion = ingest.MacroExpansionMode(c.Indexing.MacroExpansion)
	if source.MacroExpansion == "" {
		source.MacroExpansion = defaults.MacroExpansion
	}

	source.Graph.URI = c.Graph.URI
	source.Graph.Username = c.Graph.Username
	source.Graph.Password = c.Graph.Password
	source.Graph.Database = c.Graph.Database
	return source
}
