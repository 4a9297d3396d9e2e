// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds client settings and their discovery from the
// environment and optional YAML settings files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the transport-level client settings. Zero values mean
// "use the SDK default for the active backend".
type Settings struct {
	APIKey     string        `yaml:"api_key"`
	Backend    string        `yaml:"backend"` // "gemini" or "vertex"
	Project    string        `yaml:"project"`
	Location   string        `yaml:"location"`
	BaseURL    string        `yaml:"base_url"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
	LogLevel   string        `yaml:"log_level"`
}

// UnmarshalYAML decodes the timeout from a duration string such as
// "30s" or "1m".
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		APIKey     string `yaml:"api_key"`
		Backend    string `yaml:"backend"`
		Project    string `yaml:"project"`
		Location   string `yaml:"location"`
		BaseURL    string `yaml:"base_url"`
		APIVersion string `yaml:"api_version"`
		Timeout    string `yaml:"timeout"`
		LogLevel   string `yaml:"log_level"`
	}

	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	*s = Settings{
		APIKey:     r.APIKey,
		Backend:    r.Backend,
		Project:    r.Project,
		Location:   r.Location,
		BaseURL:    r.BaseURL,
		APIVersion: r.APIVersion,
		LogLevel:   r.LogLevel,
	}
	if r.Timeout != "" {
		d, err := time.ParseDuration(r.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", r.Timeout, err)
		}
		s.Timeout = d
	}
	return nil
}

// Merge returns s overlaid with every non-zero field of over.
func (s Settings) Merge(over Settings) Settings {
	if over.APIKey != "" {
		s.APIKey = over.APIKey
	}
	if over.Backend != "" {
		s.Backend = over.Backend
	}
	if over.Project != "" {
		s.Project = over.Project
	}
	if over.Location != "" {
		s.Location = over.Location
	}
	if over.BaseURL != "" {
		s.BaseURL = over.BaseURL
	}
	if over.APIVersion != "" {
		s.APIVersion = over.APIVersion
	}
	if over.Timeout != 0 {
		s.Timeout = over.Timeout
	}
	if over.LogLevel != "" {
		s.LogLevel = over.LogLevel
	}
	return s
}

// LoadFile reads a YAML settings file.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	return s, nil
}
