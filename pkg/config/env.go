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

package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFiles loads .env.local then .env from the working directory.
// Missing files are not an error.
func LoadEnvFiles() error {
	envFiles := []string{".env.local", ".env"}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// FromEnv discovers settings from the environment:
//
//	credential:  GEMINI_API_KEY, GOOGLE_API_KEY (first match wins)
//	transport:   GENAI_BASE_URL, GEMINI_BASE_URL; GENAI_API_VERSION
//	vertex:      GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION
func FromEnv() Settings {
	return Settings{
		APIKey:     firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		BaseURL:    firstEnv("GENAI_BASE_URL", "GEMINI_BASE_URL"),
		APIVersion: os.Getenv("GENAI_API_VERSION"),
		Project:    os.Getenv("GOOGLE_CLOUD_PROJECT"),
		Location:   os.Getenv("GOOGLE_CLOUD_LOCATION"),
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}
