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

package tokenizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kadirpekel/genai/pkg/logger"
)

// cacheDirName under the OS temp directory.
const cacheDirName = "vertexai_tokenizer_model"

// HashMismatchError reports a vocabulary file whose content does not
// match its pinned hash.
type HashMismatchError struct {
	URL  string
	Want string
	Got  string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("tokenizer: vocabulary %s hashes to %s, want %s", e.URL, e.Got, e.Want)
}

// modelCache stores downloaded vocabulary files keyed by sha256 of
// their URL, each verified against a pinned content hash.
type modelCache struct {
	dir    string
	client *http.Client
}

func newModelCache() *modelCache {
	return &modelCache{
		dir:    filepath.Join(os.TempDir(), cacheDirName),
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// fetch returns the verified vocabulary bytes for url. A cached copy
// that fails verification is evicted and downloaded once more; a
// mismatch after download is a hard error.
func (c *modelCache) fetch(url, wantSHA string) ([]byte, error) {
	path := filepath.Join(c.dir, hashHex([]byte(url)))

	if data, err := os.ReadFile(path); err == nil {
		if hashHex(data) == wantSHA {
			return data, nil
		}
		logger.GetLogger().Warn("evicting corrupt tokenizer cache entry", "path", path)
		os.Remove(path)
	}

	data, err := c.download(url)
	if err != nil {
		return nil, err
	}
	if got := hashHex(data); got != wantSHA {
		return nil, &HashMismatchError{URL: url, Want: wantSHA, Got: got}
	}

	if err := c.store(path, data); err != nil {
		// The cache is an optimisation; a write failure only costs a
		// re-download next time.
		logger.GetLogger().Warn("could not persist tokenizer cache entry", "path", path, "error", err)
	}
	return data, nil
}

func (c *modelCache) download(url string) ([]byte, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: could not download vocabulary %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokenizer: vocabulary download %s returned %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: could not read vocabulary %s: %w", url, err)
	}
	return data, nil
}

// store writes atomically via a temp file and rename.
func (c *modelCache) store(path string, data []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "vocab-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
