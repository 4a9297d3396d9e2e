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
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/kadirpekel/genai/pkg/genai"
)

// metaSpace is the SentencePiece meta-space marker, normalised to an
// ASCII space in token bytes.
const metaSpace = "▁"

// Vocabulary locations and their pinned content hashes.
const (
	cl100kURL = "https://openaipublic.blob.core.windows.net/encodings/cl100k_base.tiktoken"
	cl100kSHA = "223921b76ee99bde995b7ff738513eef100fb51d18c93597a113bcffe865b2a7"
	o200kURL  = "https://openaipublic.blob.core.windows.net/encodings/o200k_base.tiktoken"
	o200kSHA  = "446a9538cb6c348e3516120d7c08b09f57c36495e2acfffe59a5bf8b0cfb1a2d"
)

var pinnedHashes = map[string]string{
	cl100kURL: cl100kSHA,
	o200kURL:  o200kSHA,
}

// vocabSpec binds a tokenizer family to its encoding.
type vocabSpec struct {
	encoding string
}

var families = map[string]vocabSpec{
	"gemma2": {encoding: "cl100k_base"},
	"gemma3": {encoding: "o200k_base"},
}

// modelFamilies maps model identifier prefixes to tokenizer families.
// Longer prefixes are listed first so they win.
var modelFamilies = []struct {
	prefix string
	family string
}{
	{"gemini-2.5", "gemma3"},
	{"gemini-3", "gemma3"},
	{"gemini-2.0", "gemma2"},
	{"gemini-1.5", "gemma2"},
	{"gemini-1.0", "gemma2"},
	{"gemma-3", "gemma3"},
	{"gemma-2", "gemma2"},
}

// UnsupportedModelError reports a model with no known tokenizer family.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("tokenizer: no tokenizer family is known for model %q", e.Model)
}

// UnsupportedContentError reports a part the subword tokenizer cannot
// count, such as inline or by-reference media.
type UnsupportedContentError struct {
	Kind string
}

func (e *UnsupportedContentError) Error() string {
	return fmt.Sprintf("tokenizer: %s parts are not supported by the subword tokenizer", e.Kind)
}

func familyFor(model string) (vocabSpec, error) {
	id := strings.TrimPrefix(model, "models/")
	for _, m := range modelFamilies {
		if strings.HasPrefix(id, m.prefix) {
			return families[m.family], nil
		}
	}
	return vocabSpec{}, &UnsupportedModelError{Model: model}
}

var installLoaderOnce sync.Once

// pinnedLoader serves vocabulary files from the verified disk cache.
type pinnedLoader struct {
	cache *modelCache
}

func (l pinnedLoader) LoadTiktokenBpe(file string) (map[string]int, error) {
	want, ok := pinnedHashes[file]
	if !ok {
		return nil, fmt.Errorf("tokenizer: no pinned hash for vocabulary %s", file)
	}

	data, err := l.cache.fetch(file, want)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("tokenizer: malformed vocabulary line %q", line)
		}
		token, err := base64.StdEncoding.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("tokenizer: malformed vocabulary token %q: %w", fields[0], err)
		}
		rank, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("tokenizer: malformed vocabulary rank %q: %w", fields[1], err)
		}
		ranks[string(token)] = rank
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ranks, nil
}

// Subword counts tokens with the vocabulary of the model's tokenizer
// family. Construction may download the vocabulary; afterwards every
// call is local and deterministic.
type Subword struct {
	model string
	enc   *tiktoken.Tiktoken
}

// NewSubword builds a subword tokenizer for a model.
func NewSubword(model string) (*Subword, error) {
	spec, err := familyFor(model)
	if err != nil {
		return nil, err
	}

	installLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(pinnedLoader{cache: newModelCache()})
	})

	enc, err := tiktoken.GetEncoding(spec.encoding)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: could not load encoding %s: %w", spec.encoding, err)
	}
	return &Subword{model: model, enc: enc}, nil
}

// EstimateTokens sums the token counts of every text part. Non-text
// parts are ignored.
func (t *Subword) EstimateTokens(contents []*genai.Content) (int32, error) {
	var total int
	for _, content := range contents {
		if content == nil {
			continue
		}
		for _, p := range content.Parts {
			if p == nil || p.Text == "" {
				continue
			}
			total += len(t.enc.Encode(p.Text, nil, nil))
		}
	}
	return int32(total), nil
}

// ComputeTokens returns per-part token ids and bytes, preserving
// content order. Media parts fail with UnsupportedContentError.
func (t *Subword) ComputeTokens(contents []*genai.Content) (*genai.ComputeTokensResponse, error) {
	resp := &genai.ComputeTokensResponse{}
	for _, content := range contents {
		if content == nil {
			continue
		}
		for _, p := range content.Parts {
			if p == nil {
				continue
			}
			if p.InlineData != nil {
				return nil, &UnsupportedContentError{Kind: "inline data"}
			}
			if p.FileData != nil {
				return nil, &UnsupportedContentError{Kind: "file data"}
			}
			if p.Text == "" {
				continue
			}

			ids := t.enc.Encode(p.Text, nil, nil)
			if len(ids) == 0 {
				continue
			}

			info := &genai.TokensInfo{Role: content.Role}
			for _, id := range ids {
				info.TokenIDs = append(info.TokenIDs, int64(id))
				info.Tokens = append(info.Tokens, t.tokenBytes(id))
			}
			resp.TokensInfo = append(resp.TokensInfo, info)
		}
	}
	return resp, nil
}

// tokenBytes renders one token's bytes with the meta-space marker
// normalised to an ASCII space.
func (t *Subword) tokenBytes(id int) []byte {
	raw := t.enc.Decode([]int{id})
	return []byte(strings.ReplaceAll(raw, metaSpace, " "))
}
