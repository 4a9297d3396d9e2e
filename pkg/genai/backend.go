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

package genai

import (
	"fmt"
	"net/url"
	"strings"
)

// Backend selects the on-wire dialect.
type Backend int

const (
	// BackendGeminiAPI talks to the Gemini Developer API.
	BackendGeminiAPI Backend = iota
	// BackendVertexAI talks to Vertex AI.
	BackendVertexAI
)

func (b Backend) String() string {
	switch b {
	case BackendVertexAI:
		return "vertex"
	default:
		return "gemini"
	}
}

const (
	geminiBaseURL     = "https://generativelanguage.googleapis.com"
	vertexBaseURLFmt  = "https://%s-aiplatform.googleapis.com"
	vertexGlobalBase  = "https://aiplatform.googleapis.com"
	geminiAPIVersion  = "v1beta"
	vertexAPIVersion  = "v1beta1"
	defaultVertexSite = "us-central1"
)

// dialect carries the per-client backend identity used to build resource
// paths and to enforce per-dialect restrictions.
type dialect struct {
	backend  Backend
	project  string
	location string
}

func (d dialect) defaultBaseURL() string {
	if d.backend == BackendVertexAI {
		loc := d.location
		if loc == "" {
			loc = defaultVertexSite
		}
		if loc == "global" {
			return vertexGlobalBase
		}
		return fmt.Sprintf(vertexBaseURLFmt, loc)
	}
	return geminiBaseURL
}

func (d dialect) defaultAPIVersion() string {
	if d.backend == BackendVertexAI {
		return vertexAPIVersion
	}
	return geminiAPIVersion
}

// parent is the Vertex resource parent all non-model resources live
// under.
func (d dialect) parent() string {
	loc := d.location
	if loc == "" {
		loc = defaultVertexSite
	}
	return fmt.Sprintf("projects/%s/locations/%s", d.project, loc)
}

// resourcePath qualifies a resource path for the active dialect. Fully
// qualified Vertex names pass through unchanged; the function is
// idempotent.
func (d dialect) resourcePath(path string) string {
	if d.backend != BackendVertexAI {
		return path
	}
	if strings.HasPrefix(path, "projects/") {
		return path
	}
	return d.parent() + "/" + path
}

// modelPath resolves a model identifier into the resource path of the
// generate-family endpoints. Idempotent for already-qualified names.
func (d dialect) modelPath(model string) string {
	if d.backend == BackendVertexAI {
		switch {
		case strings.HasPrefix(model, "projects/"):
			return model
		case strings.HasPrefix(model, "publishers/"):
			return d.parent() + "/" + model
		case strings.HasPrefix(model, "models/"):
			return d.parent() + "/publishers/google/" + model
		default:
			return d.parent() + "/publishers/google/models/" + model
		}
	}

	switch {
	case strings.HasPrefix(model, "models/"),
		strings.HasPrefix(model, "tunedModels/"):
		return model
	default:
		return "models/" + model
	}
}

// qualifyName prefixes a bare resource id with its collection name.
// Already-qualified names are returned unchanged.
func qualifyName(name, collection string) string {
	if strings.HasPrefix(name, collection+"/") {
		return name
	}
	return collection + "/" + name
}

// idFromResourceURL extracts the resource id following collection in a
// download-style URL, e.g. "https://host/files/abc-123?alt=media" with
// collection "files" yields "abc-123".
func idFromResourceURL(raw, collection string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", invalidConfigf("could not parse %s URL %q: %v", collection, raw, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == collection && i+1 < len(segments) {
			return segments[i+1], nil
		}
	}

	return "", invalidConfigf("URL %q does not reference a %s resource", raw, collection)
}

// normalizeResourceName accepts a bare id, a qualified name, or a
// download URL and produces the canonical "<collection>/<id>" form.
// Idempotent: normalizing an already canonical name is a no-op.
func normalizeResourceName(name, collection string) (string, error) {
	if name == "" {
		return "", invalidConfigf("%s name must not be empty", collection)
	}
	if strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "http://") {
		id, err := idFromResourceURL(name, collection)
		if err != nil {
			return "", err
		}
		return collection + "/" + id, nil
	}
	return qualifyName(name, collection), nil
}
