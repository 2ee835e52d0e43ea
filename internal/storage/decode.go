/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"screenbreak/internal/breakdown"
)

// highlightsSchema describes a JSON array of highlight spans as exchanged
// with the persistence service.
const highlightsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["category", "start_offset", "end_offset"],
    "properties": {
      "id":           {"type": "string"},
      "category":     {"type": "string", "minLength": 1},
      "start_offset": {"type": "integer", "minimum": 0},
      "end_offset":   {"type": "integer", "minimum": 0},
      "status":       {"enum": ["", "pending", "confirmed", "rejected", "stale"]},
      "scene_id":     {"type": "string"},
      "stored_text":  {"type": "string"}
    }
  }
}`

var highlightsSchemaLoader = gojsonschema.NewStringLoader(highlightsSchema)

// DecodeHighlights reads a JSON array of highlights, validating it against
// the exchange schema and the known categories.
func DecodeHighlights(r io.Reader) ([]breakdown.HighlightSpan, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read highlights: %w", err)
	}
	res, err := gojsonschema.Validate(highlightsSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate highlights: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("invalid highlights: %s", strings.Join(msgs, "; "))
	}
	var hs []breakdown.HighlightSpan
	if err := json.Unmarshal(data, &hs); err != nil {
		return nil, fmt.Errorf("decode highlights: %w", err)
	}
	for i := range hs {
		if err := validateHighlight(&hs[i]); err != nil {
			return nil, fmt.Errorf("highlight %d: %w", i, err)
		}
	}
	return hs, nil
}
