/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package screenplay

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	applog "screenbreak/internal/log"
)

// Document is the parsed and paginated form of one content string.
// It is shared between callers and must be treated as read-only.
type Document struct {
	Digest  string
	Content string // normalized text the offsets refer to
	Lines   []Line
	Pages   []Page
}

// Cache memoizes Parse+PaginateWith keyed on a digest of the content.
// Concurrent requests for the same content share one computation.
// It is safe for concurrent use.
type Cache struct {
	opts  Options
	limit int

	mu      sync.Mutex
	entries map[string]*Document
	order   []string // insertion order, oldest first

	group singleflight.Group
	log   *slog.Logger
}

// NewCache returns a cache holding at most limit documents (default 8).
func NewCache(opts Options, limit int) *Cache {
	if limit <= 0 {
		limit = 8
	}
	return &Cache{
		opts:    opts,
		limit:   limit,
		entries: make(map[string]*Document),
		log:     applog.WithComponent("screenplay"),
	}
}

// Get returns the document for content, computing it on a miss.
func (c *Cache) Get(content string) *Document {
	key := digest(content)
	c.mu.Lock()
	if d, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return d
	}
	c.mu.Unlock()

	v, _, shared := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		if d, ok := c.entries[key]; ok {
			c.mu.Unlock()
			return d, nil
		}
		c.mu.Unlock()
		text := Normalize(content)
		lines := Parse(text)
		d := &Document{Digest: key, Content: text, Lines: lines, Pages: PaginateWith(lines, c.opts)}
		c.store(key, d)
		c.log.Debug("document paginated",
			slog.String("digest", key[:12]),
			slog.Int("lines", len(d.Lines)),
			slog.Int("pages", len(d.Pages)))
		return d, nil
	})
	if shared {
		c.log.Debug("pagination shared", slog.String("digest", key[:12]))
	}
	return v.(*Document)
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) store(key string, d *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return
	}
	c.entries[key] = d
	c.order = append(c.order, key)
	for len(c.order) > c.limit {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
}

func digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
