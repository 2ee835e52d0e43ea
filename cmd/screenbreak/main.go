/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"screenbreak/internal/breakdown"
	"screenbreak/internal/config"
	"screenbreak/internal/crash"
	applog "screenbreak/internal/log"
	"screenbreak/internal/screenplay"
	"screenbreak/internal/storage"
	"screenbreak/internal/version"
)

func usage() {
	fmt.Println("ScreenBreak - screenplay pagination and breakdown highlights")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  screenbreak version|-v|--version                  Show version")
	fmt.Println("  screenbreak classify <file>                        Print each parsed line with its element type")
	fmt.Println("  screenbreak paginate <file> [lines]                Print page boundaries")
	fmt.Println("  screenbreak overlay <file> <highlights.json> [page] Render highlights over a page")
	fmt.Println("  screenbreak stale <file> <highlights.json>         Report highlights whose text drifted")
	fmt.Println("  screenbreak select <file> <line> <column> <text>   Resolve a selection to document offsets")
	fmt.Println("  screenbreak import <file> <highlights.json>        Store the document and its highlights")
	fmt.Println("  screenbreak list <docID>                           List stored highlights of a document")
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func need(args []string, n int, msg string) {
	if len(args) < n {
		fmt.Println(msg)
		usage()
		os.Exit(2)
	}
}

func main() {
	cfg, secret, err := config.Load()
	if err != nil {
		// logging is not configured yet; fall back to the environment
		applog.Init(applog.FromEnv())
		applog.WithComponent("cli").Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	} else {
		applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, AddSource: cfg.Logging.Source, File: cfg.Logging.File})
	}
	l := applog.WithComponent("cli")
	cc := &crash.Context{}
	defer crash.Recover(cc)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	cc.Command = args[1]
	if len(args) > 2 {
		cc.Input = args[2]
	}
	ctx := context.Background()
	cache := screenplay.NewCache(cfg.Pagination.PaginateOptions(), cfg.Pagination.CacheSize)

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
	case "classify":
		need(args, 3, "classify requires <file>")
		doc, err := loadDocument(cache, args[2])
		if err != nil {
			fail(l, "read screenplay failed", err)
		}
		printLines(os.Stdout, doc.Lines)
	case "paginate":
		need(args, 3, "paginate requires <file>")
		content, err := readFile(args[2])
		if err != nil {
			fail(l, "read screenplay failed", err)
		}
		opts := cfg.Pagination.PaginateOptions()
		if len(args) > 3 {
			n, err := strconv.Atoi(args[3])
			if err != nil || n <= 0 {
				fail(l, "invalid lines per page", fmt.Errorf("lines must be a positive integer, got %q", args[3]))
			}
			opts.MaxLinesPerPage = n
		}
		printPages(os.Stdout, screenplay.PaginateWith(screenplay.Parse(content), opts))
	case "overlay":
		need(args, 4, "overlay requires <file> and <highlights.json>")
		doc, err := loadDocument(cache, args[2])
		if err != nil {
			fail(l, "read screenplay failed", err)
		}
		hs, err := readHighlights(args[3])
		if err != nil {
			fail(l, "read highlights failed", err)
		}
		pageNo := 1
		if len(args) > 4 {
			if pageNo, err = strconv.Atoi(args[4]); err != nil || pageNo < 1 || pageNo > len(doc.Pages) {
				fail(l, "invalid page", fmt.Errorf("page must be between 1 and %d, got %q", len(doc.Pages), args[4]))
			}
		}
		printOverlay(os.Stdout, overlayPage(doc, hs, pageNo))
	case "stale":
		need(args, 4, "stale requires <file> and <highlights.json>")
		content, err := readFile(args[2])
		if err != nil {
			fail(l, "read screenplay failed", err)
		}
		hs, err := readHighlights(args[3])
		if err != nil {
			fail(l, "read highlights failed", err)
		}
		printStatuses(os.Stdout, breakdown.RefreshStatuses(hs, content))
	case "select":
		need(args, 6, "select requires <file> <line> <column> <text>")
		doc, err := loadDocument(cache, args[2])
		if err != nil {
			fail(l, "read screenplay failed", err)
		}
		lineNo, err1 := strconv.Atoi(args[3])
		col, err2 := strconv.Atoi(args[4])
		if err := errors.Join(err1, err2); err != nil {
			fail(l, "invalid position", err)
		}
		sel, err := resolveAt(doc.Lines, lineNo, col, args[5])
		if err != nil {
			fail(l, "selection rejected", err)
		}
		fmt.Printf("%d\t%d\t%q\n", sel.StartOffset, sel.EndOffset, sel.Text)
	case "import":
		need(args, 4, "import requires <file> and <highlights.json>")
		content, err := readFile(args[2])
		if err != nil {
			fail(l, "read screenplay failed", err)
		}
		hs, err := readHighlights(args[3])
		if err != nil {
			fail(l, "read highlights failed", err)
		}
		st, err := openStore(ctx, cfg, secret)
		if err != nil {
			fail(l, "open store failed", err)
		}
		defer func() { _ = st.Close() }()
		docID := documentID(args[2])
		n, err := importDocument(ctx, st, docID, content, hs)
		if err != nil {
			fail(l, "import failed", err)
		}
		l.Info("imported", slog.String("doc", docID), slog.Int("highlights", len(hs)), slog.Int("stale", n))
		fmt.Printf("Imported %s: %d highlights, %d stale\n", docID, len(hs), n)
	case "list":
		need(args, 3, "list requires <docID>")
		st, err := openStore(ctx, cfg, secret)
		if err != nil {
			fail(l, "open store failed", err)
		}
		defer func() { _ = st.Close() }()
		hs, err := st.ListHighlights(ctx, args[2])
		if err != nil {
			fail(l, "list failed", err)
		}
		printStatuses(os.Stdout, hs)
	default:
		usage()
	}
}

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loadDocument(cache *screenplay.Cache, path string) (*screenplay.Document, error) {
	content, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return cache.Get(content), nil
}

func readHighlights(path string) ([]breakdown.HighlightSpan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return storage.DecodeHighlights(f)
}

// documentID derives a stable id from the screenplay file name.
func documentID(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

func openStore(ctx context.Context, cfg config.AppConfig, secret string) (*storage.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		dsn, err := cfg.Storage.PostgresDSN(secret)
		if err != nil {
			return nil, err
		}
		return storage.OpenPostgres(ctx, dsn)
	case "sqlite", "":
		return storage.OpenSQLite(ctx, cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// importDocument stores a content snapshot and the highlights, then marks drifted ones stale.
func importDocument(ctx context.Context, st *storage.Store, docID, content string, hs []breakdown.HighlightSpan) (int, error) {
	if err := st.SaveDocument(ctx, docID, content, time.Now()); err != nil {
		return 0, err
	}
	for _, h := range hs {
		if _, err := st.CreateHighlight(ctx, docID, h); err != nil {
			return 0, err
		}
	}
	return st.RefreshStale(ctx, docID)
}
