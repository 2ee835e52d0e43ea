/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"screenbreak/internal/screenplay"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type PaginationConfig struct {
	LinesPerPage int `yaml:"lines_per_page"`
	WrapColumns  int `yaml:"wrap_columns"` // > 0 counts soft-wrapped rows against page capacity
	CacheSize    int `yaml:"cache_size"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres URL without password
	// The postgres password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int              `yaml:"config_version"`
	Pagination    PaginationConfig `yaml:"pagination"`
	Storage       StorageConfig    `yaml:"storage"`
	Logging       LoggingConfig    `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Pagination:    PaginationConfig{LinesPerPage: screenplay.DefaultLinesPerPage, WrapColumns: 0, CacheSize: 8},
		Storage:       StorageConfig{Driver: "sqlite", Path: "breakdown.sqlite"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile    = "SBK_CONFIG"
	EnvLinesPerPage  = "SBK_LINES_PER_PAGE"
	EnvWrapColumns   = "SBK_WRAP_COLUMNS"
	EnvStorageDriver = "SBK_STORAGE_DRIVER"
	EnvStoragePath   = "SBK_STORAGE_PATH"
	EnvStorageDSN    = "SBK_PG_DSN"
	EnvStoragePasswd = "SBK_PG_PASSWORD"
	EnvLogLevel      = "SBK_LOG_LEVEL"
	EnvLogFormat     = "SBK_LOG_FORMAT"
	EnvLogSource     = "SBK_LOG_SOURCE"
	EnvLogFile       = "SBK_LOG_FILE"
)

// Service/keys for the OS keyring.
const (
	keyringService  = "ScreenBreak"
	keyringPassword = "postgres_password"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore with github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// SetTokenStore swaps the secret store and returns the previous one.
func SetTokenStore(ts TokenStore) TokenStore {
	prev := tokenStore
	tokenStore = ts
	return prev
}

// ConfigPath returns the config file path, honoring SBK_CONFIG.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ScreenBreak")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ScreenBreak")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "screenbreak")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "screenbreak")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the config file (if present), applies defaults and environment
// overrides, and fetches the postgres password from the keyring. A missing
// keyring entry is not an error.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	} else if !errors.Is(err, os.ErrNotExist) {
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)

	secret := strings.TrimSpace(os.Getenv(EnvStoragePasswd))
	if secret == "" && cfg.Storage.Driver == "postgres" {
		secret, _ = tokenStore.Get(keyringService, keyringPassword)
	}
	return cfg, secret, nil
}

// Save writes the config YAML and stores a non-empty password in the keyring.
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Pagination.LinesPerPage > 0 {
		dst.Pagination.LinesPerPage = src.Pagination.LinesPerPage
	}
	if src.Pagination.WrapColumns >= 0 {
		dst.Pagination.WrapColumns = src.Pagination.WrapColumns
	}
	if src.Pagination.CacheSize > 0 {
		dst.Pagination.CacheSize = src.Pagination.CacheSize
	}
	if s := strings.TrimSpace(src.Storage.Driver); s != "" {
		dst.Storage.Driver = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Storage.Path); s != "" {
		dst.Storage.Path = s
	}
	if s := strings.TrimSpace(src.Storage.DSN); s != "" {
		dst.Storage.DSN = s
	}
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if n, ok := envInt(EnvLinesPerPage); ok && n > 0 {
		cfg.Pagination.LinesPerPage = n
	}
	if n, ok := envInt(EnvWrapColumns); ok && n >= 0 {
		cfg.Pagination.WrapColumns = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

// PaginateOptions converts the pagination section to screenplay options.
func (p PaginationConfig) PaginateOptions() screenplay.Options {
	return screenplay.Options{MaxLinesPerPage: p.LinesPerPage, WrapColumns: p.WrapColumns}
}

// PostgresDSN returns the configured DSN with password set, if one is given.
func (s StorageConfig) PostgresDSN(password string) (string, error) {
	if strings.TrimSpace(s.DSN) == "" {
		return "", errors.New("storage.dsn is empty")
	}
	if password == "" {
		return s.DSN, nil
	}
	u, err := url.Parse(s.DSN)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, password)
	return u.String(), nil
}
