// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

 1. Optional `.env` file at `<root>/conf/.env`.
 2. A YAML file: the explicit path when given, else `<root>/conf/global.yaml`.
    A missing discovered file is tolerated so the client runs on defaults;
    a missing explicit file is an error.
 3. Environment variables prefixed `SIGNIN_`, where `__` maps to “.”
    (e.g., `SIGNIN_CLIENT__BASE_URL → client.base_url`).

After merging, the tree is unmarshalled into typed structs, defaults are
applied, the result is validated, and it is cached in an `atomic.Pointer`
for lock-free reads.

Instrumentation
---------------
  • DEBUG – root discovery, YAML read, env overlay.
  • ERROR – YAML parse, env overlay, unmarshal, validation failures.
  • Logs use the global sugared logger (`zap.S()`), which is a no-op until
    a caller installs one.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "SIGNIN_"

var current atomic.Pointer[Config]

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SIGNIN_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, and env overrides, validates, and caches Config.
// path may be empty to use the discovered `conf/global.yaml`.
func Load(path string) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, "conf", "global.yaml")
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", path, "err", err)
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		zap.S().Debugw("config yaml absent, using defaults", "file", path)
	} else {
		zap.S().Debugw("config yaml loaded", "file", path)
	}

	// Env overrides: SIGNIN_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Paths.Root = root
	applyDefaults(&cfg)
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Debugw("config loaded",
		"base_url", cfg.Client.BaseURL,
		"listen_addr", cfg.HTTP.ListenAddr,
		"accounts", len(cfg.Auth.Accounts),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the last successfully loaded Config, or nil.
func Get() *Config { return current.Load() }
