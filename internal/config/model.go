// internal/config/model.go
//
// Typed configuration model for Adept Sign-in.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml` (or `--config` path)  – primary static file,
//   • `SIGNIN_`-prefixed environment overrides – highest precedence.
//
// The `client` block drives the terminal sign-in client.  The `http`,
// `auth`, and `log` blocks drive the development login endpoint.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Zero values are filled by applyDefaults before validation.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import (
	"path/filepath"
	"time"
)

//
// Client section
//

// Client holds settings for the sign-in client's HTTP strategy.
type Client struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
}

//
// HTTP section
//

// HTTP holds web-server tunables for the development endpoint.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Auth section
//

// Account is one sign-in identity accepted by the development endpoint.
// PasswordHash is a bcrypt hash; plaintext passwords never appear in config.
type Account struct {
	Email        string `koanf:"email"         validate:"required,email"`
	PasswordHash string `koanf:"password_hash" validate:"required,startswith=$2"`
}

// Auth holds the endpoint's account list and per-client rate limit.
type Auth struct {
	Accounts  []Account `koanf:"accounts"   validate:"dive"`
	RatePerS  float64   `koanf:"rate_per_s" validate:"gte=0"`
	RateBurst int       `koanf:"rate_burst" validate:"gte=0"`
	MaxIPs    int       `koanf:"max_ips"    validate:"gte=0"`
}

//
// Log section
//

// Log controls the rotating JSON log.
type Log struct {
	Dir   string `koanf:"dir"`
	Debug bool   `koanf:"debug"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime.  Root is SIGNIN_ROOT or the directory that
// holds `conf/global.yaml`.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	Client Client `koanf:"client"`
	HTTP   HTTP   `koanf:"http"`
	Auth   Auth   `koanf:"auth"`
	Log    Log    `koanf:"log"`
	Paths  Paths  `koanf:"-"`
}

// Defaults.
const (
	DefaultBaseURL      = "http://localhost:8080"
	DefaultClientTO     = 15 * time.Second
	DefaultListenAddr   = ":8080"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 15 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	DefaultRatePerS     = 1.0
	DefaultRateBurst    = 5
	DefaultMaxIPs       = 4096
)

// applyDefaults fills zero values and resolves a relative log dir against
// Root.  Root must already be set.
func applyDefaults(c *Config) {
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = DefaultBaseURL
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = DefaultClientTO
	}
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = DefaultListenAddr
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = DefaultReadTimeout
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = DefaultWriteTimeout
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = DefaultIdleTimeout
	}
	if c.Auth.RatePerS == 0 {
		c.Auth.RatePerS = DefaultRatePerS
	}
	if c.Auth.RateBurst == 0 {
		c.Auth.RateBurst = DefaultRateBurst
	}
	if c.Auth.MaxIPs == 0 {
		c.Auth.MaxIPs = DefaultMaxIPs
	}
	switch {
	case c.Log.Dir == "":
		c.Log.Dir = filepath.Join(c.Paths.Root, "logs")
	case !filepath.IsAbs(c.Log.Dir):
		c.Log.Dir = filepath.Join(c.Paths.Root, c.Log.Dir)
	}
}
