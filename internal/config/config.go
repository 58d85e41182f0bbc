package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   Server   `envPrefix:"SERVER_"`
	Log      Log      `envPrefix:"LOG_"`
	Database Database `envPrefix:"DATABASE_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	JWT      JWT      `envPrefix:"JWT_"`
	Cookie   Cookie   `envPrefix:"COOKIE_"`
	OAuth    OAuth    `envPrefix:"OAUTH_"`

	// StoreTimeout bounds every single cache or user store call.
	StoreTimeout        time.Duration `env:"STORE_TIMEOUT" envDefault:"2s"`
	CacheCompareAndSwap bool          `env:"CACHE_COMPARE_AND_SWAP" envDefault:"true"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins         []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RateLimitRPM        int           `env:"RATE_LIMIT_RPM" envDefault:"100"`
	AuthRateLimitRPM    int           `env:"AUTH_RATE_LIMIT_RPM" envDefault:"10"`
}

type Server struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"pretty"`
}

type Database struct {
	URL      string `env:"URL"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
	MinConns int32  `env:"MIN_CONNS" envDefault:"2"`
}

type Redis struct {
	Addr        string        `env:"ADDR" envDefault:"localhost:6379"`
	Password    string        `env:"PASSWORD"`
	DB          int           `env:"DB" envDefault:"0"`
	KeyPrefix   string        `env:"KEY_PREFIX"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
}

type JWT struct {
	Secret     string        `env:"SECRET"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"1h"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
	Issuer     string        `env:"ISSUER" envDefault:"techtaurant"`
}

type Cookie struct {
	AccessName  string `env:"ACCESS_NAME" envDefault:"accessToken"`
	RefreshName string `env:"REFRESH_NAME" envDefault:"refreshToken"`
	Secure      bool   `env:"SECURE" envDefault:"true"`
	HTTPOnly    bool   `env:"HTTP_ONLY" envDefault:"true"`
	SameSite    string `env:"SAME_SITE" envDefault:"Lax"`
	Path        string `env:"PATH" envDefault:"/"`
	Domain      string `env:"DOMAIN"`
}

type OAuth struct {
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/login/oauth2/code/google"`
	SuccessRedirectURL string        `env:"SUCCESS_REDIRECT_URL" envDefault:"http://localhost:3000/"`
	FailureRedirectURL string        `env:"FAILURE_REDIRECT_URL" envDefault:"http://localhost:3000/login"`
	StateTTL           time.Duration `env:"STATE_TTL" envDefault:"10m"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.JWT.Secret = strings.TrimSpace(cfg.JWT.Secret)
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}

	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL and JWT_REFRESH_TTL must be positive")
	}

	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return fmt.Errorf("JWT_ACCESS_TTL must be shorter than JWT_REFRESH_TTL")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Database.MaxConns <= 0 || c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DATABASE_MAX_CONNS must be positive and not below DATABASE_MIN_CONNS")
	}

	if strings.TrimSpace(c.Redis.Addr) == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return fmt.Errorf("COOKIE_ACCESS_NAME and COOKIE_REFRESH_NAME cannot be empty")
	}

	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return fmt.Errorf("COOKIE_ACCESS_NAME and COOKIE_REFRESH_NAME must differ")
	}

	if _, err := c.Cookie.SameSiteMode(); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Format) {
	case "pretty", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be pretty or json, got %q", c.Log.Format)
	}

	return nil
}

// SameSiteMode maps COOKIE_SAME_SITE to net/http. None is refused: the
// credential cookies must never be sent on cross-site subrequests.
func (c Cookie) SameSiteMode() (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(c.SameSite)) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	default:
		return 0, fmt.Errorf("COOKIE_SAME_SITE must be Lax or Strict, got %q", c.SameSite)
	}
}

func (c JWT) SecretBytes() []byte {
	return []byte(c.Secret)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (o OAuth) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
