package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// AdminSecret gates admin signup through the X-Admin-Secret header.
	// Empty disables admin signup.
	AdminSecret string   `env:"ADMIN_SECRET"`
	FrontendURL string   `env:"FRONTEND_URL, default=http://localhost:3000"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
	// TrustedProxies lists the CIDRs (or single IPs) of reverse proxies whose
	// X-Forwarded-For is believed. Empty keys rate limits on the peer address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	RatingWorkers int `env:"RATING_WORKERS, default=4"`

	Mongo MongoConfig
	Redis RedisConfig
	JWT   JWTConfig
	Admin AdminSeedConfig
	SMTP  SMTPConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=storefront"`
}

// RedisConfig configures the catalog cache. An empty Addr runs the API with
// caching disabled.
type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB,  default=0"`
	CacheTTL time.Duration `env:"CACHE_TTL, default=300s"`
}

// JWTConfig holds an independent secret and lifetime per token kind.
type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL,  default=30m"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL, default=720h"`
	ResetSecret   string        `env:"JWT_RESET_SECRET"`
	ResetTTL      time.Duration `env:"JWT_RESET_TTL,   default=15m"`
}

// AdminSeedConfig, when both fields are set, creates an admin account at
// startup if none exists for Email.
type AdminSeedConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD"`
}

// SMTPConfig configures password reset mail. An empty Host logs reset links
// instead of sending them.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM, default=no-reply@glimpse.local"`
}

// IsProduction reports whether internal error detail must be hidden.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// TrustedProxyNets parses TrustedProxies. A bare IP is a single-host range.
func (c *Config) TrustedProxyNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("config: invalid trusted proxy %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("config: invalid trusted proxy %q: %w", raw, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
