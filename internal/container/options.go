package container

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
)

// Lookup caches placed in front of the store.
const (
	CacheNone  = "none"
	CacheRedis = "redis"
	CacheLRU   = "lru"
)

// Audit sinks. Every sink also writes the event to the log.
const (
	AuditLog     = "log"
	AuditStore   = "store"
	AuditStream  = "stream"
	AuditChannel = "channel"
)

// Options is read by humacli from flags and SERVICE_* environment variables.
type Options struct {
	Port        int    `default:"8888"                  help:"Port to listen on"                                    short:"p"`
	BaseURL     string `default:"http://localhost:8888" help:"Canonical URL of the service"                         short:"b"`
	HostAliases string `default:""                      help:"Comma separated hosts redirected to the base URL"`
	ClientID    string `default:""                      help:"OAuth client ID; login is disabled when empty"`
	LoginDomain string `default:""                      help:"Hosted domain users must sign in with"`
	StaticDir   string `default:""                      help:"Directory served under /.static/"`
	LogFormat   string `default:"console"               help:"Log encoding: console or json"`

	Storage      string `default:"memory"         help:"Link store: memory, postgres, sqlite or redis" short:"s"`
	DatabaseURL  string `default:""               help:"PostgreSQL connection URL"`
	DatabaseFile string `default:"golinks.db"     help:"SQLite file or libsql:// URL"`
	RedisAddr    string `default:"localhost:6379" help:"Redis server address"                          short:"r"`

	Cache           string `default:"none" help:"Lookup cache: none, redis or lru"`
	CacheTTLSeconds int    `default:"300"  help:"Cache entry lifetime"`
	CacheSize       int    `default:"1024" help:"LRU cache capacity"`

	AuditSink      string `default:"log"    help:"Audit trail: log, store, stream or channel"`
	RateLimitStore string `default:"memory" help:"API rate limit counters: memory or redis"`
	RedirectRate   int    `default:"50"     help:"Redirects per second allowed per client"`
}

func oneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}

	return fmt.Errorf("%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
}

// Validate reports every invalid or contradictory setting.
func (o *Options) Validate() error {
	errs := []error{
		oneOf("storage", o.Storage, StorageMemory, StoragePostgres, StorageSQLite, StorageRedis),
		oneOf("cache", o.Cache, CacheNone, CacheRedis, CacheLRU),
		oneOf("audit-sink", o.AuditSink, AuditLog, AuditStore, AuditStream, AuditChannel),
		oneOf("rate-limit-store", o.RateLimitStore, StorageMemory, StorageRedis),
		oneOf("log-format", o.LogFormat, "console", "json"),
	}

	if u, err := url.Parse(o.BaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("base-url must be an absolute http(s) URL, got %q", o.BaseURL))
	}

	if o.Storage == StoragePostgres && o.DatabaseURL == "" {
		errs = append(errs, errors.New("database-url is required for postgres storage"))
	}

	if o.Storage == StorageRedis && o.AuditSink == AuditStore {
		errs = append(errs, errors.New("redis storage cannot keep the audit trail; use another audit sink"))
	}

	// Another instance's writes never evict this process's LRU.
	if o.Cache == CacheLRU && o.Storage != StorageMemory {
		errs = append(errs, fmt.Errorf("lru cache only fits memory storage; use the redis cache with %s storage", o.Storage))
	}

	if o.Cache != CacheNone && o.CacheTTLSeconds <= 0 {
		errs = append(errs, errors.New("cache-ttl-seconds must be positive"))
	}

	if o.RedirectRate <= 0 {
		errs = append(errs, errors.New("redirect-rate must be positive"))
	}

	return errors.Join(errs...)
}

// CacheTTL is CacheTTLSeconds as a duration.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLSeconds) * time.Second
}

// UsesRedis reports whether any component needs the Redis client.
func (o *Options) UsesRedis() bool {
	return o.Storage == StorageRedis ||
		o.Cache == CacheRedis ||
		o.AuditSink == AuditStream ||
		o.RateLimitStore == StorageRedis
}

// Aliases splits HostAliases.
func (o *Options) Aliases() []string {
	var aliases []string

	for _, a := range strings.Split(o.HostAliases, ",") {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}

	return aliases
}

// Host is the base URL's host, shown in front of link names.
func (o *Options) Host() string {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return o.BaseURL
	}

	return u.Host
}

// Base is the base URL without a trailing slash.
func (o *Options) Base() string {
	return strings.TrimRight(o.BaseURL, "/")
}
