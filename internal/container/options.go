package container

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"

	EventsOff    = "off"
	EventsMemory = "memory"
	EventsRedis  = "redis"
)

// Options configures the service. Every field is settable as a flag or a
// SERVICE_* environment variable.
type Options struct {
	Port        int    `default:"8888" help:"Port to listen on"                                   short:"p"`
	BaseURL     string `default:""     help:"Public base URL, defaults to http://localhost:<port>"`
	ShortDomain string `default:""     help:"Domain short links are served from over https"`

	Storage       string `default:"memory"                                           help:"Record store: memory, postgres or mongo"`
	DatabaseURL   string `default:"postgres://localhost:5432/spoo?sslmode=disable"   help:"PostgreSQL connection string"`
	MongoURI      string `default:"mongodb://localhost:27017"                        help:"MongoDB connection string"`
	MongoDatabase string `default:"spoo-horse"                                       help:"MongoDB database name"`

	RedisAddr  string `default:"localhost:6379" help:"Redis server address"                          short:"r"`
	CacheTTLMs int    `default:"0"              help:"Lifetime of cached links in ms, 0 disables caching"`

	AliasStyle     string `default:"emoji" help:"Generated alias style: emoji or token"`
	CodeLength     int    `default:"8"     help:"Length of generated token aliases"              short:"c"`
	EmojiLength    int    `default:"4"     help:"Number of emojis in generated aliases"`
	StoreTimeoutMs int    `default:"5000"  help:"Timeout of a single store call in ms"`

	Blocklist     string `default:"" help:"Comma separated list of blocked hosts"`
	BlocklistFile string `default:"" help:"File with one blocked host per line"`

	APIKey           string `default:""       help:"Integration API key, requests carrying it skip rate limiting"`
	RateLimitStore   string `default:"memory" help:"Rate limit counters: memory or redis"`
	PasswordAttempts int    `default:"10"     help:"Password attempts per link and client per minute, 0 disables the guard"`

	Events string `default:"off" help:"Link events transport: off, memory or redis"`

	LogFormat string `default:"console" help:"Log format: console or json"`
	LogLevel  string `default:"info"    help:"Log level: debug, info, warn or error"`
}

// PublicBaseURL returns BaseURL or the local address derived from Port.
func (o *Options) PublicBaseURL() string {
	if o.BaseURL != "" {
		return strings.TrimRight(o.BaseURL, "/")
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// StoreTimeout is StoreTimeoutMs as a duration.
func (o *Options) StoreTimeout() time.Duration {
	return time.Duration(o.StoreTimeoutMs) * time.Millisecond
}

// CacheTTL is CacheTTLMs as a duration.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLMs) * time.Millisecond
}

// BlockedHosts splits Blocklist into its entries.
func (o *Options) BlockedHosts() []string {
	var hosts []string

	for _, h := range strings.Split(o.Blocklist, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}

	return hosts
}

// UsesRedis reports whether any component needs a Redis connection.
func (o *Options) UsesRedis() bool {
	return o.CacheTTLMs > 0 || o.RateLimitStore == "redis" || o.Events == EventsRedis
}

// Validate rejects unknown enum values and out of range numbers.
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&o.Storage, validation.In(StorageMemory, StoragePostgres, StorageMongo)),
		validation.Field(&o.Events, validation.In(EventsOff, EventsMemory, EventsRedis)),
		validation.Field(&o.RateLimitStore, validation.In("memory", "redis")),
		validation.Field(&o.AliasStyle, validation.In("emoji", "token")),
		validation.Field(&o.LogFormat, validation.In("console", "json")),
		validation.Field(&o.EmojiLength, validation.Min(1)),
		validation.Field(&o.CodeLength, validation.Min(1)),
		validation.Field(&o.CacheTTLMs, validation.Min(0)),
		validation.Field(&o.StoreTimeoutMs, validation.Min(0)),
		validation.Field(&o.PasswordAttempts, validation.Min(0)),
	)
}
