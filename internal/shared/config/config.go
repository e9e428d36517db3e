// Package config defines the application configuration schema and its
// hot-reloadable loading. The concrete downstream clients (cache, object
// store, identity) are carried inside their config sections and rebuilt as
// part of each reload, so a credential or endpoint rotation in the file takes
// effect without a restart.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	sharedcache "github.com/joshuarp/liveconfig/internal/shared/cache"
	"github.com/joshuarp/liveconfig/internal/shared/hotload"
	sharedidentity "github.com/joshuarp/liveconfig/internal/shared/identity"
	sharedobjectstore "github.com/joshuarp/liveconfig/internal/shared/objectstore"
)

// DefaultSaltLength applies when salt_length is omitted from the file.
const DefaultSaltLength = 16

var _ hotload.Loadable = (*Config)(nil)

// Config is the live application configuration. It is held in a
// hotload.Slot; read it only under the slot's view and never retain client
// pointers across reads.
type Config struct {
	path string

	// Salt seeds password hashing and the rotating JWT signing secret.
	Salt       string `mapstructure:"salt"`
	SaltLength int    `mapstructure:"salt_length"`

	Server      ServerConfig      `mapstructure:"server"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Security    SecurityConfig    `mapstructure:"security"`
	Redis       RedisConfig       `mapstructure:"redis"`
	ObjectStore ObjectStoreConfig `mapstructure:"objectstore"`
	Identity    IdentityConfig    `mapstructure:"identity"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Audit       AuditConfig       `mapstructure:"audit"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type SecurityConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type JWTConfig struct {
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// RedisConfig describes the key-value-store collaborator. The client is
// rebuilt on every reload; an empty addr leaves it unbound.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	Client *sharedcache.Client `mapstructure:"-"`
}

// ObjectStoreConfig describes the object-storage collaborator. Credentials
// are never read from the file: access_key_env and secret_key_env name the
// process environment variables to inject them from.
type ObjectStoreConfig struct {
	Endpoint     string `mapstructure:"endpoint"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	AccessKeyEnv string `mapstructure:"access_key_env"`
	SecretKeyEnv string `mapstructure:"secret_key_env"`

	Client *sharedobjectstore.Client `mapstructure:"-"`
}

// IdentityConfig describes the session-validation collaborator.
type IdentityConfig struct {
	Addr string `mapstructure:"addr"`

	Client *sharedidentity.Client `mapstructure:"-"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AuditConfig struct {
	// IDStrategy selects the reload audit ID generator: "uuidv7" (default)
	// or "snowflake".
	IDStrategy string `mapstructure:"id_strategy"`

	// NodeID identifies this node for the snowflake strategy.
	NodeID int64 `mapstructure:"node_id"`
}

// New returns an unbound, empty configuration. The initial loader binds the
// path and performs the first Reload.
func New() *Config {
	return &Config{}
}

func (c *Config) Path() string { return c.path }

func (c *Config) BindPath(path string) { c.path = path }

// Reload re-reads the bound file and replaces the receiver's contents,
// rebuilding the downstream clients from the new settings. It is
// all-or-nothing: parse, validation or client-construction failures leave
// the previous contents and clients untouched.
func (c *Config) Reload() error {
	if c.path == "" {
		return fmt.Errorf("config: no path bound")
	}
	if info, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("config: no config file found at %q: %w", c.path, err)
	} else if info.IsDir() {
		return fmt.Errorf("config: %q is a directory, not a file", c.path)
	}

	v := viper.New()
	v.SetConfigFile(c.path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read %q: %w", c.path, err)
	}

	next := Config{path: c.path}
	if err := v.Unmarshal(&next); err != nil {
		return fmt.Errorf("config: failed to decode %q: %w", c.path, err)
	}
	if next.SaltLength == 0 {
		next.SaltLength = DefaultSaltLength
	}
	if err := next.validate(); err != nil {
		return err
	}
	if err := next.bindClients(); err != nil {
		return err
	}

	c.closeClients()
	*c = next
	return nil
}

func (c *Config) validate() error {
	if c.Salt == "" {
		return fmt.Errorf("config: salt must not be empty")
	}
	if c.SaltLength < 0 {
		return fmt.Errorf("config: salt_length must not be negative, got %d", c.SaltLength)
	}
	return nil
}

// bindClients constructs the downstream clients for the sections that are
// configured. Unconfigured sections keep a nil client, which the consumers
// treat as "collaborator disabled".
func (c *Config) bindClients() error {
	if c.Redis.Addr != "" {
		client, err := sharedcache.New(sharedcache.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err != nil {
			return err
		}
		c.Redis.Client = client
	}

	if c.ObjectStore.Endpoint != "" {
		client, err := sharedobjectstore.New(sharedobjectstore.Options{
			Endpoint:  c.ObjectStore.Endpoint,
			Bucket:    c.ObjectStore.Bucket,
			Region:    c.ObjectStore.Region,
			UseSSL:    c.ObjectStore.UseSSL,
			AccessKey: envOrEmpty(c.ObjectStore.AccessKeyEnv),
			SecretKey: envOrEmpty(c.ObjectStore.SecretKeyEnv),
		})
		if err != nil {
			return err
		}
		c.ObjectStore.Client = client
	}

	if c.Identity.Addr != "" {
		c.Identity.Client = sharedidentity.New(sharedidentity.Options{Addr: c.Identity.Addr})
	}

	return nil
}

// closeClients releases the connections owned by the outgoing value. Called
// only after the replacement has been fully constructed.
func (c *Config) closeClients() {
	if c.Redis.Client != nil {
		_ = c.Redis.Client.Close()
	}
}

// Close releases the clients held by the current value. For process shutdown.
func (c *Config) Close() {
	c.closeClients()
}

// DSN renders the audit database connection string.
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
	)
}

func envOrEmpty(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
