// Package config provides configuration loading and management for the sync worker.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/nodesync/internal/telemetry"
)

// EnvPrefix is the prefix of every environment variable read by the worker.
const EnvPrefix = "NODESYNC"

// StorageType selects the storage backend.
type StorageType string

const (
	// StorageTypeDatabase stores clusters, nodes and jobs in PostgreSQL
	StorageTypeDatabase StorageType = "database"

	// StorageTypeMemory keeps everything in process memory
	StorageTypeMemory StorageType = "memory"
)

// Defaults applied when a field is left empty.
const (
	DefaultYieldEvery        = 10
	DefaultYieldDelay        = 30 * time.Millisecond
	DefaultBatchSize         = 10
	DefaultRecheckBatchSize  = 5
	DefaultSourceTimeout     = 30 * time.Second
	DefaultSourceMaxRetries  = 3
	DefaultStreamPrefix      = "nodesync"
	DefaultConsumerGroup     = "nodesync-workers"
	DefaultQueueBlockTimeout = 5 * time.Second
	DefaultQueueBatchSize    = 10
	DefaultQueueClaimIdle    = 5 * time.Minute
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Storage   StorageConfig     `yaml:"storage"`
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Queue     *QueueConfig      `yaml:"queue,omitempty"`
	Sync      SyncConfig        `yaml:"sync"`
	Source    SourceConfig      `yaml:"source"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// StorageConfig selects where records live.
type StorageConfig struct {
	// Type is either "database" or "memory". Defaults to "database" when a
	// database section is present, "memory" otherwise.
	Type StorageType `yaml:"type,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username used by the worker
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// MigrationUser runs schema migrations. Defaults to User.
	MigrationUser string `yaml:"migrationUser,omitempty"`

	// MigrationPasswordFile holds the password of MigrationUser.
	MigrationPasswordFile string `yaml:"migrationPasswordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// QueueConfig configures the Redis Streams job queue.
type QueueConfig struct {
	Address       string        `yaml:"address"`
	Password      string        `yaml:"password,omitempty"`
	DB            int           `yaml:"db,omitempty"`
	StreamPrefix  string        `yaml:"streamPrefix,omitempty"`
	ConsumerGroup string        `yaml:"consumerGroup,omitempty"`
	ConsumerID    string        `yaml:"consumerId,omitempty"`
	BlockTimeout  time.Duration `yaml:"blockTimeout,omitempty"`
	BatchSize     int64         `yaml:"batchSize,omitempty"`
	ClaimIdle     time.Duration `yaml:"claimIdle,omitempty"`
}

// SyncConfig tunes the sync passes.
type SyncConfig struct {
	// YieldEvery is the number of items between pauses. Negative disables pacing.
	YieldEvery int `yaml:"yieldEvery,omitempty"`

	// YieldDelay is the pause length. Negative disables pacing.
	YieldDelay time.Duration `yaml:"yieldDelay,omitempty"`

	// BatchSize is the progress flush threshold of the classification,
	// authority and bulk status passes.
	BatchSize int `yaml:"batchSize,omitempty"`

	// RecheckBatchSize is the progress flush threshold of the unavailability recheck.
	RecheckBatchSize int `yaml:"recheckBatchSize,omitempty"`
}

// SourceConfig configures HTTP access to the profile index.
type SourceConfig struct {
	Timeout           time.Duration `yaml:"timeout,omitempty"`
	UserAgent         string        `yaml:"userAgent,omitempty"`
	MaxRetries        *uint         `yaml:"maxRetries,omitempty"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond,omitempty"`
	MaxPages          int           `yaml:"maxPages,omitempty"`
}

func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from NODESYNC_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readPassword(d.PasswordFile, "database.password")
}

// GetMigrationPassword returns the password of the migration user. It falls
// back to GetPassword when no dedicated migration user is configured.
func (d *DatabaseConfig) GetMigrationPassword() (string, error) {
	if d.MigrationUser == "" {
		return d.GetPassword()
	}
	return readPassword(d.MigrationPasswordFile, "database.migration_password")
}

func readPassword(file, envKey string) (string, error) {
	if file != "" {
		cleanPath := filepath.Clean(file)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", file, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := newEnv().GetString(envKey); envPassword != "" {
		return envPassword, nil
	}

	envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(envKey, ".", "_"))
	return "", fmt.Errorf("no database password configured: set a password file or the %s environment variable", envName)
}

// GetMigrationUser returns the user that runs migrations.
func (d *DatabaseConfig) GetMigrationUser() string {
	if d.MigrationUser == "" {
		return d.User
	}
	return d.MigrationUser
}

// GetConnectionString builds a PostgreSQL connection string for the worker user.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}
	return d.connectionString(d.User, password), nil
}

// GetMigrationConnectionString builds a PostgreSQL connection string for the migration user.
func (d *DatabaseConfig) GetMigrationConnectionString() (string, error) {
	password, err := d.GetMigrationPassword()
	if err != nil {
		return "", err
	}
	return d.connectionString(d.GetMigrationUser(), password), nil
}

func (d *DatabaseConfig) connectionString(user, password string) string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user,
		url.QueryEscape(password),
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetStorageType returns the configured storage type.
func (c *Config) GetStorageType() StorageType {
	if c.Storage.Type != "" {
		return c.Storage.Type
	}
	if c.Database != nil {
		return StorageTypeDatabase
	}
	return StorageTypeMemory
}

// Pacing returns the pause interval and length. Zero values disable pacing.
func (s SyncConfig) Pacing() (int, time.Duration) {
	every, delay := s.YieldEvery, s.YieldDelay
	if every == 0 {
		every = DefaultYieldEvery
	}
	if delay == 0 {
		delay = DefaultYieldDelay
	}
	if every < 0 || delay < 0 {
		return 0, 0
	}
	return every, delay
}

// GetBatchSize returns the progress flush threshold of most passes.
func (s SyncConfig) GetBatchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// GetRecheckBatchSize returns the progress flush threshold of the unavailability recheck.
func (s SyncConfig) GetRecheckBatchSize() int {
	if s.RecheckBatchSize <= 0 {
		return DefaultRecheckBatchSize
	}
	return s.RecheckBatchSize
}

// GetTimeout returns the per request timeout.
func (s SourceConfig) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultSourceTimeout
	}
	return s.Timeout
}

// GetMaxRetries returns the number of retries of transient failures.
func (s SourceConfig) GetMaxRetries() uint {
	if s.MaxRetries == nil {
		return DefaultSourceMaxRetries
	}
	return *s.MaxRetries
}

// GetStreamPrefix returns the stream key prefix.
func (q *QueueConfig) GetStreamPrefix() string {
	if q.StreamPrefix == "" {
		return DefaultStreamPrefix
	}
	return q.StreamPrefix
}

// GetConsumerGroup returns the consumer group name.
func (q *QueueConfig) GetConsumerGroup() string {
	if q.ConsumerGroup == "" {
		return DefaultConsumerGroup
	}
	return q.ConsumerGroup
}

// GetConsumerID returns the consumer name, the hostname by default.
func (q *QueueConfig) GetConsumerID() string {
	if q.ConsumerID != "" {
		return q.ConsumerID
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "nodesync"
	}
	return host
}

// GetBlockTimeout returns how long a read waits for new messages.
func (q *QueueConfig) GetBlockTimeout() time.Duration {
	if q.BlockTimeout <= 0 {
		return DefaultQueueBlockTimeout
	}
	return q.BlockTimeout
}

// GetBatchSize returns the number of messages read at once.
func (q *QueueConfig) GetBatchSize() int64 {
	if q.BatchSize <= 0 {
		return DefaultQueueBatchSize
	}
	return q.BatchSize
}

// GetClaimIdle returns the idle time after which pending messages are reclaimed.
func (q *QueueConfig) GetClaimIdle() time.Duration {
	if q.ClaimIdle <= 0 {
		return DefaultQueueClaimIdle
	}
	return q.ClaimIdle
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	switch c.GetStorageType() {
	case StorageTypeDatabase:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("storage.type %s requires a database section", StorageTypeDatabase))
		} else if err := c.Database.validate(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	case StorageTypeMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %s or %s, got %s",
			StorageTypeDatabase, StorageTypeMemory, c.Storage.Type))
	}

	if c.Queue != nil && c.Queue.Address == "" {
		errs = append(errs, fmt.Errorf("queue.address is required"))
	}

	if c.Sync.BatchSize < 0 || c.Sync.RecheckBatchSize < 0 {
		errs = append(errs, fmt.Errorf("sync batch sizes must not be negative"))
	}

	if c.Source.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("source.requestsPerSecond must not be negative"))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("host is required")
	}
	if d.Port <= 0 {
		return fmt.Errorf("port is required")
	}
	if d.User == "" {
		return fmt.Errorf("user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("connMaxLifetime must be a valid duration: %w", err)
		}
	}
	return nil
}
