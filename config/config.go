package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Database DatabaseConfig `mapstructure:"database"`
	Document DocumentConfig `mapstructure:"document"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"` // listen host
	Port int    `mapstructure:"port"` // listen port
}

// StorageConfig holds the file storage settings.
type StorageConfig struct {
	Type      string `mapstructure:"type"`     // local or minio
	Path      string `mapstructure:"path"`     // local storage directory
	Bucket    string `mapstructure:"bucket"`   // minio bucket
	Endpoint  string `mapstructure:"endpoint"` // minio endpoint
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// CacheConfig holds the chunk cache settings.
type CacheConfig struct {
	Enable   bool   `mapstructure:"enable"`   // enable chunk memoization
	Type     string `mapstructure:"type"`     // memory or redis
	Address  string `mapstructure:"address"`  // redis address
	Password string `mapstructure:"password"` // redis password
	DB       int    `mapstructure:"db"`       // redis database
	TTL      int    `mapstructure:"ttl"`      // entry TTL in seconds
}

// QueueConfig holds the task queue settings.
type QueueConfig struct {
	Enable        bool   `mapstructure:"enable"`         // enable async processing
	RedisAddr     string `mapstructure:"redis_addr"`     // redis address
	RedisPassword string `mapstructure:"redis_password"` // redis password
	RedisDB       int    `mapstructure:"redis_db"`       // redis database
	Concurrency   int    `mapstructure:"concurrency"`    // worker concurrency
	RetryLimit    int    `mapstructure:"retry_limit"`    // max retries per task
	RetryDelay    int    `mapstructure:"retry_delay"`    // retry delay in seconds
}

// DatabaseConfig holds the metadata database settings.
type DatabaseConfig struct {
	Type string `mapstructure:"type"` // sqlite
	DSN  string `mapstructure:"dsn"`  // data source name
}

// DocumentConfig holds the chunking defaults.
type DocumentConfig struct {
	ChunkSize    int    `mapstructure:"chunk_size"`    // target chunk size in characters
	ChunkOverlap int    `mapstructure:"chunk_overlap"` // overlap for the length strategy
	SplitType    string `mapstructure:"split_type"`    // sentence, paragraph or length
}

// LogConfig holds the log output settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	File       string `mapstructure:"file"`        // log file path, empty for stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after this size
	MaxBackups int    `mapstructure:"max_backups"` // rotated files to keep
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads the configuration from the given file, falling back to defaults
// and applying environment variable overrides.
func Load(configPath string) (*Config, error) {
	var config Config

	if configPath == "" {
		configPath = "config.yaml"
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Warning: config file not found at %s, using defaults", configPath)
			setDefaults(v)
			// Write the defaults out so the operator has a file to edit.
			if dir := filepath.Dir(configPath); dir != "" {
				if err := os.MkdirAll(dir, 0755); err == nil {
					if err := v.WriteConfigAs(configPath); err != nil {
						log.Printf("Warning: could not write default config to %s: %v", configPath, err)
					}
				}
			}
		} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: config file not found at %s, using defaults", configPath)
			setDefaults(v)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Printf("Using config file: %s", v.ConfigFileUsed())
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// Addr returns the server listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.path", "./uploads")
	v.SetDefault("storage.bucket", "docchunk")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("cache.enable", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", 3600)

	v.SetDefault("queue.enable", false)
	v.SetDefault("queue.redis_addr", "localhost:6379")
	v.SetDefault("queue.redis_db", 0)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.retry_limit", 3)
	v.SetDefault("queue.retry_delay", 60)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/docchunk.db")

	v.SetDefault("document.chunk_size", 1000)
	v.SetDefault("document.chunk_overlap", 200)
	v.SetDefault("document.split_type", "sentence")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
}
