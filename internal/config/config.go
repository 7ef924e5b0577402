package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug      bool       `yaml:"debug" env:"DEBUG"`
	AppSecret  string     `yaml:"app_secret" env:"APP_SECRET" env-required:"true"`
	Limiter    Limiter    `yaml:"limiter"`
	Server     Server     `yaml:"server"`
	DB         DB         `yaml:"db"`
	Cache      Cache      `yaml:"cache"`
	Queue      Queue      `yaml:"queue"`
	SMTPServer SMTPServer `yaml:"smtp"`
	Tokens     Tokens     `yaml:"tokens"`
	BgTasks    BgTasks    `yaml:"bg_tasks"`
	Pagination Pagination `yaml:"pagination"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled" env:"LIMITER_ENABLED"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env:"SERVER_PORT" env-default:"8000"`
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type DB struct {
	Dsn             string        `yaml:"dsn" env:"DB_DSN" env-required:"true"`
	MaxConns        int           `yaml:"max_conns" env-default:"25"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env-default:"10m"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" env-default:"5s"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type Cache struct {
	// Empty path keeps the cache in memory.
	Path string        `yaml:"path" env:"CACHE_PATH"`
	TTL  time.Duration `yaml:"ttl" env-default:"60s"`
}

type Queue struct {
	Driver        string        `yaml:"driver" env:"QUEUE_DRIVER" env-default:"gochannel"`
	NatsURL       string        `yaml:"nats_url" env:"QUEUE_NATS_URL" env-default:"nats://127.0.0.1:4222"`
	Topic         string        `yaml:"topic" env-default:"tasks"`
	QueueGroup    string        `yaml:"queue_group" env-default:"imdb-workers"`
	BufferSize    int64         `yaml:"buffer_size" env-default:"256"`
	MaxRetries    int           `yaml:"max_retries" env-default:"3"`
	RetryInterval time.Duration `yaml:"retry_interval" env-default:"1s"`
	CloseTimeout  time.Duration `yaml:"close_timeout" env-default:"10s"`
}

type SMTPServer struct {
	// Transport is either "smtp" or "api".
	Transport    string        `yaml:"transport" env:"SMTP_TRANSPORT" env-default:"smtp"`
	Host         string        `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"SMTP_PORT" env-default:"1025"`
	Username     string        `yaml:"username" env:"SMTP_USERNAME"`
	Password     string        `yaml:"password" env:"SMTP_PASSWORD"`
	Sender       string        `yaml:"sender" env:"SMTP_SENDER" env-default:"IMDB <no-reply@imdb.local>"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetriesCount int           `yaml:"retries_count" env-default:"3"`
	ApiURL       string        `yaml:"api_url" env:"SMTP_API_URL"`
	ApiToken     string        `yaml:"api_token" env:"SMTP_API_TOKEN"`

	BreakerFailures uint32        `yaml:"breaker_failures" env-default:"5"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" env-default:"30s"`
}

type Tokens struct {
	AccessTTL       time.Duration `yaml:"access_ttl" env-default:"24h"`
	ConfirmationTTL time.Duration `yaml:"confirmation_ttl" env-default:"72h"`
}

type BgTasks struct {
	MaxWorkers   int `yaml:"max_workers" env-default:"4"`
	MaxQueueSize int `yaml:"max_queue_size" env-default:"100"`
}

type Pagination struct {
	DefaultPageSize int `yaml:"default_page_size" env-default:"20"`
}

// MustLoad reads the YAML config at configPath, applying environment
// overrides. A .env file next to the working directory is loaded first when present.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
