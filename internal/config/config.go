// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"APP_ENV" env-default:"local"`
	Storage         `yaml:"storage"`
	HTTPServer      `yaml:"http_server"`
	Session         `yaml:"session"`
	Admin           `yaml:"admin"`
	Drive           `yaml:"drive"`
	Download        `yaml:"download"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	SMTP            `yaml:"smtp"`
	Scheduler       `yaml:"scheduler"`
}

// Storage настройки подключения к PostgreSQL
type Storage struct {
	StorageConnectionString string        `yaml:"storage_connection_string" env:"DATABASE_URL" env-required:"true"`
	DatabaseName            string        `yaml:"database_name" env:"DATABASE_NAME" env-default:"clevers_schools"`
	MinConns                int32         `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	MaxConns                int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"10"`
	ConnectTimeout          time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" env-default:"10s"`
	MigrationsPath          string        `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Session настройки сессионного токена
type Session struct {
	SessionSecret    string        `yaml:"secret" env:"SESSION_SECRET" env-required:"true"`
	SessionTTL       time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"720h"`
	SessionUpdateAge time.Duration `yaml:"update_age" env:"SESSION_UPDATE_AGE" env-default:"24h"`
	SessionCookie    string        `yaml:"cookie" env:"SESSION_COOKIE" env-default:"session_token"`
}

// Admin список администраторов
type Admin struct {
	AdminEmails []string `yaml:"emails" env:"ADMIN_EMAILS" env-separator:","`
}

// Drive учётные данные сервисного аккаунта Google
type Drive struct {
	ClientEmail string `yaml:"client_email" env:"GOOGLE_CLIENT_EMAIL"`
	PrivateKey  string `yaml:"private_key" env:"GOOGLE_PRIVATE_KEY"`
	ClientID    string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
}

// Download параметры проксирования файлов
type Download struct {
	ChunkSize   int           `yaml:"chunk_size" env:"DOWNLOAD_CHUNK_SIZE" env-default:"262144"`
	Timeout     time.Duration `yaml:"timeout" env:"DOWNLOAD_TIMEOUT" env-default:"60s"`
	CacheMaxAge time.Duration `yaml:"cache_max_age" env:"DOWNLOAD_CACHE_MAX_AGE" env-default:"1h"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// RabbitMQ настройки брокера. Пустой URL отключает публикацию событий.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// SMTP настройки почтового сервера
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// Scheduler настройки планировщика напоминаний
type Scheduler struct {
	SchedulerInterval time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"12h"`
}

// Load читает конфиг из файла CONFIG_PATH (если задан) и переменных окружения.
// Перед этим подгружается .env, если он есть.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var cfg Config
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// ключ из .env обычно хранится одной строкой с экранированными переводами строк
	cfg.PrivateKey = strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")

	return &cfg, nil
}

// MustLoad функция для загрузки конфига, завершает процесс при ошибке
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// IsAdmin сообщает, входит ли email в список администраторов.
func (a Admin) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range a.AdminEmails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  DatabaseName: %s\n"+
			"  Pool: %d-%d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Session:\n"+
			"  TTL: %s\n"+
			"  Cookie: %s\n"+
			"Admins: %d\n"+
			"Drive:\n"+
			"  ClientEmail: %s\n"+
			"Download:\n"+
			"  ChunkSize: %d\n"+
			"  Timeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ enabled: %t\n",
		c.Env,
		c.DatabaseName,
		c.MinConns, c.MaxConns,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.SessionTTL,
		c.SessionCookie,
		len(c.AdminEmails),
		c.ClientEmail,
		c.ChunkSize,
		c.Download.Timeout,
		c.AddressRedis,
		c.RabbitMQURL != "",
	)
}
