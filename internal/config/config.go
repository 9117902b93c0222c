// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	S3       S3Config      `yaml:"s3"`
	Photos   PhotosConfig  `yaml:"photos"`
	Mongo    MongoConfig   `yaml:"mongo"`
	Mail     MailConfig    `yaml:"mail"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
	Upload  time.Duration `yaml:"upload" env:"UPLOAD_TIMEOUT" env-default:"60s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// Алгоритмы хэширования паролей.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// AuthConfig содержит параметры выпуска и валидации токенов и хэширования паролей.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	EmailTokenTTL   time.Duration `yaml:"email_token_ttl" env:"EMAIL_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"photo-sharing"`
	PasswordHasher  string        `yaml:"password_hasher" env:"PASSWORD_HASHER" env-default:"bcrypt"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// DBConfig — настройки подключения к PostgreSQL.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — кэш учётных записей. Пустой URL отключает кэш.
type RedisConfig struct {
	RedisURL   string        `yaml:"redis_url" env:"REDIS_URL"`
	AccountTTL time.Duration `yaml:"account_ttl" env:"REDIS_ACCOUNT_TTL" env-default:"5m"`
}

// S3Config — объектное хранилище фотографий (MinIO/S3).
type S3Config struct {
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	RootUser      string `yaml:"root_user" env:"S3_ROOT_USER" env-default:"minioadmin"`
	RootPassword  string `yaml:"root_password" env:"S3_ROOT_PASSWORD" env-default:"minioadmin"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET" env-default:"photos"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// PhotosConfig — ограничения на загружаемые фотографии.
type PhotosConfig struct {
	MaxSizeBytes        int64    `yaml:"max_size_bytes" env:"PHOTO_MAX_SIZE_BYTES" env-default:"10485760"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"PHOTO_ALLOWED_CONTENT_TYPES" env-default:"image/jpeg,image/png,image/webp"`
	MaxTags             int      `yaml:"max_tags" env:"PHOTO_MAX_TAGS" env-default:"5"`
}

// MongoConfig — хранилище комментариев.
type MongoConfig struct {
	URL      string `yaml:"url" env:"MONGO_URL" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"photo_sharing"`
}

// MailConfig — параметры писем подтверждения e-mail.
type MailConfig struct {
	From    string `yaml:"from" env:"MAIL_FROM" env-default:"no-reply@photo-sharing.local"`
	BaseURL string `yaml:"base_url" env:"MAIL_BASE_URL" env-default:"http://localhost:8080"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	if path != "" {
		return readFile(path)
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
