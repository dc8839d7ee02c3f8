// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через аргумент Load;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env   string      `yaml:"env" env:"ENV" env-default:"local"`
	Auth  AuthConfig  `yaml:"auth"`
	DB    DBConfig    `yaml:"db"`
	Redis RedisConfig `yaml:"redis"`
}

// AuthConfig содержит параметры выпуска и валидации токенов.
//
// JWTSecret подписывает access-токены. RefreshSecret, если задан, подписывает
// refresh-токены; пустое значение включает легаси-режим деривации:
// refresh-секрет выводится из базового как JWTSecret + "_refresh".
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"60m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"auth-service"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	RotateOnRefresh bool          `yaml:"rotate_on_refresh" env:"ROTATE_ON_REFRESH" env-default:"false"`
}

// AccessSigningSecret возвращает секрет подписи access-токенов.
func (a AuthConfig) AccessSigningSecret() []byte {
	return []byte(a.JWTSecret)
}

// RefreshSigningSecret возвращает секрет подписи refresh-токенов:
// явно заданный refresh_secret либо дериват базового секрета.
func (a AuthConfig) RefreshSigningSecret() []byte {
	if a.RefreshSecret != "" {
		return []byte(a.RefreshSecret)
	}

	return []byte(a.JWTSecret + "_refresh")
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — настройки Redis-хранилища (опционально; пустой URL —
// redis-адаптер не используется).
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
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
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

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

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide path, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
