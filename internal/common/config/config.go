package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string   `yaml:"port"`
	Environment  string   `yaml:"env"`
	ReadTimeout  int      `yaml:"read_timeout"`
	WriteTimeout int      `yaml:"write_timeout"`
	DBPath       string   `yaml:"db_path"`
	SourceDir    string   `yaml:"source_dir"`
	CORSOrigins  []string `yaml:"cors_origins"`
	SaveTimeout  int      `yaml:"save_timeout"`
}

func defaults() *Config {
	return &Config{
		Port:         "3000",
		Environment:  "development",
		ReadTimeout:  10,
		WriteTimeout: 10,
		DBPath:       "data/takeoff.db",
		SourceDir:    "data/sources",
		CORSOrigins:  []string{"*"},
		SaveTimeout:  10,
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML-файл из TAKEOFF_CONFIG,
// затем переменные окружения.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("TAKEOFF_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.DBPath = getEnv("TAKEOFF_DB_PATH", cfg.DBPath)
	cfg.SourceDir = getEnv("TAKEOFF_SOURCE_DIR", cfg.SourceDir)
	cfg.CORSOrigins = getEnvAsList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.SaveTimeout = getEnvAsInt("SAVE_TIMEOUT", cfg.SaveTimeout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate проверяет значения после всех источников.
func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.SaveTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if strings.TrimSpace(c.SourceDir) == "" {
		errs = append(errs, errors.New("source dir is required"))
	}
	if len(c.CORSOrigins) == 0 {
		errs = append(errs, errors.New("at least one CORS origin is required"))
	}
	return errors.Join(errs...)
}

// SaveTimeoutDuration ограничивает одну запись документа (takeoffctl push).
func (c *Config) SaveTimeoutDuration() time.Duration {
	return time.Duration(c.SaveTimeout) * time.Second
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
