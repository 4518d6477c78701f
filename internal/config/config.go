package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации
type Config struct {
	Registry  RegistryConfig  `yaml:"registry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Поддерживаемые хранилища таблицы имен
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMaria  = "maria"
	BackendMongo  = "mongo"
)

type RegistryConfig struct {
	Backend   string      `yaml:"backend"`
	WorldRoot string      `yaml:"world_root"`
	MinID     int         `yaml:"min_id"`
	MaxID     int         `yaml:"max_id"`
	Redis     RedisConfig `yaml:"redis"`
	Maria     MariaConfig `yaml:"maria"`
	Mongo     MongoConfig `yaml:"mongo"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MariaConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type MongoConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Counters   string        `yaml:"counters"`
	Timeout    time.Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File включает запись в logs/<component>_<time>.log
	File bool `yaml:"file"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// Default конфигурация, когда файл не задан
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{
			Backend:   BackendFile,
			WorldRoot: ".",
			MinID:     1,
			MaxID:     65535,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "voxel:materials:",
			},
			Maria: MariaConfig{Table: "material_ids"},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "voxelcore",
				Collection: "materials",
				Counters:   "counters",
				Timeout:    5 * time.Second,
			},
		},
		Logging:   LoggingConfig{Level: "info"},
		Telemetry: TelemetryConfig{ServiceName: "voxelcore"},
	}
}

// GetWorldRoot возвращает корень мира с приоритетом: env -> config -> "."
func (r *RegistryConfig) GetWorldRoot() string {
	return getStringWithEnvOverride(r.WorldRoot, "VOXEL_WORLD_ROOT", ".")
}

// GetBackend возвращает хранилище с приоритетом: env -> config -> file
func (r *RegistryConfig) GetBackend() string {
	return getStringWithEnvOverride(r.Backend, "VOXEL_REGISTRY_BACKEND", BackendFile)
}

// getStringWithEnvOverride переменная окружения перекрывает конфиг
func getStringWithEnvOverride(configValue, envVar, defaultValue string) string {
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	if configValue != "" {
		return configValue
	}
	return defaultValue
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}
	return defaultValue
}

// IDRange границы выдаваемых идентификаторов
func (r *RegistryConfig) IDRange() (min, max uint16, err error) {
	lo := getIntWithEnvFallback(r.MinID, "VOXEL_MIN_ID", 1)
	hi := getIntWithEnvFallback(r.MaxID, "VOXEL_MAX_ID", 65535)
	if lo > hi || hi > 65535 {
		return 0, 0, fmt.Errorf("config: bad id range [%d, %d]", lo, hi)
	}
	return uint16(lo), uint16(hi), nil
}

// Load читает YAML файл конфигурации поверх Default.
// Если path == "", берется ENV GAME_CONFIG; если и он пуст, возвращается Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("GAME_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
