package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/annel0/mmo-navgrid/internal/cache"
	"github.com/annel0/mmo-navgrid/internal/projection"
	"github.com/annel0/mmo-navgrid/internal/world"
)

// Config корневая структура конфигурации navserver.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Navigation NavigationConfig `yaml:"navigation"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Server     ServerConfig     `yaml:"server"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type GridConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Projection string  `yaml:"projection"`
	CellWidth  float64 `yaml:"cell_width"`
	CellHeight float64 `yaml:"cell_height"`
	Layers     int     `yaml:"layers"`
	OffsetX    float64 `yaml:"offset_x"`
	OffsetY    float64 `yaml:"offset_y"`
}

type NavigationConfig struct {
	MaxIterations int               `yaml:"max_iterations"`
	RandomSeed    int64             `yaml:"random_seed"`
	Cache         cache.CacheConfig `yaml:"cache"`
	// CacheEnabled включает кэш путей; выключен по умолчанию
	CacheEnabled bool `yaml:"cache_enabled"`
}

type GeneratorConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Seed           int64   `yaml:"seed"`
	NoiseScale     float64 `yaml:"noise_scale"`
	MaxCost        float64 `yaml:"max_cost"`
	BlockThreshold float64 `yaml:"block_threshold"`
	Layer          int     `yaml:"layer"`
}

type ServerConfig struct {
	RESTPort    int    `yaml:"rest_port"`
	Host        string `yaml:"host"`
	MetricsPort int    `yaml:"metrics_port"`
}

type EventBusConfig struct {
	// URL пустой - используется in-memory шина
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
	LogEvents bool   `yaml:"log_events"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	FileOutput   bool   `yaml:"file_output"`
}

var ErrInvalidConfig = errors.New("invalid config")

// Default возвращает конфигурацию с заполненными значениями по умолчанию
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults заполняет незаданные поля
func (c *Config) ApplyDefaults() {
	if c.Grid.Width <= 0 {
		c.Grid.Width = 128
	}
	if c.Grid.Height <= 0 {
		c.Grid.Height = 128
	}
	if c.Grid.Projection == "" {
		c.Grid.Projection = projection.Orthogonal.String()
	}
	if c.Grid.CellWidth <= 0 {
		c.Grid.CellWidth = 32
	}
	if c.Grid.CellHeight <= 0 {
		c.Grid.CellHeight = c.Grid.CellWidth
	}
	if c.Grid.Layers <= 0 {
		c.Grid.Layers = int(world.ConventionalLayers)
	}

	if c.Navigation.MaxIterations <= 0 {
		c.Navigation.MaxIterations = 10000
	}
	c.Navigation.Cache.ApplyDefaults()

	if c.Generator.NoiseScale <= 0 {
		c.Generator.NoiseScale = 0.08
	}
	if c.Generator.MaxCost <= 0 {
		c.Generator.MaxCost = 4
	}

	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	if c.EventBus.Stream == "" {
		c.EventBus.Stream = "NAVGRID"
	}
	if c.EventBus.Retention <= 0 {
		c.EventBus.Retention = 24
	}
	if c.EventBus.Buffer <= 0 {
		c.EventBus.Buffer = 1024
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "navgrid"
	}

	if c.Logging.ConsoleLevel == "" {
		c.Logging.ConsoleLevel = "info"
	}
	if c.Logging.FileLevel == "" {
		c.Logging.FileLevel = "debug"
	}
}

// Validate проверяет значения, которые нельзя исправить дефолтами
func (c *Config) Validate() error {
	if _, err := projection.ParseKind(c.Grid.Projection); err != nil {
		return fmt.Errorf("%w: grid.projection: %v", ErrInvalidConfig, err)
	}
	if c.Generator.Layer < 0 || c.Generator.Layer >= c.Grid.Layers {
		return fmt.Errorf("%w: generator.layer %d out of range [0,%d)", ErrInvalidConfig, c.Generator.Layer, c.Grid.Layers)
	}
	switch c.Navigation.Cache.Backend {
	case cache.BackendMemory, cache.BackendRedis:
	default:
		return fmt.Errorf("%w: navigation.cache.backend %q", ErrInvalidConfig, c.Navigation.Cache.Backend)
	}
	return nil
}

// GridOptions переводит секцию grid в параметры world.Grid.Initialize
func (g GridConfig) GridOptions() (world.GridOptions, error) {
	kind, err := projection.ParseKind(g.Projection)
	if err != nil {
		return world.GridOptions{}, err
	}
	return world.GridOptions{
		Width:      g.Width,
		Height:     g.Height,
		Projection: kind,
		CellW:      g.CellWidth,
		CellH:      g.CellHeight,
		Layers:     g.Layers,
		OffsetX:    g.OffsetX,
		OffsetY:    g.OffsetY,
	}, nil
}

// CostGenerator собирает генератор стоимостей из секции generator
func (g GeneratorConfig) CostGenerator() *world.CostGenerator {
	cg := world.NewCostGenerator(g.Seed)
	cg.NoiseScale = g.NoiseScale
	cg.MaxCost = g.MaxCost
	cg.BlockThreshold = g.BlockThreshold
	return cg
}

// RetentionDuration срок хранения событий в стриме
func (e EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "NAVGRID_REST_PORT", 8088)
}

// GetMetricsPort возвращает порт Prometheus; 0 - метрики на REST порту
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "NAVGRID_METRICS_PORT", 0)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации и применяет дефолты.
// Если path == "", читает путь из ENV NAVGRID_CONFIG; без него возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("NAVGRID_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
