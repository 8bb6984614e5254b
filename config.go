package main

import (
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"waypoint-planner/level"
	"waypoint-planner/pathfinding"
)

// Config holds all planner settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Level   LevelConfig   `yaml:"level"`
	Search  SearchConfig  `yaml:"search"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LevelConfig locates the level and its obstacle geometry.
type LevelConfig struct {
	Path string `yaml:"path"`
	// ObstaclesDir holds *.geojson footprints. Empty means open space.
	ObstaclesDir string `yaml:"obstacles_dir"`
	// VisibilityRadius overrides the radius stored in the level when > 0.
	VisibilityRadius float64 `yaml:"visibility_radius"`
	// SimplifyEpsilon simplifies obstacle footprints when > 0.
	SimplifyEpsilon float64 `yaml:"simplify_epsilon"`
	// Watch reloads the level when its files change.
	Watch bool `yaml:"watch"`
}

// SearchConfig selects search defaults.
type SearchConfig struct {
	Algorithm    string `yaml:"algorithm"`
	Ordering     string `yaml:"ordering"`
	Hierarchy    string `yaml:"hierarchy"`
	TableWorkers int    `yaml:"table_workers"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Level: LevelConfig{
			Path: "level.json",
		},
		Search: SearchConfig{
			Algorithm: pathfinding.Heuristic.String(),
			Ordering:  pathfinding.OrderByCostSoFar.String(),
			Hierarchy: pathfinding.HierarchyFullRoute.String(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("PLANNER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("PLANNER_LEVEL"); path != "" {
		c.Level.Path = path
	}
	if dir := os.Getenv("PLANNER_OBSTACLES"); dir != "" {
		c.Level.ObstaclesDir = dir
	}
	if lvl := os.Getenv("PLANNER_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// Validate checks that every setting parses.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Level.Path == "" {
		return fmt.Errorf("level.path is required")
	}
	if c.Level.VisibilityRadius < 0 {
		return fmt.Errorf("level.visibility_radius must not be negative")
	}
	if c.Level.SimplifyEpsilon < 0 {
		return fmt.Errorf("level.simplify_epsilon must not be negative")
	}
	if _, err := c.Search.algorithm(); err != nil {
		return fmt.Errorf("search.algorithm: %w", err)
	}
	if _, err := pathfinding.ParseOrdering(c.Search.Ordering); err != nil {
		return fmt.Errorf("search.ordering: %w", err)
	}
	if _, err := pathfinding.ParseHierarchyMode(c.Search.Hierarchy); err != nil {
		return fmt.Errorf("search.hierarchy: %w", err)
	}
	if c.Search.TableWorkers < 0 {
		return fmt.Errorf("search.table_workers must not be negative")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

func (s SearchConfig) algorithm() (pathfinding.Algorithm, error) {
	if s.Algorithm == "" {
		return pathfinding.Heuristic, nil
	}
	return pathfinding.ParseAlgorithm(s.Algorithm)
}

// radius returns the configured visibility radius for doc.
func (l LevelConfig) radius(doc *level.Document) float64 {
	if l.VisibilityRadius > 0 {
		return l.VisibilityRadius
	}
	return doc.Radius()
}
