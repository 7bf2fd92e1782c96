package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/l1jgo/worldnav/internal/pathfind"
)

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Simulation SimulationConfig `toml:"simulation"`
	Navigation NavigationConfig `toml:"navigation"`
	Database   DatabaseConfig   `toml:"database"`
	Snapshot   SnapshotConfig   `toml:"snapshot"`
	Logging    LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type SimulationConfig struct {
	TickRate      time.Duration `toml:"tick_rate"`
	MapFile       string        `toml:"map_file"`
	ProfilesFile  string        `toml:"profiles_file"`
	AutosaveTicks int           `toml:"autosave_ticks"` // 0 disables autosave
	MaxTicks      int           `toml:"max_ticks"`      // 0 runs until interrupted
}

type NavigationConfig struct {
	MaxTasks        int   `toml:"max_tasks"`
	SearchSlice     int   `toml:"search_slice"`     // search iterations granted per task per tick
	StuckTicks      int   `toml:"stuck_ticks"`      // unchanged ticks before recovery
	MaxRecoveries   int   `toml:"max_recoveries"`   // recoveries before a task fails
	MaxReplans      int   `toml:"max_replans"`      // replans without progress before a task fails
	HeightThreshold int32 `toml:"height_threshold"` // world units
	ArriveTolerance int32 `toml:"arrive_tolerance"` // world units
}

type DatabaseConfig struct {
	Driver          string        `toml:"driver"` // "sqlite", "postgres" or "none"
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type SnapshotConfig struct {
	Path string `toml:"path"` // empty disables snapshot files
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) validate() error {
	n := c.Navigation
	switch {
	case n.MaxTasks <= 0 || n.MaxTasks > 0xffff:
		return fmt.Errorf("navigation.max_tasks must be in 1..65535, got %d", n.MaxTasks)
	case n.SearchSlice <= 0:
		return fmt.Errorf("navigation.search_slice must be positive, got %d", n.SearchSlice)
	case n.StuckTicks <= 0:
		return fmt.Errorf("navigation.stuck_ticks must be positive, got %d", n.StuckTicks)
	case n.HeightThreshold < pathfind.MaxStep:
		return fmt.Errorf("navigation.height_threshold must be at least %d, got %d", pathfind.MaxStep, n.HeightThreshold)
	case n.MaxReplans < 0:
		return fmt.Errorf("navigation.max_replans must not be negative, got %d", n.MaxReplans)
	case c.Simulation.TickRate <= 0:
		return fmt.Errorf("simulation.tick_rate must be positive, got %s", c.Simulation.TickRate)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "none":
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or none, got %q", c.Database.Driver)
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "worldnav",
		},
		Simulation: SimulationConfig{
			TickRate:      50 * time.Millisecond,
			MapFile:       "data/yaml/map.yaml",
			ProfilesFile:  "data/yaml/profiles.yaml",
			AutosaveTicks: 1200,
		},
		Navigation: NavigationConfig{
			MaxTasks:        55,
			SearchSlice:     64,
			StuckTicks:      10,
			MaxRecoveries:   5,
			MaxReplans:      5,
			HeightThreshold: 40,
			ArriveTolerance: 2,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			DSN:             "worldnav.db",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Snapshot: SnapshotConfig{
			Path: "worldnav.snap.zst",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
