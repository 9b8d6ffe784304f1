package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dsh2/subsurface/internal/planner"
)

// EnvPrefix is the prefix of the environment variables that override
// configuration keys; "logbook.dsn" is read from DIVEPLAN_LOGBOOK_DSN.
const EnvPrefix = "DIVEPLAN"

// PlannerConfig holds the planner preferences in the units divers type:
// l/min, m/min and bar.
type PlannerConfig struct {
	GFLow              int     `mapstructure:"gf_low"`
	GFHigh             int     `mapstructure:"gf_high"`
	SurfacePressure    int     `mapstructure:"surface_pressure"` // mbar
	BottomSAC          float64 `mapstructure:"bottom_sac"`
	DecoSAC            float64 `mapstructure:"deco_sac"`
	AscRate75          float64 `mapstructure:"asc_rate_75"`
	AscRate50          float64 `mapstructure:"asc_rate_50"`
	AscRateStops       float64 `mapstructure:"asc_rate_stops"`
	AscRateLast6m      float64 `mapstructure:"asc_rate_last_6m"`
	DescRate           float64 `mapstructure:"desc_rate"`
	BottomPO2          float64 `mapstructure:"bottom_po2"`
	DecoPO2            float64 `mapstructure:"deco_po2"`
	LastStop6m         bool    `mapstructure:"last_stop_6m"`
	DropStone          bool    `mapstructure:"drop_stone"`
	Verbatim           bool    `mapstructure:"verbatim"`
	DisplayRuntime     bool    `mapstructure:"display_runtime"`
	DisplayDuration    bool    `mapstructure:"display_duration"`
	DisplayTransitions bool    `mapstructure:"display_transitions"`
}

// LogbookConfig selects the dive store.
type LogbookConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "pgx"
	DSN    string `mapstructure:"dsn"`
}

// TelemetryConfig enables the JSONL event log when Path is set.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// Config holds all runtime configuration for diveplan.
// Values are populated from .diveplan.yaml, DIVEPLAN_* env vars, and CLI flags.
type Config struct {
	Planner   PlannerConfig   `mapstructure:"planner"`
	Logbook   LogbookConfig   `mapstructure:"logbook"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Verbose   bool            `mapstructure:"verbose"`
	NoColor   bool            `mapstructure:"no_color"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	def := planner.DefaultSettings()
	viper.SetDefault("planner.gf_low", def.GFLow)
	viper.SetDefault("planner.gf_high", def.GFHigh)
	viper.SetDefault("planner.surface_pressure", def.SurfacePressure)
	viper.SetDefault("planner.bottom_sac", unit(def.BottomSAC))
	viper.SetDefault("planner.deco_sac", unit(def.DecoSAC))
	viper.SetDefault("planner.asc_rate_75", unit(def.AscRate75))
	viper.SetDefault("planner.asc_rate_50", unit(def.AscRate50))
	viper.SetDefault("planner.asc_rate_stops", unit(def.AscRateStops))
	viper.SetDefault("planner.asc_rate_last_6m", unit(def.AscRateLast6m))
	viper.SetDefault("planner.desc_rate", unit(def.DescRate))
	viper.SetDefault("planner.bottom_po2", unit(def.BottomPO2))
	viper.SetDefault("planner.deco_po2", unit(def.DecoPO2))
	viper.SetDefault("planner.last_stop_6m", def.LastStop6m)
	viper.SetDefault("planner.drop_stone", def.DropStoneMode)
	viper.SetDefault("planner.verbatim", def.Verbatim)
	viper.SetDefault("planner.display_runtime", def.DisplayRuntime)
	viper.SetDefault("planner.display_duration", def.DisplayDuration)
	viper.SetDefault("planner.display_transitions", def.DisplayTransitions)
	viper.SetDefault("logbook.driver", "sqlite")
	viper.SetDefault("logbook.dsn", DefaultLogbookPath())
	viper.SetDefault("telemetry.path", "")
	viper.SetDefault("verbose", false)
	viper.SetDefault("no_color", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// DefaultLogbookPath is the SQLite logbook used when none is configured:
// ~/.diveplan/logbook.db, or ./diveplan.db without a home directory.
func DefaultLogbookPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "diveplan.db"
	}
	return filepath.Join(home, ".diveplan", "logbook.db")
}

// Settings converts the preferences to planner settings and validates them.
func (p PlannerConfig) Settings() (planner.Settings, error) {
	s := planner.Settings{
		GFLow:              p.GFLow,
		GFHigh:             p.GFHigh,
		SurfacePressure:    p.SurfacePressure,
		BottomSAC:          milli(p.BottomSAC),
		DecoSAC:            milli(p.DecoSAC),
		AscRate75:          milli(p.AscRate75),
		AscRate50:          milli(p.AscRate50),
		AscRateStops:       milli(p.AscRateStops),
		AscRateLast6m:      milli(p.AscRateLast6m),
		DescRate:           milli(p.DescRate),
		BottomPO2:          milli(p.BottomPO2),
		DecoPO2:            milli(p.DecoPO2),
		LastStop6m:         p.LastStop6m,
		DropStoneMode:      p.DropStone,
		Verbatim:           p.Verbatim,
		DisplayRuntime:     p.DisplayRuntime,
		DisplayDuration:    p.DisplayDuration,
		DisplayTransitions: p.DisplayTransitions,
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("config: planner: %w", err)
	}
	return s, nil
}

func milli(v float64) int {
	return int(math.Round(v * 1000))
}

func unit(v int) float64 {
	return float64(v) / 1000
}
