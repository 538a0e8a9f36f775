// Package appconfig loads the CLI's ambient configuration: which input
// file to read, log level/format, where to write the result, and the
// engine's tunable parameters. It follows
// noah-isme-sma-adp-api/pkg/config.Load's structure (typed sub-structs, a
// file source, sane defaults) but reads a YAML scheduler config file
// instead of a .env, since this module has no HTTP surface or secrets to
// keep in the environment.
package appconfig

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LogConfig controls the CLI's logger (internal/obslog.Options source).
type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig mirrors scheduler.Config's tunables, loaded from file/env so
// the CLI doesn't hardcode them.
type EngineConfig struct {
	PopulationSize int
	MaxGenerations int
	MutationFactor float64
	CrossoverRate  float64
	Seed           int64
	Debug          bool
	Timeout        time.Duration
}

// Config is the CLI's full ambient configuration.
type Config struct {
	Env        string
	InputFile  string
	OutputFile string
	Log        LogConfig
	Engine     EngineConfig
}

// Load reads configFile (if it exists) as YAML via viper, applies
// SCHEDULER_-prefixed environment overrides, and fills in defaults for
// anything left unset.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SCHEDULER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		Env:        v.GetString("env"),
		InputFile:  v.GetString("input_file"),
		OutputFile: v.GetString("output_file"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Engine: EngineConfig{
			PopulationSize: v.GetInt("engine.population_size"),
			MaxGenerations: v.GetInt("engine.max_generations"),
			MutationFactor: v.GetFloat64("engine.mutation_factor"),
			CrossoverRate:  v.GetFloat64("engine.crossover_rate"),
			Seed:           v.GetInt64("engine.seed"),
			Debug:          v.GetBool("engine.debug"),
			Timeout:        v.GetDuration("engine.timeout"),
		},
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("input_file", "input.yaml")
	v.SetDefault("output_file", "result.yaml")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("engine.population_size", 50)
	v.SetDefault("engine.max_generations", 40)
	v.SetDefault("engine.mutation_factor", 0.4)
	v.SetDefault("engine.crossover_rate", 0.9)
	v.SetDefault("engine.seed", 1)
	v.SetDefault("engine.debug", false)
	v.SetDefault("engine.timeout", "2m")
}
