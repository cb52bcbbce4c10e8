package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/golang/glog"
	"github.com/shirou/gopsutil/cpu"
	"gopkg.in/yaml.v2"

	"github.com/akoiralaa/options-pricer/montecarlo"
	"github.com/akoiralaa/options-pricer/pricing"
)

// SimulationConfig holds the Monte Carlo defaults used when a request does
// not specify them.
type SimulationConfig struct {
	NumPaths        int     `yaml:"num_paths"`
	NumSteps        int     `yaml:"num_steps"`
	Seed            *uint64 `yaml:"seed"`
	Workers         int     `yaml:"workers"`
	ChunkSize       int     `yaml:"chunk_size"`
	ConfidenceLevel float64 `yaml:"confidence_level"`
}

type SlackConfig struct {
	AppToken string `yaml:"app_token"`
	BotToken string `yaml:"bot_token"`
}

type Config struct {
	Simulation SimulationConfig     `yaml:"simulation"`
	ImpliedVol pricing.SolverConfig `yaml:"implied_vol"`
	Slack      SlackConfig          `yaml:"slack"`
}

func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			NumPaths:        montecarlo.DefaultNumPaths,
			NumSteps:        montecarlo.DefaultNumSteps,
			Workers:         defaultWorkers(),
			ChunkSize:       montecarlo.DefaultChunkSize,
			ConfidenceLevel: montecarlo.DefaultConfidenceLevel,
		},
		ImpliedVol: pricing.DefaultSolverConfig(),
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then PRICER_* and SLACK_* environment
// variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		glog.V(1).Infof("loaded config from %s", path)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	sim := &c.Simulation
	sim.NumPaths = getEnvInt("PRICER_NUM_PATHS", sim.NumPaths)
	sim.NumSteps = getEnvInt("PRICER_NUM_STEPS", sim.NumSteps)
	sim.Workers = getEnvInt("PRICER_WORKERS", sim.Workers)
	sim.ChunkSize = getEnvInt("PRICER_CHUNK_SIZE", sim.ChunkSize)
	sim.ConfidenceLevel = getEnvFloat("PRICER_CONFIDENCE_LEVEL", sim.ConfidenceLevel)
	if value := os.Getenv("PRICER_SEED"); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			sim.Seed = &parsed
		} else {
			glog.Warningf("ignoring PRICER_SEED=%q: %v", value, err)
		}
	}

	iv := &c.ImpliedVol
	iv.Lower = getEnvFloat("PRICER_IV_LOWER", iv.Lower)
	iv.Upper = getEnvFloat("PRICER_IV_UPPER", iv.Upper)
	iv.Tolerance = getEnvFloat("PRICER_IV_TOLERANCE", iv.Tolerance)
	iv.MaxIterations = getEnvInt("PRICER_IV_MAX_ITERATIONS", iv.MaxIterations)
	iv.InitialGuess = getEnvFloat("PRICER_IV_INITIAL_GUESS", iv.InitialGuess)

	c.Slack.AppToken = getEnv("SLACK_APP_TOKEN", c.Slack.AppToken)
	c.Slack.BotToken = getEnv("SLACK_BOT_TOKEN", c.Slack.BotToken)
}

func (c *Config) Validate() error {
	if _, err := pricing.NewSolver(c.ImpliedVol); err != nil {
		return fmt.Errorf("implied_vol: %w", err)
	}
	if err := c.Simulation.MonteCarlo().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	return nil
}

// MonteCarlo converts the defaults into a simulation config.
func (s SimulationConfig) MonteCarlo() montecarlo.Config {
	return montecarlo.Config{
		NumPaths:        s.NumPaths,
		NumSteps:        s.NumSteps,
		Seed:            s.Seed,
		Workers:         s.Workers,
		ChunkSize:       s.ChunkSize,
		ConfidenceLevel: s.ConfidenceLevel,
	}
}

func defaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		glog.Warningf("ignoring %s=%q: not an integer", key, value)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		glog.Warningf("ignoring %s=%q: not a number", key, value)
	}
	return defaultValue
}
