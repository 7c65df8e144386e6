// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/iwvelando/payment-allocator/internal/allocator"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/iwvelando/payment-allocator/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for payment-allocator.
type Configuration struct {
	Solver  SolverConfig
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// SolverConfig tunes the allocation strategies.
type SolverConfig struct {
	PointsMethodID       string
	PartialPointsPercent int
	Strategies           []string
	Parallel             bool
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // plain, pretty, csv, json
}

// HistoryConfig points at the solve history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // empty disables history
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("solver.pointsMethodId", constants.DefaultPointsMethodID)
	v.SetDefault("solver.partialPointsPercent", constants.DefaultPartialPointsPercent)
	v.SetDefault("solver.strategies", allocator.StrategyNames())
	v.SetDefault("solver.parallel", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPlain)
	v.SetDefault("history.path", "")

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path, or the default path when that file does
// not exist, yields the defaults with environment overrides applied.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		_, statErr := os.Stat(configPath)
		if !(errors.Is(statErr, fs.ErrNotExist) && configPath == constants.DefaultConfigFile) {
			v.SetConfigFile(configPath)
			v.SetConfigType("yml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// ValidateConfiguration checks the configuration. Problems the solver can work
// around are returned as warnings and corrected in place; anything else is an error.
func (c *Configuration) ValidateConfiguration() ([]string, error) {
	var warnings []string

	if strings.TrimSpace(c.Solver.PointsMethodID) == "" {
		warnings = append(warnings, fmt.Sprintf("solver.pointsMethodId is empty, using %s", constants.DefaultPointsMethodID))
		c.Solver.PointsMethodID = constants.DefaultPointsMethodID
	}

	if p := c.Solver.PartialPointsPercent; p <= 0 || p >= constants.MaxDiscountPercent {
		return warnings, fmt.Errorf("solver.partialPointsPercent must be between 1 and %d, got %d",
			constants.MaxDiscountPercent-1, p)
	}

	if len(c.Solver.Strategies) == 0 {
		warnings = append(warnings, "solver.strategies is empty, evaluating every strategy")
		c.Solver.Strategies = allocator.StrategyNames()
	}
	seen := make(map[string]bool, len(c.Solver.Strategies))
	for _, name := range c.Solver.Strategies {
		if _, err := allocator.LookupStrategy(name); err != nil {
			return warnings, fmt.Errorf("solver.strategies: %w", err)
		}
		if seen[name] {
			warnings = append(warnings, fmt.Sprintf("strategy %s is listed more than once", name))
		}
		seen[name] = true
	}

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return warnings, fmt.Errorf("output.format: %w", err)
	}

	return warnings, nil
}

// SolverOptions maps the solver section onto allocator options.
func (c *Configuration) SolverOptions(observer allocator.Observer) allocator.Options {
	return allocator.Options{
		PointsMethodID:       c.Solver.PointsMethodID,
		PartialPointsPercent: c.Solver.PartialPointsPercent,
		Strategies:           append([]string(nil), c.Solver.Strategies...),
		Parallel:             c.Solver.Parallel,
		Observer:             observer,
	}
}
