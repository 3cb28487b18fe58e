package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kbukum/seqkit/config"
	"github.com/kbukum/seqkit/logger"
)

const serviceName = "seqplan"

var outputFormats = []string{"text", "json"}

// Config is the seqplan configuration, read from seqplan.{yml,yaml,toml,json}
// and SEQPLAN_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Plans are run when no plan files are given on the command line.
	Plans []string `yaml:"plans" mapstructure:"plans"`
	// PlanDirs are searched for plans referenced by source.plan. When empty
	// a referenced plan is looked up next to the plan referencing it.
	PlanDirs []string `yaml:"plan_dirs" mapstructure:"plan_dirs"`
	// Concurrency caps how many plans run at once.
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Output      string `yaml:"output" mapstructure:"output"`
}

// ApplyDefaults fills in unset values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	// A command-line tool logs at info unless asked otherwise.
	if c.Environment == "" {
		c.Environment = "production"
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Output == "" {
		c.Output = "text"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if !slices.Contains(outputFormats, c.Output) {
		return fmt.Errorf("config.output must be one of %v, got %q", outputFormats, c.Output)
	}
	return nil
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(flags *globalFlags) (*Config, error) {
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}

	var cfg Config
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newLogger builds the command logger and installs it as the global and
// "plan" logger. Logs go to the command's stderr unless configured for
// stdout.
func newLogger(cmd *cobra.Command, cfg *Config) *logger.Logger {
	var w io.Writer = cmd.ErrOrStderr()
	if cfg.Logging.Output == "stdout" {
		w = cmd.OutOrStdout()
	}
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, w)
	logger.SetGlobalLogger(log)
	logger.Register("plan", log.WithComponent("plan"))
	return log
}
