// Package config loads service configuration with viper.
//
// LoadConfig resolves a YAML, TOML or JSON config file and an optional .env
// file, overlays environment variables, and unmarshals the result. Variables
// named <SERVICE>_<PATH> override nested keys, so SEQPLAN_LOGGING_LEVEL sets
// logging.level for the seqplan service.
//
// # Usage
//
//	var cfg CLIConfig
//	err := config.LoadConfig("seqplan", &cfg, config.WithConfigFile(path))
package config
