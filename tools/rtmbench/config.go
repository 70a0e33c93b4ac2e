package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/valarauca/rtm/lib/txn"
)

// Config is the rtmbench configuration file.
type Config struct {
	Workers    int        `toml:"workers"`
	Iterations int        `toml:"iterations"`
	Txn        txn.Config `toml:"txn"`
}

func defaultConfig() Config {
	return Config{
		Workers:    2,
		Iterations: 10000,
		Txn:        txn.DefaultConfig(),
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "loading config %s", path)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Iterations < 0 {
		return errors.Errorf("iterations must not be negative, got %d", c.Iterations)
	}
	return nil
}
