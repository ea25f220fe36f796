package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadYAMLConfig load config from filename in YAML format
func LoadYAMLConfig(filename string, cfg interface{}) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("ReadFile: %v", err)
	}
	err = yaml.Unmarshal(data, cfg)
	return err
}

// InitConfig builds the effective config: defaults overlaid with the
// YAML file at configPath, then validated.
func InitConfig(configPath string) (*Config, error) {
	conf := DefaultConfig()

	if err := LoadYAMLConfig(configPath, conf); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}
