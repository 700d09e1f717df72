package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Rema     RemaConfig     `yaml:"rema"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}
	config.Postgres.fillFromEnv()
	return config, nil
}

// DefaultConfig returns a config that works against the real REMA API
// without a config file. Every field can be overridden via yaml.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		HTTP:     HTTPConfig{Addr: ":8080"},
		Postgres: PostgresConfigFromEnv(),
		Rema:     DefaultRemaConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
