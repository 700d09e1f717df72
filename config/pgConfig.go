package config

import (
	"fmt"
)

type DbConfig interface {
	GetConnectionString() string
}

// PostgresConfig represents the configuration needed to connect to a PostgreSQL database
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

func (pc *PostgresConfig) GetConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnv("POSTGRES_PORT", "5432"),
		User:     getEnv("POSTGRES_USER", "postgres"),
		Password: getEnv("POSTGRES_PASSWORD", "postgres"),
		DBName:   getEnv("POSTGRES_NAME", "postgres"),
	}
}

// fillFromEnv replaces fields left empty by the yaml file with env values.
func (pc *PostgresConfig) fillFromEnv() {
	env := PostgresConfigFromEnv()
	if pc.Host == "" {
		pc.Host = env.Host
	}
	if pc.Port == "" {
		pc.Port = env.Port
	}
	if pc.User == "" {
		pc.User = env.User
	}
	if pc.Password == "" {
		pc.Password = env.Password
	}
	if pc.DBName == "" {
		pc.DBName = env.DBName
	}
}
