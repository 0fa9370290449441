// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct-tag parsing and
// github.com/joho/godotenv for an optional .env file in the working directory.
// Load caches one parsed value per configuration type; Parse always re-reads
// the environment. MustLoad panics on failure and is meant for startup code.
//
//	var cfg tenancy.Config
//	config.MustLoad(&cfg)
package config
