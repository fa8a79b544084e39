// Package config loads, validates, and normalizes pressline configuration
// from TOML, with sensible defaults so the CLI works without a config file.
package config
