// Package config loads, validates, and normalizes the TOML configuration
// for setmend.
package config
