// Package config loads, normalizes, and validates picvault configuration.
//
// Configuration is read from a TOML file (default ~/.config/picvault/config.toml,
// falling back to ./picvault.toml), merged over built-in defaults. Secrets may
// be supplied through environment variables so they stay out of config files.
package config
