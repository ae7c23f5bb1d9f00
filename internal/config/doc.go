// Package config provides configuration structures and utilities for Panopticlick.
// It defines the CLI options for valuing payloads and serving the API, and the
// optional YAML file that overrides parts of the built-in methodology tables.
package config
