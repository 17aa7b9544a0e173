// Package config loads curator settings from ROCKSALT_* environment
// variables (optionally seeded from a .env file) and an optional YAML rules
// file that replaces the built-in classification keywords and city table.
package config
