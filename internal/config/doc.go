// Package config loads the runtime configuration from environment
// variables, with an optional .env file for development.
package config
