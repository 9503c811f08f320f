// Package config handles YAML configuration loading with environment variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable interpolation.
// Every field is optional: LoadWithDefaults and Default fill in a runnable
// file-to-JSON-lines setup, and command-line flags override the file.
package config
