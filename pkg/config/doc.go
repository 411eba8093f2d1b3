// Package config loads typed configuration structs from environment
// variables, with per-type caching so each configuration is parsed once per
// process. Struct fields use `env` tags from github.com/caarlos0/env.
package config
