// Package config loads runtime configuration for the bookstore client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the bookstore API
//	-d string   data directory for the local database ("" keeps state in memory)
//	-t int      per-request timeout in seconds (0 disables)
//	-l string   log level: debug, info, warn, error
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_base_url": "https://books.example/api",
//	  "data_dir": "/home/me/.config/bookstore",
//	  "request_timeout": "10s",
//	  "rate_limit": 5,
//	  "rate_burst": 10,
//	  "log_level": "debug",
//	  "log_format": "json"
//	}
//
// Only keys present with a non-zero value override the defaults.
package config
