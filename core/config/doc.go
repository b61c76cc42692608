// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file from the working directory on first use (a
// missing file is ignored) and uses the caarlos0/env library for parsing
// environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/repocore/core/config"
//
//	type SessionConfig struct {
//		DefaultLanguage string `env:"REPOCORE_DEFAULT_LANGUAGE" envDefault:"de"`
//		SuperUserID     string `env:"REPOCORE_SUPERUSER_ID" envDefault:"administrator"`
//	}
//
//	func main() {
//		var cfg SessionConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per process; later calls copy the
// cached value. Different types are cached independently. Tests that change the
// environment between loads call Reset.
package config
