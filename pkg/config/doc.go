// Package config holds the persistent settings for enhancement runs:
// server address and timing, workflow file locations, blend parameters,
// prompt texts, and the default parameter overrides applied to the global
// and region passes.
//
// Settings live in a TOML file under the user's config directory. A
// missing file yields the built-in defaults, so first runs work without
// any setup.
package config
