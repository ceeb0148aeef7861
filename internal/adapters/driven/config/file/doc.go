// Package file provides file-based configuration adapters.
//
// Adapters:
//   - Loader: layered settings (defaults, TOML file, environment) via viper
//   - Write: renders a settings file with go-toml
//   - PromptStore: user-editable prompt templates
package file
