// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - EnvOverlay: PROMETHEAN_* environment overrides on top of a ConfigStore
//   - PromptStore: user-editable LLM prompt templates
package file
