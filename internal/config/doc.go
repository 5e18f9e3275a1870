// Package config loads devguard configuration from local and global YAML
// files with precedence rules and resolves it into probe descriptors. It is
// internal; CLI code maps flags and files into engine configuration.
package config
