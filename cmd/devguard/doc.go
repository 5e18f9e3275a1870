// Package devguard provides the command-line interface for devguard. It
// configures subcommands (check, watch, kinds, config), parses flags, and
// executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/devguard/devguard/cmd/devguard"
//	func main() { devguard.Execute() }
package devguard
