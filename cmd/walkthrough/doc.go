// Package main hosts the walkthrough CLI entrypoint and command graph.
//
// The Cobra-based command tree records narrated tutorials ("run"), checks the
// external tools and paths a recording needs ("doctor"), lists past runs from
// the history ledger ("history") and scaffolds or prints configuration
// ("config"). It centralizes configuration resolution, command line overrides
// and logger setup so subcommands only wire the internal packages together.
//
// Failures are classified by the markers in internal/services and mapped to
// distinct process exit codes in main.
package main
