// Package services defines shared utilities consumed by the run orchestrator
// and the components it sequences.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and run states for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration, synthesis, action sequence, missing recording, io) and
//     map them to process exit codes.
//
// Use these helpers when wiring new run logic so failure reporting stays
// uniform across the pipeline.
package services
