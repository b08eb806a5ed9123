// Package config loads, normalizes, and validates walkthrough configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WALKTHROUGH_COQUI_URL. The Config type centralizes every knob a tutorial
// run needs: the workspace and output paths, the speech backend, browser
// recording geometry, and the ffmpeg codec pair used for the final mux.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical engine names, and clear validation errors.
package config
