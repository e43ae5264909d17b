// Package config loads, normalizes, and validates auditdesk configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as AUDITDESK_API_TOKEN.
// The daemon and CLI obtain every directory, listener, and renderer setting
// through the Config type so downstream code receives absolute paths and
// canonical enum values.
package config
