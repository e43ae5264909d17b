// Package services defines shared utilities consumed by the report renderer,
// the tail reader, and the transports that expose them.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, operation names, and
//     transport labels for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     I/O, encoding, decode, or validation errors so every transport can map
//     them to the same caller-facing outcome.
//
// Use these helpers when wiring new operations so operational behaviour (error
// classification, observability) stays uniform across the CLI, HTTP, and IPC
// surfaces.
package services
