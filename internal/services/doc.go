// Package services defines shared utilities consumed by the pipeline stage
// handlers and the external detection backends.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, worker names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified as retryable or terminal with errors.Is.
//
// Subpackages wrap the speech-to-text backends (whisperx, openaistt).
package services
