// Package stage defines the contract between the workflow manager and the
// per-stage handlers (intake, audio analysis, language detection, content
// scanning, redaction, preview).
package stage
