// Package detection implements the language-detection stage and the
// detector backends it can use.
//
// A Detector turns an audio file into timed transcript segments plus the
// languages spoken. Backends are WhisperX (local, via uvx), the OpenAI
// transcription API, or none. When a backend is unavailable the stage falls
// back to a single default-language segment covering the whole file and
// records a warning; backend timeouts are returned so the stage is retried.
package detection
