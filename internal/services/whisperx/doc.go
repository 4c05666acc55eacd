// Package whisperx runs WhisperX through uvx to transcribe audio with
// sentence-level timestamps and a detected language.
//
// The source is first normalised to a mono 16kHz WAV with ffmpeg, then
// transcribed. Configuration options (model, CUDA, VAD method) are passed via
// Config. Failures are tagged with the detection markers from
// internal/services so callers can fall back to a default-language result.
package whisperx
