// Package audio probes, mutes and trims audio files for the redaction stages.
//
// Two codecs implement Codec: FFmpegCodec shells out to ffprobe/ffmpeg and
// handles any container ffmpeg can read, while WAVCodec edits PCM WAV files
// in process with sample accuracy. Router prefers the native codec for WAV
// input and falls back to ffmpeg when it cannot handle a file.
//
// Redactor sits on top of a Codec. It merges mute spans, copies the source
// unchanged when there is nothing to mute, and degrades to an unmuted copy
// (reporting a warning) when the codec is unavailable or fails. Codec
// timeouts are returned to the caller so the stage can be retried.
package audio
