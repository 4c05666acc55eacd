// Package audioanalysis implements the analyzing stage: it probes the source
// audio for duration, sample rate, channel count, container format and bit
// rate before language detection runs.
//
// A missing or unusable codec does not fail the job. The stage records a
// warning and continues with an unknown duration; later stages then treat
// the file as unbounded (no clamping of spans, no preview shortcut).
package audioanalysis
