// Package redaction implements the processing and preview stages.
//
// Processing mutes every detected span of the source and writes the result
// under the output directory. Preview cuts the first seconds of the redacted
// output, never of the original, into the preview directory and is skipped
// for jobs with a zero preview length. Both stages degrade to an unmuted copy
// when the audio codec cannot run and surface that as a job warning.
package redaction
