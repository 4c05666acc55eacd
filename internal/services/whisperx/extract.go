package whisperx

import "fmt"

// buildExtractArgs converts the first audio stream of source into the mono
// 16kHz PCM WAV WhisperX expects. A positive maxSeconds limits the output.
func buildExtractArgs(source, dest string, maxSeconds float64) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
	}
	if maxSeconds > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", maxSeconds))
	}
	return append(args, dest)
}
