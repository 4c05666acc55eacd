package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"fwea/internal/config"
)

// Requirement defines an external binary fwea may shell out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Requirements lists the binaries the configuration relies on. ffmpeg and
// ffprobe are optional when native WAV handling is on, since WAV sources never
// reach them; uvx is only needed by the whisperx backend.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     binaryOr(cfg.Audio.FFmpegBinary, "ffmpeg"),
			Description: "Mutes spans and cuts previews for non-WAV audio",
			Optional:    cfg.Audio.NativeWAV,
		},
		{
			Name:        "FFprobe",
			Command:     binaryOr(cfg.Audio.FFprobeBinary, "ffprobe"),
			Description: "Reads duration and stream layout of non-WAV audio",
			Optional:    cfg.Audio.NativeWAV,
		},
	}
	if cfg.Detection.Backend == config.DetectionBackendWhisperX {
		reqs = append(reqs, Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Runs WhisperX for language detection",
		})
	}
	return reqs
}

func binaryOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
