package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"fwea/internal/fileutil"
	"fwea/internal/interval"
	"fwea/internal/services"
)

const stderrTail = 512

// FFmpegCodec drives the ffmpeg and ffprobe binaries.
type FFmpegCodec struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// NewFFmpegCodec returns a codec using the given binaries. A zero timeout
// leaves each invocation bounded only by the caller's context.
func NewFFmpegCodec(ffmpeg, ffprobe string, timeout time.Duration) *FFmpegCodec {
	ffmpeg = strings.TrimSpace(ffmpeg)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ffprobe = strings.TrimSpace(ffprobe)
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	return &FFmpegCodec{ffmpeg: ffmpeg, ffprobe: ffprobe, timeout: timeout}
}

// Name identifies the codec in logs and health output.
func (c *FFmpegCodec) Name() string { return "ffmpeg" }

// Available checks that both binaries resolve.
func (c *FFmpegCodec) Available(context.Context) error {
	for _, bin := range []string{c.ffmpeg, c.ffprobe} {
		if _, err := exec.LookPath(bin); err != nil {
			return services.Wrap(services.ErrCodecUnavailable, "audio", "lookup", fmt.Sprintf("%s not found", bin), err)
		}
	}
	return nil
}

// Probe runs ffprobe and returns the first audio stream's properties.
func (c *FFmpegCodec) Probe(ctx context.Context, path string) (Info, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Info{}, services.Wrap(services.ErrValidation, "audio", "probe", "empty path", nil)
	}
	out, err := c.run(ctx, "probe", c.ffprobe, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Info{}, err
	}
	result, err := parseProbe(out)
	if err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "audio", "probe", "unreadable ffprobe output", err)
	}
	info, ok := result.info()
	if !ok {
		return Info{}, services.Wrap(services.ErrValidation, "audio", "probe", "no audio stream found", nil)
	}
	return info, nil
}

// Mute re-encodes src with a volume filter that zeroes every span.
func (c *FFmpegCodec) Mute(ctx context.Context, src, dst string, spans []interval.Span) error {
	merged := interval.Merge(spans)
	if len(merged) == 0 {
		return services.Wrap(services.ErrValidation, "audio", "mute", "no spans to mute", nil)
	}
	codecArgs := c.pcmCodecArgs(ctx, src)
	return fileutil.WriteAtomic(dst, func(tmp string) error {
		args := []string{"-y", "-v", "error", "-hide_banner", "-i", src,
			"-map", "0:a", "-map_metadata", "0",
			"-af", muteFilter(merged)}
		args = append(args, codecArgs...)
		args = append(args, tmp)
		_, err := c.run(ctx, "mute", c.ffmpeg, args...)
		return err
	})
}

// Trim re-encodes the requested window of src.
func (c *FFmpegCodec) Trim(ctx context.Context, src, dst string, start, duration float64) error {
	if duration <= 0 || start < 0 {
		return services.Wrap(services.ErrValidation, "audio", "trim", "invalid trim window", nil)
	}
	codecArgs := c.pcmCodecArgs(ctx, src)
	return fileutil.WriteAtomic(dst, func(tmp string) error {
		args := []string{"-y", "-v", "error", "-hide_banner", "-i", src,
			"-map", "0:a", "-map_metadata", "0",
			"-ss", formatSeconds(start), "-t", formatSeconds(duration)}
		args = append(args, codecArgs...)
		args = append(args, tmp)
		_, err := c.run(ctx, "trim", c.ffmpeg, args...)
		return err
	})
}

// pcmCodecArgs keeps PCM sources at their original sample format; ffmpeg
// would otherwise default WAV output to 16-bit.
func (c *FFmpegCodec) pcmCodecArgs(ctx context.Context, src string) []string {
	info, err := c.Probe(ctx, src)
	if err != nil || !strings.HasPrefix(info.Codec, "pcm_") {
		return nil
	}
	return []string{"-c:a", info.Codec}
}

func (c *FFmpegCodec) run(ctx context.Context, op, binary string, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, classifyExecError(ctx, op, binary, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func classifyExecError(ctx context.Context, op, binary string, err error, stderr string) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrCodecUnavailable, "audio", op, fmt.Sprintf("%s not found", binary), err)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrCodecTimeout, "audio", op, fmt.Sprintf("%s timed out", binary), ctx.Err())
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("audio %s: %w", op, ctx.Err())
	}
	detail := strings.TrimSpace(stderr)
	if len(detail) > stderrTail {
		detail = detail[len(detail)-stderrTail:]
	}
	msg := fmt.Sprintf("%s failed", binary)
	if detail != "" {
		msg += ": " + detail
	}
	return services.Wrap(services.ErrExternalTool, "audio", op, msg, err)
}

// muteFilter builds a volume filter that is active on the half-open union of
// spans: gte(t,start)*lt(t,end) terms summed together.
func muteFilter(spans []interval.Span) string {
	terms := make([]string, 0, len(spans))
	for _, s := range spans {
		terms = append(terms, fmt.Sprintf("gte(t,%s)*lt(t,%s)", formatSeconds(s.Start), formatSeconds(s.End)))
	}
	return "volume=enable='" + strings.Join(terms, "+") + "':volume=0"
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
