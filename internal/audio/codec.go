package audio

import (
	"context"
	"errors"

	"fwea/internal/interval"
	"fwea/internal/services"
)

// Info describes the audio stream of a file.
type Info struct {
	DurationSeconds float64
	SampleRate      int
	Channels        int
	Format          string
	Codec           string
	BitDepth        int
	BitRate         int64
}

// Codec is the low-level audio tool used by Redactor and the analysis stage.
// Implementations write outputs atomically: dst either holds the complete
// result or is left untouched.
type Codec interface {
	Name() string
	// Available reports whether the codec can run at all.
	Available(ctx context.Context) error
	Probe(ctx context.Context, path string) (Info, error)
	// Mute silences every span of src in all channels and writes dst. Sample
	// rate, channel count and duration are preserved.
	Mute(ctx context.Context, src, dst string, spans []interval.Span) error
	// Trim writes the [start, start+duration) window of src to dst.
	Trim(ctx context.Context, src, dst string, start, duration float64) error
}

// IsTimeout reports whether err is a codec or context timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, services.ErrCodecTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsUnavailable reports whether err means the codec cannot handle the input
// at all (missing binary, unsupported encoding).
func IsUnavailable(err error) bool {
	return errors.Is(err, services.ErrCodecUnavailable)
}
