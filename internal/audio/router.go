package audio

import (
	"context"
	"path/filepath"
	"strings"

	"fwea/internal/config"
	"fwea/internal/interval"
)

// Router sends WAV files to a native codec first and everything else, or
// anything the native codec reports as unavailable, to an external codec.
type Router struct {
	native   Codec
	external Codec
}

// NewRouter combines a native codec (may be nil) with an external one.
func NewRouter(native, external Codec) *Router {
	return &Router{native: native, external: external}
}

// NewFromConfig builds the codec described by the [audio] config section.
func NewFromConfig(cfg *config.Config) Codec {
	ff := NewFFmpegCodec(cfg.Audio.FFmpegBinary, cfg.Audio.FFprobeBinary, cfg.CodecTimeout())
	if !cfg.Audio.NativeWAV {
		return ff
	}
	return NewRouter(NewWAVCodec(), ff)
}

// Name identifies the codec in logs and health output.
func (r *Router) Name() string {
	if r.native == nil {
		return r.external.Name()
	}
	return r.native.Name() + "+" + r.external.Name()
}

// Available reports the external codec's availability. WAV input still works
// without it, which callers surface as a degraded state.
func (r *Router) Available(ctx context.Context) error {
	return r.external.Available(ctx)
}

// Probe implements Codec.
func (r *Router) Probe(ctx context.Context, path string) (Info, error) {
	var info Info
	err := r.each(path, func(c Codec) error {
		var err error
		info, err = c.Probe(ctx, path)
		return err
	})
	return info, err
}

// Mute implements Codec.
func (r *Router) Mute(ctx context.Context, src, dst string, spans []interval.Span) error {
	return r.each(src, func(c Codec) error {
		return c.Mute(ctx, src, dst, spans)
	})
}

// Trim implements Codec.
func (r *Router) Trim(ctx context.Context, src, dst string, start, duration float64) error {
	return r.each(src, func(c Codec) error {
		return c.Trim(ctx, src, dst, start, duration)
	})
}

func (r *Router) each(path string, fn func(Codec) error) error {
	codecs := []Codec{r.external}
	if r.native != nil && isWAV(path) {
		codecs = []Codec{r.native, r.external}
	}
	var err error
	for _, c := range codecs {
		err = fn(c)
		if err == nil || !IsUnavailable(err) {
			return err
		}
	}
	return err
}

func isWAV(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return true
	default:
		return false
	}
}
