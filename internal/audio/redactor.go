package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"fwea/internal/fileutil"
	"fwea/internal/interval"
	"fwea/internal/logging"
	"fwea/internal/services"
)

// Result describes what Redactor wrote.
type Result struct {
	Path string
	// Intervals are the merged spans that were muted.
	Intervals []interval.Span
	// MutedSeconds is the total length of Intervals.
	MutedSeconds float64
	// Degraded is set when the codec failed and dst is an unmodified copy.
	Degraded bool
	Warning  string
}

// Redactor applies mute intervals and cuts previews on top of a Codec.
type Redactor struct {
	codec  Codec
	logger *slog.Logger
}

// NewRedactor wraps codec.
func NewRedactor(codec Codec, logger *slog.Logger) *Redactor {
	return &Redactor{codec: codec, logger: logging.NewComponentLogger(logger, "redactor")}
}

// Codec returns the codec backing the redactor.
func (r *Redactor) Codec() Codec { return r.codec }

// Redact writes src to dst with every span silenced. Spans are validated,
// clamped to duration (when positive) and merged first. With nothing to mute
// dst is a byte-identical copy. Codec timeouts and cancellation are returned;
// any other codec failure yields an unmuted copy and a warning.
func (r *Redactor) Redact(ctx context.Context, src, dst string, spans []interval.Span, duration float64) (Result, error) {
	for i, s := range spans {
		if err := s.Validate(); err != nil {
			return Result{}, fmt.Errorf("span %d: %w", i, err)
		}
	}
	merged := interval.Merge(interval.Clamp(spans, duration))
	result := Result{Path: dst, Intervals: merged, MutedSeconds: interval.Covered(merged)}
	if len(merged) == 0 {
		if err := r.copy(src, dst); err != nil {
			return Result{}, err
		}
		return result, nil
	}

	err := r.codec.Mute(ctx, src, dst, merged)
	if err == nil {
		return result, nil
	}
	if IsTimeout(err) || errors.Is(err, context.Canceled) || errors.Is(err, services.ErrValidation) {
		return Result{}, err
	}
	return r.fallback(ctx, src, dst, "redaction", err)
}

// ExtractPreview writes the first min(maxSeconds, duration) seconds of src to
// dst. Sources no longer than the limit are copied whole. A non-positive
// duration means unknown, in which case the codec trims to maxSeconds.
func (r *Redactor) ExtractPreview(ctx context.Context, src, dst string, maxSeconds, duration float64) (Result, error) {
	if maxSeconds <= 0 || math.IsNaN(maxSeconds) {
		return Result{}, services.Wrap(services.ErrValidation, "audio", "preview", "preview length must be positive", nil)
	}
	result := Result{Path: dst}
	if duration > 0 && duration <= maxSeconds {
		if err := r.copy(src, dst); err != nil {
			return Result{}, err
		}
		return result, nil
	}

	err := r.codec.Trim(ctx, src, dst, 0, maxSeconds)
	if err == nil {
		return result, nil
	}
	if IsTimeout(err) || errors.Is(err, context.Canceled) || errors.Is(err, services.ErrValidation) {
		return Result{}, err
	}
	return r.fallback(ctx, src, dst, "preview", err)
}

func (r *Redactor) fallback(ctx context.Context, src, dst, op string, cause error) (Result, error) {
	if err := r.copy(src, dst); err != nil {
		return Result{}, fmt.Errorf("%s fallback copy: %w (codec error: %v)", op, err, cause)
	}
	warning := fmt.Sprintf("%s codec %s failed; output is an unmodified copy: %v", op, r.codec.Name(), cause)
	logging.WarnWithContext(logging.WithContext(ctx, r.logger), "audio codec failed, copied source instead", "codec_fallback",
		logging.String("operation", op),
		logging.String("codec", r.codec.Name()),
		logging.Error(cause),
		logging.String(logging.FieldErrorHint, "install ffmpeg or check the source file"),
		logging.String(logging.FieldImpact, "output audio is not muted"),
	)
	return Result{Path: dst, Degraded: true, Warning: warning}, nil
}

func (r *Redactor) copy(src, dst string) error {
	if fileutil.SameFile(src, dst) {
		return services.Wrap(services.ErrValidation, "audio", "copy", "output path equals source", nil)
	}
	return fileutil.WriteAtomic(dst, func(tmp string) error {
		if err := fileutil.CopyFileVerified(src, tmp); err != nil {
			return services.Wrap(services.ErrExternalTool, "audio", "copy", "copy source", err)
		}
		return nil
	})
}
