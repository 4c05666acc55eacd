package audio

import (
	"context"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"fwea/internal/fileutil"
	"fwea/internal/interval"
	"fwea/internal/services"
)

const wavFormatPCM = 1

// WAVCodec edits integer PCM WAV files in process. Anything else (float or
// compressed WAV, other containers) is reported as ErrCodecUnavailable so a
// Router can hand the file to ffmpeg.
type WAVCodec struct{}

// NewWAVCodec returns the native PCM WAV codec.
func NewWAVCodec() *WAVCodec { return &WAVCodec{} }

// Name identifies the codec in logs and health output.
func (c *WAVCodec) Name() string { return "wav" }

// Available always succeeds; the codec has no external dependencies.
func (c *WAVCodec) Available(context.Context) error { return nil }

// Probe reads the WAV header and computes the exact duration from the PCM
// chunk size.
func (c *WAVCodec) Probe(ctx context.Context, path string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrValidation, "audio", "probe", "open source", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, services.Wrap(services.ErrCodecUnavailable, "audio", "probe", "not a readable WAV file", err)
	}
	if err := checkPCM(dec); err != nil {
		return Info{}, err
	}
	frameBytes := int(dec.NumChans) * int(dec.BitDepth) / 8
	frames := dec.PCMSize / frameBytes
	return Info{
		DurationSeconds: float64(frames) / float64(dec.SampleRate),
		SampleRate:      int(dec.SampleRate),
		Channels:        int(dec.NumChans),
		Format:          "wav",
		Codec:           fmt.Sprintf("pcm_s%dle", dec.BitDepth),
		BitDepth:        int(dec.BitDepth),
		BitRate:         int64(dec.SampleRate) * int64(dec.NumChans) * int64(dec.BitDepth),
	}, nil
}

// Mute zeroes every frame whose timestamp falls inside a span. Frame i sits
// at i/sampleRate seconds, so span [s,e) covers frames ceil(s*sr) up to but
// excluding ceil(e*sr).
func (c *WAVCodec) Mute(ctx context.Context, src, dst string, spans []interval.Span) error {
	buf, bitDepth, err := decodePCM(ctx, src)
	if err != nil {
		return err
	}
	channels := buf.Format.NumChannels
	rate := float64(buf.Format.SampleRate)
	frames := len(buf.Data) / channels
	silence := 0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned; the midpoint is silence.
		silence = 128
	}
	for _, s := range interval.Merge(spans) {
		first := clampFrame(int(math.Ceil(s.Start*rate)), frames)
		last := clampFrame(int(math.Ceil(s.End*rate)), frames)
		for i := first * channels; i < last*channels; i++ {
			buf.Data[i] = silence
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fileutil.WriteAtomic(dst, func(tmp string) error {
		return encodePCM(tmp, buf, bitDepth)
	})
}

// Trim keeps the frames in [start, start+duration).
func (c *WAVCodec) Trim(ctx context.Context, src, dst string, start, duration float64) error {
	if duration <= 0 || start < 0 {
		return services.Wrap(services.ErrValidation, "audio", "trim", "invalid trim window", nil)
	}
	buf, bitDepth, err := decodePCM(ctx, src)
	if err != nil {
		return err
	}
	channels := buf.Format.NumChannels
	rate := float64(buf.Format.SampleRate)
	frames := len(buf.Data) / channels
	first := clampFrame(int(math.Ceil(start*rate)), frames)
	last := clampFrame(int(math.Ceil((start+duration)*rate)), frames)
	buf.Data = buf.Data[first*channels : last*channels]
	return fileutil.WriteAtomic(dst, func(tmp string) error {
		return encodePCM(tmp, buf, bitDepth)
	})
}

func checkPCM(dec *wav.Decoder) error {
	if dec.NumChans == 0 || dec.SampleRate == 0 || dec.BitDepth == 0 {
		return services.Wrap(services.ErrCodecUnavailable, "audio", "decode", "WAV header is incomplete", nil)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return services.Wrap(services.ErrCodecUnavailable, "audio", "decode",
			fmt.Sprintf("WAV encoding %d is not integer PCM", dec.WavAudioFormat), nil)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
		return nil
	default:
		return services.Wrap(services.ErrCodecUnavailable, "audio", "decode",
			fmt.Sprintf("unsupported bit depth %d", dec.BitDepth), nil)
	}
}

func decodePCM(ctx context.Context, path string) (*goaudio.IntBuffer, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrValidation, "audio", "decode", "open source", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return nil, 0, services.Wrap(services.ErrCodecUnavailable, "audio", "decode", "not a readable WAV file", err)
	}
	if err := checkPCM(dec); err != nil {
		return nil, 0, err
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, services.Wrap(services.ErrCodecUnavailable, "audio", "decode", "read PCM data", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		buf.Format = &goaudio.Format{NumChannels: int(dec.NumChans), SampleRate: int(dec.SampleRate)}
	}
	return buf, int(dec.BitDepth), nil
}

func encodePCM(path string, buf *goaudio.IntBuffer, bitDepth int) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	enc := wav.NewEncoder(out, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "encode", "write PCM data", err)
	}
	if err := enc.Close(); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "encode", "finalise WAV header", err)
	}
	return out.Close()
}

func clampFrame(frame, frames int) int {
	if frame < 0 {
		return 0
	}
	if frame > frames {
		return frames
	}
	return frame
}
