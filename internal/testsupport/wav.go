package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ToneAmplitude is the peak of the square wave written by WriteWAV.
const ToneAmplitude = 8000

// WriteWAV writes a 16-bit PCM WAV of the given length holding a square wave
// that never crosses zero amplitude, so muted regions are easy to spot.
func WriteWAV(t testing.TB, path string, sampleRate, channels int, seconds float64) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	frames := int(math.Round(seconds * float64(sampleRate)))
	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		v := ToneAmplitude
		if (i/40)%2 == 1 {
			v = -ToneAmplitude
		}
		for c := 0; c < channels; c++ {
			data[i*channels+c] = v
		}
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalise %s: %v", path, err)
	}
	return path
}

// ReadWAV decodes a PCM WAV written by the codec under test.
func ReadWAV(t testing.TB, path string) *goaudio.IntBuffer {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return buf
}
