package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// probeResult represents the parsed output from an ffprobe inspection.
type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Duration      string `json:"duration"`
	BitRate       string `json:"bit_rate"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	BitsPerSample int    `json:"bits_per_sample"`
}

type probeFormat struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

func parseProbe(payload []byte) (probeResult, error) {
	var result probeResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return probeResult{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

func (r probeResult) audioStream() (probeStream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			return stream, true
		}
	}
	return probeStream{}, false
}

// info flattens the first audio stream and the container into an Info. The
// container duration wins; the stream duration covers formats that only
// report it per stream.
func (r probeResult) info() (Info, bool) {
	stream, ok := r.audioStream()
	if !ok {
		return Info{}, false
	}
	duration := parseFloat(r.Format.Duration)
	if duration <= 0 || math.IsNaN(duration) {
		duration = parseFloat(stream.Duration)
	}
	if math.IsNaN(duration) || duration < 0 {
		duration = 0
	}
	bitRate := parseInt(r.Format.BitRate)
	if bitRate == 0 {
		bitRate = parseInt(stream.BitRate)
	}
	format := r.Format.FormatName
	if idx := strings.IndexByte(format, ','); idx > 0 {
		format = format[:idx]
	}
	return Info{
		DurationSeconds: duration,
		SampleRate:      int(parseInt(stream.SampleRate)),
		Channels:        stream.Channels,
		Format:          format,
		Codec:           stream.CodecName,
		BitDepth:        stream.BitsPerSample,
		BitRate:         bitRate,
	}, true
}

func parseInt(value string) int64 {
	v := parseFloat(value)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return int64(v)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
