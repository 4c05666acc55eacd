package workflow_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fwea/internal/audio"
	"fwea/internal/audioanalysis"
	"fwea/internal/config"
	"fwea/internal/detection"
	"fwea/internal/intake"
	"fwea/internal/job"
	"fwea/internal/lexicon"
	"fwea/internal/profanity"
	"fwea/internal/redaction"
	"fwea/internal/services"
	"fwea/internal/testsupport"
	"fwea/internal/transcript"
	"fwea/internal/workflow"
)

type scriptedDetector struct {
	result transcript.Result
	err    error
	calls  atomic.Int32
}

func (d *scriptedDetector) Name() string                    { return "scripted" }
func (d *scriptedDetector) Available(context.Context) error { return nil }

func (d *scriptedDetector) Detect(context.Context, string) (transcript.Result, error) {
	d.calls.Add(1)
	if d.err != nil {
		return transcript.Result{}, d.err
	}
	return d.result, nil
}

func wavStageSet(cfg *config.Config, detector detection.Detector) workflow.StageSet {
	codec := audio.NewWAVCodec()
	redactor := audio.NewRedactor(codec, nil)
	return workflow.StageSet{
		Intake:    intake.NewStage(nil),
		Analyzer:  audioanalysis.NewAnalyzer(codec, nil),
		Detector:  detection.NewStage(detector, "en", time.Minute, nil),
		Scanner:   profanity.NewStage(profanity.NewScanner(lexicon.Default()), nil),
		Processor: redaction.NewProcessor(redactor, cfg.Paths.OutputDir, nil),
		Previewer: redaction.NewPreviewer(redactor, cfg.Paths.PreviewDir, nil),
	}
}

func TestPipelineMutesProfaneSegment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	const sampleRate = 8000
	source := testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "show.wav"), sampleRate, 1, 120)

	detector := &scriptedDetector{result: transcript.Result{
		Segments: []transcript.Segment{
			{Start: 0, End: 30, Text: "hello world", Language: "en", Confidence: 0.9},
			{Start: 30, End: 60, Text: "shit stuff", Language: "en", Confidence: 0.9},
		},
		PrimaryLanguages: []string{"en"},
	}}
	mgr, store := newManager(t, cfg, wavStageSet(cfg, detector))

	ctx := context.Background()
	j := testsupport.NewJob(t, store, source)
	require.NoError(t, mgr.Process(ctx, j))

	require.Equal(t, job.StatusCompleted, j.Status, j.Error)
	assert.Equal(t, 100, j.Progress)
	assert.True(t, j.Redacted)
	assert.Empty(t, j.Warnings)
	assert.InDelta(t, 120, j.Analysis.DurationSeconds, 1e-9)

	require.Len(t, j.DetectedSpans, 1)
	span := j.DetectedSpans[0]
	assert.Equal(t, 30.0, span.Start)
	assert.Equal(t, 60.0, span.End)
	assert.Equal(t, job.SeverityMild, span.Severity)
	assert.Equal(t, job.SeverityMild, j.Severity)

	info, err := audio.NewWAVCodec().Probe(ctx, j.OutputPath)
	require.NoError(t, err)
	assert.InDelta(t, 120, info.DurationSeconds, 1e-9)
	assert.Equal(t, sampleRate, info.SampleRate)

	out := testsupport.ReadWAV(t, j.OutputPath)
	require.Len(t, out.Data, 120*sampleRate)
	assert.NotZero(t, out.Data[29*sampleRate])
	assert.Zero(t, out.Data[30*sampleRate])
	assert.Zero(t, out.Data[45*sampleRate])
	assert.Zero(t, out.Data[60*sampleRate-1])
	assert.NotZero(t, out.Data[60*sampleRate])

	preview, err := audio.NewWAVCodec().Probe(ctx, j.PreviewPath)
	require.NoError(t, err)
	assert.InDelta(t, float64(cfg.Audio.PreviewSeconds), preview.DurationSeconds, 1e-9)

	stored, err := store.Load(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, stored.Status)
	assert.Equal(t, j.OutputPath, stored.OutputPath)
}

func TestPipelineFailsAfterRepeatedDetectionTimeouts(t *testing.T) {
	tests := []struct {
		name  string
		opts  []testsupport.ConfigOption
		calls int32
	}{
		// Two retries, then the attempt that exhausts the budget.
		{name: "limit two", opts: []testsupport.ConfigOption{testsupport.WithStageRetryLimit(2)}, calls: 3},
		// The default budget of three retries allows a fourth attempt.
		{name: "default limit", calls: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, tt.opts...)
			source := testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "show.wav"), 8000, 1, 5)

			detector := &scriptedDetector{err: services.ErrDetectionTimeout}
			mgr, store := newManager(t, cfg, wavStageSet(cfg, detector))

			j := testsupport.NewJob(t, store, source)
			require.NoError(t, mgr.Process(context.Background(), j))

			assert.Equal(t, job.StatusFailed, j.Status)
			assert.Equal(t, tt.calls, detector.calls.Load())
			assert.Equal(t, "language-detection", j.ErrorStage)
			assert.Contains(t, j.Error, "language-detection")
			assert.Empty(t, j.OutputPath)
		})
	}
}

func TestPipelineFallsBackWhenDetectionUnavailable(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPreviewSeconds(0))
	source := testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "quiet.wav"), 8000, 2, 10)

	detector := &scriptedDetector{err: services.ErrDetectionUnavailable}
	mgr, store := newManager(t, cfg, wavStageSet(cfg, detector))

	j := testsupport.NewJob(t, store, source)
	require.NoError(t, mgr.Process(context.Background(), j))

	require.Equal(t, job.StatusCompleted, j.Status, j.Error)
	assert.Equal(t, int32(1), detector.calls.Load())
	assert.Equal(t, []string{"en"}, j.Languages)
	assert.Empty(t, j.DetectedSpans)
	assert.False(t, j.Redacted)
	assert.NotEmpty(t, j.Warnings)
	assert.Empty(t, j.PreviewPath)
	assert.Equal(t, job.StageSkipped, j.LatestAttempt(job.StagePreview).Status)
	assert.FileExists(t, j.OutputPath)
}
