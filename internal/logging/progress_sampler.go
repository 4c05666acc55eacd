package logging

import (
	"strings"
	"sync"
)

// ProgressSampler suppresses repetitive stage progress logs, emitting only when
// the stage changes or the percentage crosses a bucket boundary. It is safe to
// share between the goroutine running a stage and its progress callbacks.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize float64
	lastStage  string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket width in
// percent (default 5).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. A negative
// percent means unknown and only stage changes are reported.
func (s *ProgressSampler) ShouldLog(percent float64, stage string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stage = strings.TrimSpace(stage)
	emit := false
	if stage != "" && stage != s.lastStage {
		s.lastStage = stage
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		if percent > 100 {
			percent = 100
		}
		if bucket := int(percent / s.bucketSize); bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the sampler state (e.g. when a stage is re-entered).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastStage = ""
	s.lastBucket = -1
	s.mu.Unlock()
}
