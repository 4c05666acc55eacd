package job

import (
	"fmt"
	"strings"
)

// StageName identifies one pipeline stage. The set is closed; the weight table
// below must stay in step with it or the package fails to compile.
type StageName uint8

const (
	StageUploaded StageName = iota
	StageAnalyzing
	StageLanguageDetection
	StageContentScanning
	StageProcessing
	StagePreview

	stageCount
)

// DefaultStageWeight applies only to values outside the closed enum, which can
// appear when decoding records written by a newer build.
const DefaultStageWeight = 10

var stageNames = [...]string{
	StageUploaded:          "uploaded",
	StageAnalyzing:         "analyzing",
	StageLanguageDetection: "language-detection",
	StageContentScanning:   "content-scanning",
	StageProcessing:        "processing",
	StagePreview:           "preview",
}

var stageWeights = [...]int{
	StageUploaded:          5,
	StageAnalyzing:         15,
	StageLanguageDetection: 25,
	StageContentScanning:   30,
	StageProcessing:        20,
	StagePreview:           5,
}

// Compile-time length checks: a missing or extra entry makes one of these
// array sizes negative.
var (
	_ [len(stageWeights) - int(stageCount)]struct{}
	_ [int(stageCount) - len(stageWeights)]struct{}
	_ [len(stageNames) - int(stageCount)]struct{}
	_ [int(stageCount) - len(stageNames)]struct{}
)

// Stages returns the pipeline in execution order.
func Stages() []StageName {
	out := make([]StageName, 0, stageCount)
	for s := StageName(0); s < stageCount; s++ {
		out = append(out, s)
	}
	return out
}

// Weight returns the stage's share of overall progress.
func (s StageName) Weight() int {
	if s < stageCount {
		return stageWeights[s]
	}
	return DefaultStageWeight
}

// Valid reports whether s is one of the known stages.
func (s StageName) Valid() bool {
	return s < stageCount
}

func (s StageName) String() string {
	if s < stageCount {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", uint8(s))
}

// Status returns the job status reported while this stage is active.
func (s StageName) Status() Status {
	return Status(s.String())
}

// ParseStage converts a stage name into its enum value.
func ParseStage(value string) (StageName, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, name := range stageNames {
		if name == normalized {
			return StageName(i), true
		}
	}
	return 0, false
}

func (s StageName) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown stage %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *StageName) UnmarshalText(text []byte) error {
	parsed, ok := ParseStage(string(text))
	if !ok {
		return fmt.Errorf("unknown stage %q", string(text))
	}
	*s = parsed
	return nil
}

// StageStatus is the lifecycle state of one stage attempt.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "processing"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)
