package job

import (
	"fmt"
)

// Complete finalises the job. Processing must be complete and preview must be
// either complete or skipped.
func (j *Job) Complete(outputPath, previewPath string) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: complete: job is %s", ErrInvalidTransition, j.Status)
	}
	if active := j.ActiveStage(); active != nil {
		return fmt.Errorf("%w: complete: stage %s still processing", ErrInvalidTransition, active.Name)
	}
	if rec := j.latest(StageProcessing); rec == nil || rec.Status != StageCompleted {
		return fmt.Errorf("%w: complete: processing stage not completed", ErrInvalidTransition)
	}
	if rec := j.latest(StagePreview); rec == nil || (rec.Status != StageCompleted && rec.Status != StageSkipped) {
		return fmt.Errorf("%w: complete: preview stage neither completed nor skipped", ErrInvalidTransition)
	}
	ts := now()
	j.Status = StatusCompleted
	j.Progress = 100
	j.StageDescription = "Completed"
	j.OutputPath = outputPath
	j.PreviewPath = previewPath
	j.CompletedAt = &ts
	j.touch()
	return nil
}

// Fail moves the job to failed from any non-terminal state. An active stage
// attempt is marked failed alongside it.
func (j *Job) Fail(cause error) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: fail: job is %s", ErrInvalidTransition, j.Status)
	}
	stage := string(j.Status)
	if rec := j.ActiveStage(); rec != nil {
		end := now()
		rec.EndTime = &end
		rec.Duration = end.Sub(rec.StartTime)
		rec.Status = StageFailed
		rec.Error = errorText(cause)
		stage = rec.Name.String()
	}
	j.failWith(stage, cause)
	return nil
}

// Cancel stops the job. An in-flight stage attempt is marked skipped; the
// worker discards whatever that attempt eventually returns.
func (j *Job) Cancel() error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: cancel: job is %s", ErrInvalidTransition, j.Status)
	}
	if rec := j.ActiveStage(); rec != nil {
		end := now()
		rec.EndTime = &end
		rec.Duration = end.Sub(rec.StartTime)
		rec.Status = StageSkipped
		rec.Error = "cancelled"
	}
	j.Status = StatusCancelled
	j.StageDescription = "Cancelled"
	j.CancelRequested = true
	j.touch()
	return nil
}

// Retry resets a failed job to uploaded so the whole pipeline runs again.
func (j *Job) Retry() error {
	if j.Status != StatusFailed {
		return fmt.Errorf("%w: job is %s", ErrNotRetryable, j.Status)
	}
	if j.RetryCount >= j.MaxRetries {
		return fmt.Errorf("%w: retry budget exhausted (%d/%d)", ErrNotRetryable, j.RetryCount, j.MaxRetries)
	}
	j.RetryCount++
	j.Status = StatusUploaded
	j.Progress = 0
	j.StageDescription = ""
	j.Stages = nil
	j.Error = ""
	j.ErrorStage = ""
	j.Analysis = AudioInfo{}
	j.Transcript = nil
	j.Languages = nil
	j.DetectedSpans = nil
	j.Severity = SeverityNone
	j.LanguageBreakdown = nil
	j.OutputPath = ""
	j.PreviewPath = ""
	j.Redacted = false
	j.Warnings = nil
	j.CompletedAt = nil
	j.CancelRequested = false
	j.Worker = ""
	j.LastHeartbeat = nil
	j.touch()
	return nil
}

// SkipStage records name as skipped without running it. It must be the next
// stage in order.
func (j *Job) SkipStage(name StageName, reason string) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: skip %s: job is %s", ErrInvalidTransition, name, j.Status)
	}
	if active := j.ActiveStage(); active != nil {
		return fmt.Errorf("%w: skip %s: stage %s already processing", ErrInvalidTransition, name, active.Name)
	}
	next, ok := j.NextStage()
	if !ok || next != name {
		return fmt.Errorf("%w: skip %s: next stage is %s", ErrInvalidTransition, name, describeNext(next, ok))
	}
	ts := now()
	j.Stages = append(j.Stages, StageRecord{
		Name:        name,
		Status:      StageSkipped,
		Description: reason,
		StartTime:   ts,
		EndTime:     &ts,
	})
	j.recomputeProgress()
	j.touch()
	return nil
}

func (j *Job) failWith(stage string, cause error) {
	j.Status = StatusFailed
	j.ErrorStage = stage
	j.Error = fmt.Sprintf("stage %s: %s", stage, errorText(cause))
	j.StageDescription = "Failed"
	j.touch()
}
