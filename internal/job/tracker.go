package job

import (
	"fmt"
)

// StartStage opens a new attempt for name. The stage must be the next one in
// pipeline order and no other stage may be processing. Re-entering a stage
// after a retryable failure appends a fresh attempt that inherits the
// previous attempt's retry count.
func (j *Job) StartStage(name StageName, description string) error {
	if j.IsTerminal() {
		return fmt.Errorf("%w: start %s: job is %s", ErrInvalidTransition, name, j.Status)
	}
	if active := j.ActiveStage(); active != nil {
		return fmt.Errorf("%w: start %s: stage %s already processing", ErrInvalidTransition, name, active.Name)
	}
	if !name.Valid() {
		return fmt.Errorf("%w: unknown stage %s", ErrInvalidTransition, name)
	}
	next, ok := j.NextStage()
	if !ok || next != name {
		return fmt.Errorf("%w: start %s: next stage is %s", ErrInvalidTransition, name, describeNext(next, ok))
	}

	retries := 0
	if prev := j.latest(name); prev != nil {
		retries = prev.RetryCount
		if prev.Status == StagePending {
			prev.Status = StageFailed
		}
	}
	j.Stages = append(j.Stages, StageRecord{
		Name:        name,
		Status:      StageRunning,
		Description: description,
		StartTime:   now(),
		RetryCount:  retries,
	})
	j.Status = name.Status()
	j.StageDescription = description
	j.recomputeProgress()
	j.touch()
	return nil
}

// UpdateStageProgress sets the active stage's progress, clamped to [0,100].
// It returns false without changing anything when no stage is processing,
// which happens when a late progress callback races a completion.
func (j *Job) UpdateStageProgress(percent float64, description string) bool {
	if j.IsTerminal() {
		return false
	}
	rec := j.ActiveStage()
	if rec == nil {
		return false
	}
	rec.Progress = clampPercent(percent)
	if description != "" {
		rec.Description = description
		j.StageDescription = description
	}
	j.recomputeProgress()
	j.touch()
	return true
}

// CompleteStage closes the active stage attempt and merges metadata into it.
func (j *Job) CompleteStage(metadata map[string]string) error {
	rec := j.ActiveStage()
	if rec == nil {
		return fmt.Errorf("%w: complete: no stage processing", ErrInvalidTransition)
	}
	end := now()
	rec.EndTime = &end
	rec.Duration = end.Sub(rec.StartTime)
	rec.Status = StageCompleted
	rec.Progress = 100
	if len(metadata) > 0 {
		if rec.Metadata == nil {
			rec.Metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			rec.Metadata[k] = v
		}
	}
	j.recomputeProgress()
	j.touch()
	return nil
}

// FailStage records a failure on the active stage. Retryable failures within
// the stage's retry budget reset the attempt to pending and report true; the
// caller is expected to start the stage again. Anything else fails the job.
func (j *Job) FailStage(cause error, retryable bool) (bool, error) {
	rec := j.ActiveStage()
	if rec == nil {
		return false, fmt.Errorf("%w: fail: no stage processing", ErrInvalidTransition)
	}
	end := now()
	rec.EndTime = &end
	rec.Duration = end.Sub(rec.StartTime)
	rec.Error = errorText(cause)

	if retryable && rec.RetryCount < j.stageRetryLimit() {
		rec.RetryCount++
		rec.Status = StagePending
		j.touch()
		return true, nil
	}
	rec.Status = StageFailed
	j.failWith(rec.Name.String(), cause)
	return false, nil
}

// ActiveStage returns the attempt currently processing, if any.
func (j *Job) ActiveStage() *StageRecord {
	for i := len(j.Stages) - 1; i >= 0; i-- {
		if j.Stages[i].Status == StageRunning {
			return &j.Stages[i]
		}
	}
	return nil
}

// NextStage returns the stage that StartStage (or SkipStage) will accept
// next. It reports false when every stage is done or one is in flight.
func (j *Job) NextStage() (StageName, bool) {
	for _, name := range Stages() {
		rec := j.latest(name)
		if rec == nil {
			return name, true
		}
		switch rec.Status {
		case StageCompleted, StageSkipped:
			continue
		case StagePending:
			return name, true
		default:
			return name, false
		}
	}
	return 0, false
}

// LatestAttempt returns the most recent attempt for name, or nil.
func (j *Job) LatestAttempt(name StageName) *StageRecord {
	return j.latest(name)
}

func (j *Job) latest(name StageName) *StageRecord {
	for i := len(j.Stages) - 1; i >= 0; i-- {
		if j.Stages[i].Name == name {
			return &j.Stages[i]
		}
	}
	return nil
}

func (j *Job) stageRetryLimit() int {
	if j.StageRetryLimit < 0 {
		return 0
	}
	return j.StageRetryLimit
}

func clampPercent(p float64) float64 {
	switch {
	case p != p:
		return 0
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func describeNext(next StageName, ok bool) string {
	if !ok {
		return "none"
	}
	return next.String()
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
