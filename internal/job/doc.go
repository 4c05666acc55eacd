// Package job models a single audio moderation job: its ordered pipeline
// stages, the per-stage attempt records, weighted progress, and the
// transitions between lifecycle states.
//
// All mutation goes through the tracker (StartStage, UpdateStageProgress,
// CompleteStage, FailStage) and machine (Complete, Fail, Cancel, Retry,
// SkipStage) methods. A Job is not safe for concurrent mutation; the workflow
// hands each job to exactly one worker and persists it after every call.
package job
