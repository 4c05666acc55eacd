// Package workflow drives moderation jobs through the pipeline stages.
//
// A Manager runs a bounded pool of workers. Each worker claims the oldest
// uploaded job from the queue store and walks it through intake, analysis,
// language detection, content scanning, processing and preview, saving the
// job after every state change. Stage calls run under a per-stage timeout;
// retryable failures re-enter the stage until its retry budget is spent, after
// which the job fails with the stage name attached.
//
// Cancellation is cooperative. The cancel flag is checked between stages and
// after each stage returns; a result that arrives after cancellation is
// discarded. Heartbeats mark the jobs a worker owns so that jobs abandoned by
// a crashed worker are failed and can be retried.
//
// Process runs one job synchronously on the caller's goroutine for one-shot
// CLI use.
package workflow
