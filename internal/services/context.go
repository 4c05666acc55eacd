package services

import "context"

// Job-scoped tags carried on contexts so logging.WithContext can stamp them
// onto every record a stage emits.
type contextKey int

const (
	jobIDKey contextKey = iota
	stageKey
	workerKey
	requestIDKey
)

func withTag(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func tag(ctx context.Context, key contextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithJobID tags ctx with the job being processed. Empty values are ignored.
func WithJobID(ctx context.Context, id string) context.Context { return withTag(ctx, jobIDKey, id) }

// JobIDFromContext returns the job tag.
func JobIDFromContext(ctx context.Context) (string, bool) { return tag(ctx, jobIDKey) }

func WithStage(ctx context.Context, stage string) context.Context {
	return withTag(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return tag(ctx, stageKey) }

func WithWorker(ctx context.Context, worker string) context.Context {
	return withTag(ctx, workerKey, worker)
}

func WorkerFromContext(ctx context.Context) (string, bool) { return tag(ctx, workerKey) }

// WithRequestID tags ctx with a correlation ID unique to one job run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withTag(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return tag(ctx, requestIDKey) }
