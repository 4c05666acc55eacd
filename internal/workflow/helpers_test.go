package workflow_test

import (
	"context"
	"sync"
	"testing"

	"fwea/internal/config"
	"fwea/internal/job"
	"fwea/internal/queue"
	"fwea/internal/stage"
	"fwea/internal/testsupport"
	"fwea/internal/workflow"
)

// stubStage records its calls and returns scripted results.
type stubStage struct {
	name string

	mu      sync.Mutex
	calls   int
	errs    []error // consumed per call; the last entry repeats
	apply   func(*job.Job)
	execute func(ctx context.Context, j *job.Job, progress stage.ProgressFunc) error
	skip    string
	order   *[]string
}

func newStubStage(name string, order *[]string) *stubStage {
	return &stubStage{name: name, order: order}
}

func (s *stubStage) Prepare(context.Context, *job.Job) error { return nil }

func (s *stubStage) Execute(ctx context.Context, j *job.Job, progress stage.ProgressFunc) (stage.Outcome, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	if s.order != nil {
		*s.order = append(*s.order, s.name)
	}
	s.mu.Unlock()

	progress(50, s.name+" halfway")
	if s.execute != nil {
		if err := s.execute(ctx, j, progress); err != nil {
			return stage.Outcome{}, err
		}
	}
	if len(s.errs) > 0 {
		idx := call - 1
		if idx >= len(s.errs) {
			idx = len(s.errs) - 1
		}
		if err := s.errs[idx]; err != nil {
			return stage.Outcome{}, err
		}
	}
	return stage.Outcome{
		Apply:    s.apply,
		Metadata: map[string]string{"stub": s.name},
	}, nil
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func (s *stubStage) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// skippingStage is a stubStage that also implements stage.Skipper.
type skippingStage struct {
	*stubStage
}

func (s skippingStage) ShouldSkip(*job.Job) (bool, string) {
	return s.skip != "", s.skip
}

type stubSet struct {
	order     []string
	intake    *stubStage
	analyzer  *stubStage
	detector  *stubStage
	scanner   *stubStage
	processor *stubStage
	previewer *stubStage
}

func newStubSet() *stubSet {
	s := &stubSet{}
	s.intake = newStubStage("uploaded", &s.order)
	s.analyzer = newStubStage("analyzing", &s.order)
	s.detector = newStubStage("language-detection", &s.order)
	s.scanner = newStubStage("content-scanning", &s.order)
	s.processor = newStubStage("processing", &s.order)
	s.previewer = newStubStage("preview", &s.order)
	s.processor.apply = func(j *job.Job) { j.OutputPath = "/out/clean.wav" }
	s.previewer.apply = func(j *job.Job) { j.PreviewPath = "/preview/clip.wav" }
	return s
}

func (s *stubSet) StageSet() workflow.StageSet {
	return workflow.StageSet{
		Intake:    s.intake,
		Analyzer:  s.analyzer,
		Detector:  s.detector,
		Scanner:   s.scanner,
		Processor: s.processor,
		Previewer: skippingStage{s.previewer},
	}
}

func newManager(t *testing.T, cfg *config.Config, set workflow.StageSet) (*workflow.Manager, *queue.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, nil)
	mgr.ConfigureStages(set)
	return mgr, store
}
