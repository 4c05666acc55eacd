package workflow

import (
	"fwea/internal/job"
	"fwea/internal/stage"
)

// StageSet bundles the concrete stage handlers the manager orchestrates, one
// per pipeline stage.
type StageSet struct {
	Intake    stage.Handler
	Analyzer  stage.Handler
	Detector  stage.Handler
	Scanner   stage.Handler
	Processor stage.Handler
	Previewer stage.Handler
}

type pipelineStage struct {
	name        job.StageName
	handler     stage.Handler
	description string
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	stages := []pipelineStage{
		{name: job.StageUploaded, handler: set.Intake, description: "Checking upload"},
		{name: job.StageAnalyzing, handler: set.Analyzer, description: "Analyzing audio"},
		{name: job.StageLanguageDetection, handler: set.Detector, description: "Detecting languages"},
		{name: job.StageContentScanning, handler: set.Scanner, description: "Scanning for profanity"},
		{name: job.StageProcessing, handler: set.Processor, description: "Muting profanity"},
		{name: job.StagePreview, handler: set.Previewer, description: "Extracting preview"},
	}

	m.mu.Lock()
	m.stages = stages
	m.mu.Unlock()
}

func (m *Manager) stageFor(name job.StageName) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, stg := range m.stages {
		if stg.name == name {
			return stg, stg.handler != nil
		}
	}
	return pipelineStage{name: name}, false
}

func (m *Manager) configured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.stages) == 0 {
		return false
	}
	for _, stg := range m.stages {
		if stg.handler == nil {
			return false
		}
	}
	return true
}
