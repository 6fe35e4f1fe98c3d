package workflow

import (
	"alforqan/internal/queue"
	"alforqan/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	VerseFetcher  stage.Handler
	AudioPreparer stage.Handler
	Renderer      stage.Handler
	Organizer     stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// ConfigureStages registers the concrete stage handlers the workflow will run.
func (m *Manager) ConfigureStages(set StageSet) {
	var stages []pipelineStage

	if set.VerseFetcher != nil {
		stages = append(stages, pipelineStage{
			name:             "verse-fetch",
			handler:          set.VerseFetcher,
			startStatus:      queue.StatusPending,
			processingStatus: queue.StatusFetching,
			doneStatus:       queue.StatusFetched,
		})
	}
	if set.AudioPreparer != nil {
		stages = append(stages, pipelineStage{
			name:             "audio-prep",
			handler:          set.AudioPreparer,
			startStatus:      queue.StatusFetched,
			processingStatus: queue.StatusPreparingAudio,
			doneStatus:       queue.StatusAudioReady,
		})
	}
	if set.Renderer != nil {
		stages = append(stages, pipelineStage{
			name:             "rendering",
			handler:          set.Renderer,
			startStatus:      queue.StatusAudioReady,
			processingStatus: queue.StatusRendering,
			doneStatus:       queue.StatusRendered,
		})
	}
	if set.Organizer != nil {
		stages = append(stages, pipelineStage{
			name:             "organizer",
			handler:          set.Organizer,
			startStatus:      queue.StatusRendered,
			processingStatus: queue.StatusOrganizing,
			doneStatus:       queue.StatusCompleted,
		})
	}

	stageByStart := make(map[queue.Status]pipelineStage, len(stages))
	statusOrder := make([]queue.Status, 0, len(stages))
	var processing []queue.Status
	seenProcessing := make(map[queue.Status]struct{})
	for _, stg := range stages {
		stageByStart[stg.startStatus] = stg
		statusOrder = append(statusOrder, stg.startStatus)
		if stg.processingStatus != "" {
			if _, ok := seenProcessing[stg.processingStatus]; !ok {
				processing = append(processing, stg.processingStatus)
				seenProcessing[stg.processingStatus] = struct{}{}
			}
		}
	}

	m.mu.Lock()
	m.stages = stages
	m.statusOrder = statusOrder
	m.stageByStart = stageByStart
	m.processingStatuses = processing
	m.mu.Unlock()
}

func (m *Manager) stageForStatus(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stg, ok := m.stageByStart[status]
	return stg, ok
}
