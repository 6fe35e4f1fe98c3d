package main

import (
	"log/slog"

	"alforqan/internal/audioprep"
	"alforqan/internal/config"
	"alforqan/internal/organizer"
	"alforqan/internal/queue"
	"alforqan/internal/rendering"
	"alforqan/internal/versefetch"
	"alforqan/internal/workflow"
)

type stageConfigurator interface {
	ConfigureStages(workflow.StageSet)
}

func configureStages(reg stageConfigurator, cfg *config.Config, store *queue.Store, logger *slog.Logger) error {
	if reg == nil || cfg == nil {
		return nil
	}

	fetcher, err := versefetch.NewFetcher(cfg, store, logger)
	if err != nil {
		return err
	}
	renderer, err := rendering.NewRenderer(cfg, store, logger)
	if err != nil {
		return err
	}

	reg.ConfigureStages(workflow.StageSet{
		VerseFetcher:  fetcher,
		AudioPreparer: audioprep.NewPreparer(cfg, store, logger),
		Renderer:      renderer,
		Organizer:     organizer.NewOrganizer(cfg, store, logger),
	})
	return nil
}
