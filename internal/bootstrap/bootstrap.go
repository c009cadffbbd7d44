package bootstrap

import (
	"context"
	"fmt"

	"github.com/anshin-navi/discovery/internal/config"
	"github.com/anshin-navi/discovery/internal/core/ports"
	"github.com/anshin-navi/discovery/internal/core/usecase"
	"github.com/anshin-navi/discovery/internal/infrastructure/crawler"
	"github.com/anshin-navi/discovery/internal/infrastructure/llm/gemini"
	"github.com/anshin-navi/discovery/internal/infrastructure/places"
	"github.com/anshin-navi/discovery/internal/infrastructure/queue/nats"
	"github.com/anshin-navi/discovery/internal/infrastructure/repository/postgres"
	"github.com/anshin-navi/discovery/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue      ports.MessageQueue
	Candidates ports.CandidateRepository
	Jobs       ports.JobRepository

	ScoutUC   ports.AreaScouter
	RequestUC ports.DeepDiveRequester
	DiveUC    ports.DeepDiver
	EnrichUC  ports.CandidateEnricher
	ReadUC    ports.CandidateReader

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	candidates := postgres.NewCandidateRepository(db)
	if err := candidates.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	jobs := postgres.NewJobRepository(db)

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	searcher := places.New(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cfg.PlacesRatePerSec, executor)
	siteCrawler := crawler.New(cfg.FetchTimeout)
	extractor := gemini.New(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModels)

	scoutUC := usecase.NewScoutAreaUseCase(searcher, candidates, jobs, cfg.ScoutMaxParadox, cfg.ChainFilterOn)
	requestUC := usecase.NewRequestDeepDiveUseCase(candidates, queue)
	diveUC := usecase.NewDeepDiveUseCase(candidates, searcher, searcher, siteCrawler, extractor).
		WithMaxVisionImages(cfg.DeepDiveMaxImages)
	enrichUC := usecase.NewEnrichCandidateUseCase(candidates, searcher, searcher)
	readUC := usecase.NewReadCandidatesUseCase(candidates)

	return &App{
		Config:     cfg,
		Queue:      queue,
		Candidates: candidates,
		Jobs:       jobs,

		ScoutUC:   scoutUC,
		RequestUC: requestUC,
		DiveUC:    diveUC,
		EnrichUC:  enrichUC,
		ReadUC:    readUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
