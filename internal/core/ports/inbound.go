package ports

import (
	"context"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

// AreaScouter is the inbound contract for broad area collection.
type AreaScouter interface {
	CollectArea(ctx context.Context, area string, maxResults int, bias *domain.GeoBias) (*domain.CollectionJob, error)
}

// DeepDiveRequester enqueues a deep dive for asynchronous processing.
type DeepDiveRequester interface {
	Request(ctx context.Context, candidateID string) error
}

// DeepDiver is the inbound contract for the deep-dive worker.
type DeepDiver interface {
	DeepDive(ctx context.Context, candidateID string) error
}

// CandidateEnricher refreshes a candidate from the place directory.
type CandidateEnricher interface {
	Enrich(ctx context.Context, candidateID string) (*domain.Candidate, error)
}

// CandidateReader is the inbound read model for candidates.
type CandidateReader interface {
	GetByID(ctx context.Context, id string) (*domain.Candidate, error)
	ListByStatus(ctx context.Context, status domain.CandidateStatus, limit, offset int) ([]domain.Candidate, error)
}
