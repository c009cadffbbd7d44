package usecase

import (
	"context"
	"fmt"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/ports"
)

// ReadCandidatesUseCase is the thin read model behind the candidate
// listing endpoints.
type ReadCandidatesUseCase struct {
	candidates ports.CandidateRepository
}

func NewReadCandidatesUseCase(candidates ports.CandidateRepository) *ReadCandidatesUseCase {
	return &ReadCandidatesUseCase{candidates: candidates}
}

func (uc *ReadCandidatesUseCase) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	c, err := uc.candidates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate: %w", err)
	}
	return c, nil
}

func (uc *ReadCandidatesUseCase) ListByStatus(ctx context.Context, status domain.CandidateStatus, limit, offset int) ([]domain.Candidate, error) {
	list, err := uc.candidates.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return list, nil
}
