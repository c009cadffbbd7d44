package usecase

import (
	"context"
	"fmt"

	"github.com/anshin-navi/discovery/internal/core/ports"
)

// RequestDeepDiveUseCase verifies the candidate exists and hands the slow
// crawl-and-extract work to the worker over the queue.
type RequestDeepDiveUseCase struct {
	candidates ports.CandidateRepository
	queue      ports.MessageQueue
}

func NewRequestDeepDiveUseCase(candidates ports.CandidateRepository, queue ports.MessageQueue) *RequestDeepDiveUseCase {
	return &RequestDeepDiveUseCase{candidates: candidates, queue: queue}
}

func (uc *RequestDeepDiveUseCase) Request(ctx context.Context, candidateID string) error {
	if _, err := uc.candidates.GetByID(ctx, candidateID); err != nil {
		return fmt.Errorf("fetch candidate: %w", err)
	}
	if err := uc.queue.PublishDeepDiveRequested(ctx, candidateID); err != nil {
		return fmt.Errorf("publish deep dive request: %w", err)
	}
	return nil
}
