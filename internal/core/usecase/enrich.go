package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/ports"
)

type EnrichCandidateUseCase struct {
	candidates ports.CandidateRepository
	searcher   ports.PlaceSearcher
	detailer   ports.PlaceDetailer
}

func NewEnrichCandidateUseCase(
	candidates ports.CandidateRepository,
	searcher ports.PlaceSearcher,
	detailer ports.PlaceDetailer,
) *EnrichCandidateUseCase {
	return &EnrichCandidateUseCase{
		candidates: candidates,
		searcher:   searcher,
		detailer:   detailer,
	}
}

// Enrich backfills a candidate's structured attributes from the place
// directory. The lookup result is appended as a new evidence source;
// nothing already on the record is overwritten except feature keys the
// directory explicitly reports.
func (uc *EnrichCandidateUseCase) Enrich(ctx context.Context, candidateID string) (*domain.Candidate, error) {
	candidate, err := uc.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate: %w", err)
	}

	placeID, err := uc.resolvePlaceID(ctx, candidate)
	if err != nil {
		return nil, err
	}

	details, err := uc.detailer.Details(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("fetch place details: %w", err)
	}

	candidate.Features = domain.OverlayFeatures(candidate.Features, FeaturesFromDetails(details))
	if candidate.PlaceID == "" {
		candidate.PlaceID = details.PlaceID
	}
	if candidate.Phone == "" {
		candidate.Phone = details.Phone
	}
	if candidate.Website == "" {
		candidate.Website = details.Website
	}

	candidate.UpdatedAt = time.Now().UTC()
	if err := uc.candidates.Update(ctx, candidate); err != nil {
		return nil, fmt.Errorf("persist enrichment: %w", err)
	}

	// The evidence append goes through the store's atomic jsonb path so
	// entries written by a concurrent deep dive are not clobbered.
	evidence := domain.Evidence{
		Type:   "enrichment_update",
		Status: "checked",
		Data: map[string]any{
			"place_id":      details.PlaceID,
			"opening_hours": details.OpeningHours,
			"rating":        details.Rating,
		},
		CollectedAt: time.Now().UTC(),
	}
	if err := uc.candidates.AppendSource(ctx, candidate.ID, evidence); err != nil {
		return nil, fmt.Errorf("append enrichment evidence: %w", err)
	}
	candidate.AddSource(evidence)
	return candidate, nil
}

func (uc *EnrichCandidateUseCase) resolvePlaceID(ctx context.Context, c *domain.Candidate) (string, error) {
	if c.PlaceID != "" {
		return c.PlaceID, nil
	}
	results, err := uc.searcher.SearchText(ctx, c.Name+" "+c.Address, 1, nil)
	if err != nil {
		return "", fmt.Errorf("resolve place id: %w", err)
	}
	if len(results) == 0 || results[0].PlaceID == "" {
		return "", domain.WrapError(domain.ErrNotFound, "resolve place id", errors.New("no directory match for name and address"))
	}
	return results[0].PlaceID, nil
}
