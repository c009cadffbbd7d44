package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/masters"
	"github.com/anshin-navi/discovery/internal/core/pipeline"
	"github.com/anshin-navi/discovery/internal/core/ports"
)

const (
	initialScorePerSignal = 20
	initialScoreCap       = 60
)

type ScoutAreaUseCase struct {
	searcher   ports.PlaceSearcher
	candidates ports.CandidateRepository
	jobs       ports.JobRepository

	maxParadoxQueries int
	chainFilter       bool
}

func NewScoutAreaUseCase(
	searcher ports.PlaceSearcher,
	candidates ports.CandidateRepository,
	jobs ports.JobRepository,
	maxParadoxQueries int,
	chainFilter bool,
) *ScoutAreaUseCase {
	return &ScoutAreaUseCase{
		searcher:          searcher,
		candidates:        candidates,
		jobs:              jobs,
		maxParadoxQueries: maxParadoxQueries,
		chainFilter:       chainFilter,
	}
}

type scoutQuery struct {
	query  string
	source string
	detail string
}

// CollectArea runs the broad search strategies for an area, extracts
// signals, dedups the batch and persists the survivors as pending
// candidates. Individual query failures are counted, not fatal: one bad
// query must not lose the rest of the batch.
func (uc *ScoutAreaUseCase) CollectArea(ctx context.Context, area string, maxResults int, bias *domain.GeoBias) (*domain.CollectionJob, error) {
	job := &domain.CollectionJob{
		ID:        uuid.NewString(),
		Area:      area,
		Status:    domain.JobProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := uc.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create collection job: %w", err)
	}

	batch, queryFailures := uc.runQueries(ctx, area, maxResults, bias)
	unique := pipeline.DeduplicateAndMerge(batch)

	saved, insertFailures := uc.persist(ctx, job.ID, unique)

	job.CollectedCount = len(unique)
	job.SavedCount = saved
	job.FailedCount = queryFailures + insertFailures
	job.Status = domain.JobCompleted
	job.CompletedAt = time.Now().UTC()
	if len(unique) == 0 && queryFailures > 0 {
		job.Status = domain.JobFailed
		job.Error = "all search queries failed"
	}
	if err := uc.jobs.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("complete collection job: %w", err)
	}
	return job, nil
}

func (uc *ScoutAreaUseCase) runQueries(ctx context.Context, area string, maxResults int, bias *domain.GeoBias) ([]domain.Candidate, int) {
	var batch []domain.Candidate
	failures := 0

	for _, q := range uc.buildQueries(area) {
		results, err := uc.searcher.SearchText(ctx, q.query, maxResults, bias)
		if err != nil {
			slog.Warn("scout_query_failed", "query", q.query, "error", err)
			failures++
			continue
		}
		for _, place := range results {
			if c, ok := uc.toCandidate(place, q); ok {
				batch = append(batch, c)
			}
		}
	}
	return batch, failures
}

// buildQueries expands the broad strategy templates plus the top paradox
// combinations for the area.
func (uc *ScoutAreaUseCase) buildQueries(area string) []scoutQuery {
	var out []scoutQuery
	for _, s := range masters.QueryStrategies() {
		out = append(out, scoutQuery{
			query:  strings.ReplaceAll(s.Query, "{area}", area),
			source: s.Source,
		})
	}
	for i, row := range masters.ParadoxRows() {
		if i >= uc.maxParadoxQueries {
			break
		}
		if len(row.SearchTerms) == 0 {
			continue
		}
		out = append(out, scoutQuery{
			query:  fmt.Sprintf("%s %s %s", area, row.SearchTerms[0], row.FoodItem),
			source: fmt.Sprintf("paradox_%s_%s", row.Allergen, row.FoodItem),
			detail: fmt.Sprintf("target: %s without %s", row.FoodItem, row.Allergen),
		})
	}
	return out
}

// toCandidate turns a place hit into a candidate if it carries at least
// one signal and is not an excluded chain brand.
func (uc *ScoutAreaUseCase) toCandidate(place domain.PlaceResult, q scoutQuery) (domain.Candidate, bool) {
	if uc.chainFilter && isChainBrand(place.Name) {
		return domain.Candidate{}, false
	}

	signals := extractSignals(place)
	isParadox := strings.HasPrefix(q.source, "paradox_")
	if len(signals) == 0 && !isParadox {
		return domain.Candidate{}, false
	}

	confidence := "medium"
	if len(signals) > 0 {
		confidence = "high"
	}
	signals = append(signals, domain.Signal{
		Type:       "discovery_strategy",
		Keyword:    q.source,
		Source:     "system_strategy",
		Confidence: confidence,
		Detail:     q.detail,
	})

	score := len(signals) * initialScorePerSignal
	if score > initialScoreCap {
		score = initialScoreCap
	}

	now := time.Now().UTC()
	return domain.Candidate{
		PlaceID:   place.PlaceID,
		Name:      place.Name,
		Address:   place.Address,
		Lat:       place.Lat,
		Lng:       place.Lng,
		Website:   place.Website,
		Phone:     place.Phone,
		Signals:   signals,
		Status:    domain.StatusPending,
		Menus:     []domain.MenuItem{},
		Features:  map[string]domain.FeatureValue{},
		Sources: []domain.Evidence{{
			Type:        "directory_listing",
			URL:         place.GoogleMapsURI,
			Data:        map[string]any{"query": q.query, "strategy": q.source},
			CollectedAt: now,
		}},
		ReliabilityScore: score,
	}, true
}

// extractSignals scans the name and editorial summary for the signal
// vocabulary. A name hit is worth more than a summary hit.
func extractSignals(place domain.PlaceResult) []domain.Signal {
	var signals []domain.Signal
	text := strings.ToLower(place.Name + " " + place.EditorialSummary)

	for _, keyword := range masters.SignalKeywords() {
		if strings.Contains(text, strings.ToLower(keyword)) {
			signals = append(signals, domain.Signal{
				Type:       "keyword",
				Keyword:    keyword,
				Source:     "editorial_summary",
				Confidence: "low",
			})
		}
	}
	for _, term := range masters.NameTerms() {
		if strings.Contains(place.Name, term) {
			signals = append(signals, domain.Signal{
				Type:       "name_match",
				Keyword:    term,
				Source:     "shop_name",
				Confidence: "medium",
			})
		}
	}
	return signals
}

func isChainBrand(name string) bool {
	lower := strings.ToLower(name)
	for _, brand := range masters.ChainBrands() {
		if strings.Contains(name, brand) || strings.Contains(lower, strings.ToLower(brand)) {
			return true
		}
	}
	return false
}

// persist inserts each unique candidate unless a record with the same
// identity already exists. Existence is checked first and the insert is
// not conditional, so two concurrent collections of overlapping areas can
// both insert; moderation handles the stragglers.
func (uc *ScoutAreaUseCase) persist(ctx context.Context, jobID string, unique []domain.Candidate) (saved, failed int) {
	for i := range unique {
		c := &unique[i]

		exists, err := uc.exists(ctx, c)
		if err != nil {
			failed++
			continue
		}
		if exists {
			continue
		}

		c.ID = uuid.NewString()
		c.JobID = jobID
		now := time.Now().UTC()
		c.CreatedAt = now
		c.UpdatedAt = now
		if err := uc.candidates.Create(ctx, c); err != nil {
			failed++
			continue
		}
		saved++
	}
	return saved, failed
}

func (uc *ScoutAreaUseCase) exists(ctx context.Context, c *domain.Candidate) (bool, error) {
	var err error
	if c.PlaceID != "" {
		_, err = uc.candidates.FindByPlaceID(ctx, c.PlaceID)
	} else {
		_, err = uc.candidates.FindByNameAddress(ctx, c.Name, c.Address)
	}
	if err == nil {
		return true, nil
	}
	if domain.IsKind(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}
