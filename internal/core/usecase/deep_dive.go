package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/pipeline"
	"github.com/anshin-navi/discovery/internal/core/ports"
	"github.com/anshin-navi/discovery/internal/core/safety"
)

// If the site crawl yields fewer than this many menu items the AI
// extractors get a turn.
const sparseMenuThreshold = 2

// How many harvested images are worth an AI vision call per dive when
// no explicit limit is configured.
const defaultMaxVisionImages = 3

type DeepDiveUseCase struct {
	candidates ports.CandidateRepository
	searcher   ports.PlaceSearcher
	detailer   ports.PlaceDetailer
	crawler    ports.SiteCrawler
	extractor  ports.MenuExtractor

	maxVisionImages int
}

func NewDeepDiveUseCase(
	candidates ports.CandidateRepository,
	searcher ports.PlaceSearcher,
	detailer ports.PlaceDetailer,
	crawler ports.SiteCrawler,
	extractor ports.MenuExtractor,
) *DeepDiveUseCase {
	return &DeepDiveUseCase{
		candidates:      candidates,
		searcher:        searcher,
		detailer:        detailer,
		crawler:         crawler,
		extractor:       extractor,
		maxVisionImages: defaultMaxVisionImages,
	}
}

// WithMaxVisionImages caps how many harvested images each dive may send
// to the vision extractor. Values below one keep the default.
func (uc *DeepDiveUseCase) WithMaxVisionImages(n int) *DeepDiveUseCase {
	if n > 0 {
		uc.maxVisionImages = n
	}
	return uc
}

// DeepDive runs the full per-candidate enrichment pass: directory details,
// website crawl with rule extraction, AI fallback when the rules came up
// sparse, safety analysis, then a merge into the stored record. Partial
// failures degrade the result instead of aborting it; only a missing
// candidate or a failed persist is fatal.
func (uc *DeepDiveUseCase) DeepDive(ctx context.Context, candidateID string) error {
	candidate, err := uc.candidates.GetByID(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("fetch candidate: %w", err)
	}

	dive := &diveResult{features: map[string]domain.FeatureValue{}}

	uc.recoverPlaceID(ctx, candidate)
	details := uc.fetchDetails(ctx, candidate, dive)
	uc.crawlSite(ctx, candidate, dive)
	uc.extendWithAI(ctx, dive)
	uc.analyzeMenus(dive)

	update := domain.Candidate{
		Menus:    dive.menus,
		Features: dive.features,
		Sources:  dive.sources,
	}
	pipeline.MergeInto(candidate, update)

	if dive.phone != "" {
		candidate.Phone = dive.phone
	}
	if dive.instagram != "" {
		candidate.Instagram = dive.instagram
	}
	if dive.website != "" {
		candidate.Website = dive.website
	}
	if details != nil && candidate.PlaceID == "" {
		candidate.PlaceID = details.PlaceID
	}

	pipeline.ScoreMenus(candidate.Menus)
	candidate.ReliabilityScore = pipeline.ReliabilityScore(*candidate)
	candidate.UpdatedAt = time.Now().UTC()

	if err := uc.candidates.Update(ctx, candidate); err != nil {
		return fmt.Errorf("persist deep dive result: %w", err)
	}
	return nil
}

type diveResult struct {
	menus     []domain.MenuItem
	features  map[string]domain.FeatureValue
	sources   []domain.Evidence
	phone     string
	instagram string
	website   string
	images    []string
	text      string
}

// recoverPlaceID backfills a missing place identifier via a text search.
// Failure here is fine, the dive continues on the website alone.
func (uc *DeepDiveUseCase) recoverPlaceID(ctx context.Context, c *domain.Candidate) {
	if c.PlaceID != "" {
		return
	}
	results, err := uc.searcher.SearchText(ctx, c.Name+" "+c.Address, 1, nil)
	if err != nil || len(results) == 0 {
		return
	}
	c.PlaceID = results[0].PlaceID
}

func (uc *DeepDiveUseCase) fetchDetails(ctx context.Context, c *domain.Candidate, dive *diveResult) *domain.PlaceDetails {
	if c.PlaceID == "" {
		return nil
	}
	details, err := uc.detailer.Details(ctx, c.PlaceID)
	if err != nil {
		dive.sources = append(dive.sources, domain.Evidence{
			Type:        "directory_listing",
			Status:      "failed",
			CollectedAt: time.Now().UTC(),
		})
		return nil
	}

	if details.Phone != "" {
		dive.phone = details.Phone
	}
	if details.Website != "" {
		dive.website = details.Website
	}
	dive.features = domain.OverlayFeatures(dive.features, FeaturesFromDetails(details))
	dive.sources = append(dive.sources, domain.Evidence{
		Type:        "directory_listing",
		Status:      "checked",
		CollectedAt: time.Now().UTC(),
	})
	return details
}

func (uc *DeepDiveUseCase) crawlSite(ctx context.Context, c *domain.Candidate, dive *diveResult) {
	target := dive.website
	if target == "" {
		target = c.Website
	}
	if target == "" {
		return
	}

	content, err := uc.crawler.Crawl(ctx, target)
	if err != nil {
		dive.sources = append(dive.sources, domain.Evidence{
			Type:        "official",
			URL:         target,
			Status:      "failed",
			CollectedAt: time.Now().UTC(),
		})
		return
	}

	dive.menus = append(dive.menus, content.Menus...)
	dive.features = domain.OverlayFeatures(dive.features, content.Features)
	dive.images = append(dive.images, content.Images...)
	dive.text = content.Text
	dive.website = content.URL
	if content.Phone != "" && dive.phone == "" {
		dive.phone = content.Phone
	}
	if content.Instagram != "" {
		dive.instagram = content.Instagram
	}

	status := "checked"
	if len(content.Menus) == 0 {
		status = "no_menus"
	}
	dive.sources = append(dive.sources, domain.Evidence{
		Type:        "official",
		URL:         content.URL,
		Status:      status,
		Data:        map[string]any{"pages_fetched": content.PagesFetched},
		CollectedAt: time.Now().UTC(),
	})
}

// extendWithAI runs the model extractors only when rule extraction came
// up sparse. Extractor errors leave the rule results untouched but every
// consulted source still leaves an evidence entry.
func (uc *DeepDiveUseCase) extendWithAI(ctx context.Context, dive *diveResult) {
	if len(dive.menus) >= sparseMenuThreshold {
		return
	}

	if dive.text != "" {
		items, err := uc.extractor.ExtractFromText(ctx, dive.text)
		dive.sources = append(dive.sources, domain.Evidence{
			Type:        "ai_text_extraction",
			Status:      extractionStatus(len(items), err),
			CollectedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Warn("ai_text_extraction_failed", "website", dive.website, "error", err)
		} else if len(items) > 0 {
			dive.menus = pipeline.MergeMenus(dive.menus, items)
		}
	}

	if len(dive.menus) >= sparseMenuThreshold {
		return
	}
	for i, img := range dive.images {
		if i >= uc.maxVisionImages {
			break
		}
		items, err := uc.extractor.ExtractFromImage(ctx, img)
		dive.sources = append(dive.sources, domain.Evidence{
			Type:        "ai_vision_extraction",
			URL:         img,
			Status:      extractionStatus(len(items), err),
			CollectedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Warn("ai_vision_extraction_failed", "image", img, "error", err)
			continue
		}
		if len(items) == 0 {
			continue
		}
		dive.menus = pipeline.MergeMenus(dive.menus, items)
	}
}

func extractionStatus(itemCount int, err error) string {
	switch {
	case err != nil:
		return "failed"
	case itemCount == 0:
		return "no_menus"
	default:
		return "checked"
	}
}

// analyzeMenus runs the safety parser over every extracted item and folds
// its claims into the item.
func (uc *DeepDiveUseCase) analyzeMenus(dive *diveResult) {
	for i := range dive.menus {
		item := &dive.menus[i]
		analysis := safety.AnalyzeMenu(item.Name, item.Description, "")
		item.SafeFrom = unionStrings(item.SafeFrom, analysis.SafeFrom)
		item.Removable = unionStrings(item.Removable, analysis.Removable)
		item.Allergens = unionStrings(item.Allergens, analysis.Contains)
		item.ContaminationRisk = item.ContaminationRisk || analysis.ContaminationRisk
		if analysis.Confidence > item.SafetyConfidence {
			item.SafetyConfidence = analysis.Confidence
		}
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := a
	for _, s := range a {
		seen[s] = true
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
