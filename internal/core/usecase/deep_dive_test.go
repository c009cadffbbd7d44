package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

type diveRepoFake struct {
	stored   *domain.Candidate
	updated  *domain.Candidate
	appended []domain.Evidence
}

func (f *diveRepoFake) GetByID(_ context.Context, id string) (*domain.Candidate, error) {
	if f.stored == nil || f.stored.ID != id {
		return nil, domain.WrapError(domain.ErrNotFound, "find candidate", errors.New("no row"))
	}
	copyC := *f.stored
	return &copyC, nil
}

func (f *diveRepoFake) Update(_ context.Context, c *domain.Candidate) error {
	copyC := *c
	f.updated = &copyC
	return nil
}

func (f *diveRepoFake) Create(context.Context, *domain.Candidate) error {
	return errors.New("not implemented")
}

func (f *diveRepoFake) FindByPlaceID(context.Context, string) (*domain.Candidate, error) {
	return nil, errors.New("not implemented")
}

func (f *diveRepoFake) FindByNameAddress(context.Context, string, string) (*domain.Candidate, error) {
	return nil, errors.New("not implemented")
}

func (f *diveRepoFake) AppendSource(_ context.Context, _ string, src domain.Evidence) error {
	f.appended = append(f.appended, src)
	return nil
}

func (f *diveRepoFake) ListByStatus(context.Context, domain.CandidateStatus, int, int) ([]domain.Candidate, error) {
	return nil, errors.New("not implemented")
}

type diveSearcherFake struct {
	placeID string
}

func (f *diveSearcherFake) SearchText(context.Context, string, int, *domain.GeoBias) ([]domain.PlaceResult, error) {
	if f.placeID == "" {
		return nil, nil
	}
	return []domain.PlaceResult{{PlaceID: f.placeID}}, nil
}

type diveDetailerFake struct {
	details *domain.PlaceDetails
	err     error
}

func (f *diveDetailerFake) Details(context.Context, string) (*domain.PlaceDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

type diveCrawlerFake struct {
	content *domain.SiteContent
	err     error
	crawled string
}

func (f *diveCrawlerFake) Crawl(_ context.Context, url string) (*domain.SiteContent, error) {
	f.crawled = url
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

type diveExtractorFake struct {
	textItems  []domain.MenuItem
	imageItems []domain.MenuItem
	textErr    error
	imageErr   error
	textCalls  int
	imageCalls int
}

func (f *diveExtractorFake) ExtractFromText(context.Context, string) ([]domain.MenuItem, error) {
	f.textCalls++
	return f.textItems, f.textErr
}

func (f *diveExtractorFake) ExtractFromImage(context.Context, string) ([]domain.MenuItem, error) {
	f.imageCalls++
	return f.imageItems, f.imageErr
}

func boolPtr(v bool) *bool { return &v }

func TestDeepDiveMergesCrawlResults(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{
		ID:      "c1",
		PlaceID: "p1",
		Name:    "米粉カフェ",
		Website: "https://komeko.example",
		Menus:   []domain.MenuItem{{Name: "既存メニュー", Price: 500}},
		Sources: []domain.Evidence{{Type: "directory_listing"}},
	}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{
		URL:  "https://komeko.example",
		Text: "page text",
		Menus: []domain.MenuItem{
			{Name: "米粉パンケーキ", Price: 900, Description: "小麦不使用のパンケーキです"},
			{Name: "豆乳グラタン", Price: 1200},
		},
		Phone:     "092-111-2222",
		Instagram: "https://instagram.com/komeko",
		Features:  map[string]domain.FeatureValue{domain.FeatureRemoval: domain.FeaturePresent},
	}}
	detailer := &diveDetailerFake{details: &domain.PlaceDetails{
		PlaceID:            "p1",
		AcceptsCreditCards: boolPtr(true),
	}}
	extractor := &diveExtractorFake{}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, detailer, crawler, extractor)

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v", err)
	}

	got := repo.updated
	if got == nil {
		t.Fatal("candidate not persisted")
	}
	if len(got.Menus) != 3 {
		t.Fatalf("menus = %d, want existing + 2 crawled", len(got.Menus))
	}
	if got.Phone != "092-111-2222" || got.Instagram == "" {
		t.Errorf("contact fields not filled: phone=%q instagram=%q", got.Phone, got.Instagram)
	}
	if got.Features[domain.FeatureRemoval] != domain.FeaturePresent {
		t.Error("crawl feature lost in merge")
	}
	if got.Features[domain.FeatureCreditCard] != domain.FeaturePresent {
		t.Error("directory feature lost in merge")
	}
	if len(got.Sources) < 3 {
		t.Errorf("sources = %d, want original + directory + official evidence", len(got.Sources))
	}
	if got.ReliabilityScore == 0 {
		t.Error("reliability score not recomputed")
	}
	// Rule extraction found enough, the model stays idle.
	if extractor.textCalls != 0 || extractor.imageCalls != 0 {
		t.Error("AI extractor called despite sufficient rule results")
	}
}

func TestDeepDiveSafetyAnalysisOnMenus(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{
		ID:      "c1",
		Website: "https://example.com",
	}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{
		URL: "https://example.com",
		Menus: []domain.MenuItem{
			{Name: "パンケーキ", Description: "小麦・卵不使用です"},
			{Name: "パスタ", Description: "小麦を使用しています"},
		},
	}}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, &diveDetailerFake{err: errors.New("no key")}, crawler, &diveExtractorFake{})

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v", err)
	}

	var pancake, pasta *domain.MenuItem
	for i := range repo.updated.Menus {
		switch repo.updated.Menus[i].Name {
		case "パンケーキ":
			pancake = &repo.updated.Menus[i]
		case "パスタ":
			pasta = &repo.updated.Menus[i]
		}
	}
	if pancake == nil || pasta == nil {
		t.Fatalf("menus missing after merge: %+v", repo.updated.Menus)
	}
	if len(pancake.SafeFrom) == 0 {
		t.Errorf("pancake SafeFrom empty, want wheat/egg claims")
	}
	if len(pasta.Allergens) == 0 {
		t.Errorf("pasta Allergens empty, want wheat")
	}
}

func TestDeepDiveAIFallbackWhenSparse(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{ID: "c1", Website: "https://example.com"}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{
		URL:    "https://example.com",
		Text:   "手作りの米粉スイーツのお店です",
		Images: []string{"https://example.com/menu.jpg"},
	}}
	extractor := &diveExtractorFake{
		textItems: []domain.MenuItem{{Name: "米粉シフォンケーキ", Price: 600}},
	}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, &diveDetailerFake{}, crawler, extractor)

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v", err)
	}

	if extractor.textCalls != 1 {
		t.Fatalf("text extractor calls = %d, want 1", extractor.textCalls)
	}
	if len(repo.updated.Menus) != 1 || repo.updated.Menus[0].Name != "米粉シフォンケーキ" {
		t.Errorf("AI menus not merged: %+v", repo.updated.Menus)
	}
	// Still below the threshold after text extraction, so vision runs too.
	if extractor.imageCalls != 1 {
		t.Errorf("image extractor calls = %d, want 1", extractor.imageCalls)
	}
}

func TestDeepDiveRecoversPlaceID(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{ID: "c1", Name: "米粉カフェ", Address: "福岡市"}}
	detailer := &diveDetailerFake{details: &domain.PlaceDetails{PlaceID: "recovered", Website: "https://found.example"}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{URL: "https://found.example"}}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{placeID: "recovered"}, detailer, crawler, &diveExtractorFake{})

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v", err)
	}

	if repo.updated.PlaceID != "recovered" {
		t.Errorf("place id = %q, want recovered", repo.updated.PlaceID)
	}
	if crawler.crawled != "https://found.example" {
		t.Errorf("crawled %q, want website from directory details", crawler.crawled)
	}
}

func TestDeepDiveUnknownCandidate(t *testing.T) {
	uc := NewDeepDiveUseCase(&diveRepoFake{}, &diveSearcherFake{}, &diveDetailerFake{}, &diveCrawlerFake{}, &diveExtractorFake{})

	err := uc.DeepDive(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want not-found kind", err)
	}
}

func TestDeepDiveCrawlFailureStillPersists(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{ID: "c1", Website: "https://down.example"}}
	crawler := &diveCrawlerFake{err: errors.New("timeout")}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, &diveDetailerFake{}, crawler, &diveExtractorFake{})

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v, crawl failure should degrade not abort", err)
	}

	var failedEvidence bool
	for _, s := range repo.updated.Sources {
		if s.Type == "official" && s.Status == "failed" {
			failedEvidence = true
		}
	}
	if !failedEvidence {
		t.Error("failed crawl not recorded as evidence")
	}
}

func TestDeepDiveVisionImageCap(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{ID: "c1", Website: "https://cafe.example"}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{
		URL:  "https://cafe.example",
		Text: "本日のメニューは写真をご覧ください",
		Images: []string{
			"https://cafe.example/a.jpg",
			"https://cafe.example/b.jpg",
			"https://cafe.example/c.jpg",
			"https://cafe.example/d.jpg",
		},
	}}
	extractor := &diveExtractorFake{}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, &diveDetailerFake{}, crawler, extractor).
		WithMaxVisionImages(2)

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v", err)
	}
	if extractor.textCalls != 1 {
		t.Errorf("text extractions = %d, want 1", extractor.textCalls)
	}
	if extractor.imageCalls != 2 {
		t.Errorf("vision extractions = %d, want 2", extractor.imageCalls)
	}
}

func TestDeepDiveRecordsFailedAIExtractions(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{ID: "c1", Website: "https://cafe.example"}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{
		URL:    "https://cafe.example",
		Text:   "本日のメニュー",
		Images: []string{"https://cafe.example/menu.jpg"},
	}}
	extractor := &diveExtractorFake{
		textErr:  errors.New("model overloaded"),
		imageErr: errors.New("model overloaded"),
	}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, &diveDetailerFake{}, crawler, extractor)

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v, extractor failure should degrade not abort", err)
	}

	statuses := map[string]string{}
	for _, s := range repo.updated.Sources {
		statuses[s.Type] = s.Status
	}
	if statuses["ai_text_extraction"] != "failed" {
		t.Errorf("ai_text_extraction status = %q, want failed", statuses["ai_text_extraction"])
	}
	if statuses["ai_vision_extraction"] != "failed" {
		t.Errorf("ai_vision_extraction status = %q, want failed", statuses["ai_vision_extraction"])
	}
}

func TestDeepDiveRecordsEmptyAIExtraction(t *testing.T) {
	repo := &diveRepoFake{stored: &domain.Candidate{ID: "c1", Website: "https://cafe.example"}}
	crawler := &diveCrawlerFake{content: &domain.SiteContent{
		URL:  "https://cafe.example",
		Text: "営業時間のご案内",
	}}
	uc := NewDeepDiveUseCase(repo, &diveSearcherFake{}, &diveDetailerFake{}, crawler, &diveExtractorFake{})

	if err := uc.DeepDive(context.Background(), "c1"); err != nil {
		t.Fatalf("DeepDive() error = %v", err)
	}

	var found bool
	for _, s := range repo.updated.Sources {
		if s.Type == "ai_text_extraction" && s.Status == "no_menus" {
			found = true
		}
	}
	if !found {
		t.Error("empty text extraction not recorded as no_menus evidence")
	}
}
