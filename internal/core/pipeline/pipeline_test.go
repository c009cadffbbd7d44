package pipeline

import (
	"testing"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

func TestDeduplicateByPlaceID(t *testing.T) {
	batch := []domain.Candidate{
		{
			PlaceID: "ChIJabc123",
			Name:    "Gluten Free Kitchen",
			Menus:   []domain.MenuItem{{Name: "米粉パンケーキ", Price: 900}},
			Sources: []domain.Evidence{{Type: "directory_listing"}},
		},
		{
			PlaceID: "ChIJabc123",
			Name:    "GLUTEN FREE KITCHEN",
			Menus:   []domain.MenuItem{{Name: "豆乳グラタン", Price: 1200}},
			Sources: []domain.Evidence{{Type: "blog"}},
		},
	}

	out := DeduplicateAndMerge(batch)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1", len(out))
	}
	// No name/description pair clears the similarity threshold, so the
	// merged menu list is the union of both.
	if len(out[0].Menus) != 2 {
		t.Errorf("got %d menus, want 2", len(out[0].Menus))
	}
	if len(out[0].Sources) != 2 {
		t.Errorf("got %d sources, want 2 (append-only)", len(out[0].Sources))
	}
}

func TestDeduplicateFuzzyNameAddress(t *testing.T) {
	batch := []domain.Candidate{
		{Name: "カフェ・アンシン（本店）", Address: "東京都渋谷区神南1-2-3"},
		{Name: "カフェ・アンシン", Address: "東京都渋谷区神南1-2-3"},
	}

	out := DeduplicateAndMerge(batch)

	if len(out) != 1 {
		t.Fatalf("got %d candidates, want 1 (parenthetical stripped by normalization)", len(out))
	}
}

func TestDeduplicateKeepsDistinctBusinesses(t *testing.T) {
	batch := []domain.Candidate{
		{Name: "カフェ・アンシン", Address: "東京都渋谷区神南1-2-3"},
		{Name: "ラーメン一番", Address: "東京都新宿区西新宿4-5-6"},
	}

	out := DeduplicateAndMerge(batch)

	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
}

func TestMergeIntoOverlaysFeatures(t *testing.T) {
	dst := domain.Candidate{
		Features: map[string]domain.FeatureValue{
			domain.FeatureParking:    domain.FeaturePresent,
			domain.FeatureCreditCard: domain.FeatureUnknown,
		},
	}
	src := domain.Candidate{
		Features: map[string]domain.FeatureValue{
			domain.FeatureCreditCard: domain.FeaturePresent,
		},
	}

	MergeInto(&dst, src)

	if dst.Features[domain.FeatureParking] != domain.FeaturePresent {
		t.Error("unrelated feature key lost")
	}
	if dst.Features[domain.FeatureCreditCard] != domain.FeaturePresent {
		t.Error("incoming feature key should win")
	}
}

func TestMergeMenusFoldsDuplicates(t *testing.T) {
	existing := []domain.MenuItem{
		{Name: "米粉パンケーキ", Price: 900, Images: []string{"a.jpg"}},
	}
	incoming := []domain.MenuItem{
		{Name: "米粉パンケーキ", Price: 850, Images: []string{"b.jpg"}},
		{Name: "豆乳グラタン", Price: 1200},
	}

	out := MergeMenus(existing, incoming)

	if len(out) != 2 {
		t.Fatalf("got %d items, want 2", len(out))
	}
	if out[0].Price != 850 {
		t.Errorf("merged price = %d, want min 850", out[0].Price)
	}
	if len(out[0].Images) != 2 {
		t.Errorf("merged images = %v, want union of both", out[0].Images)
	}
}

func TestReliabilityScoreMonotonic(t *testing.T) {
	c := domain.Candidate{
		Sources: []domain.Evidence{{Type: "blog"}},
	}
	before := ReliabilityScore(c)

	c.Sources = append(c.Sources, domain.Evidence{Type: "official"})
	after := ReliabilityScore(c)

	if after < before {
		t.Fatalf("score dropped from %d to %d after adding a distinct-type source", before, after)
	}

	// Even an unknown type must never lower the score.
	c.Sources = append(c.Sources, domain.Evidence{Type: "somewhere_new"})
	if final := ReliabilityScore(c); final < after {
		t.Fatalf("score dropped from %d to %d after adding unknown-type source", after, final)
	}
}

func TestReliabilityScoreCappedAt100(t *testing.T) {
	c := domain.Candidate{
		Sources: []domain.Evidence{
			{Type: "official"}, {Type: "municipality"}, {Type: "reservation"},
			{Type: "blog"}, {Type: "sns"},
		},
		Menus: []domain.MenuItem{
			{Name: "a", Images: []string{"x.jpg"}}, {Name: "b"}, {Name: "c"},
			{Name: "d"}, {Name: "e"}, {Name: "f"}, {Name: "g"},
		},
		Signals: []domain.Signal{{Type: "safety", Keyword: "アレルギー対応"}},
	}

	if got := ReliabilityScore(c); got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
}

func TestReliabilityScoreSafetySignalBonus(t *testing.T) {
	base := domain.Candidate{Sources: []domain.Evidence{{Type: "blog"}}}
	withSignal := base
	withSignal.Signals = []domain.Signal{{Type: "keyword", Keyword: "グルテンフリー"}}

	if ReliabilityScore(withSignal) <= ReliabilityScore(base) {
		t.Fatal("safety signal should raise the score")
	}
}

func TestMenuValueScoreSubstitutionBeatsNatural(t *testing.T) {
	substitution := domain.MenuItem{Name: "米粉パン", SafeFrom: []string{"wheat"}}
	natural := domain.MenuItem{Name: "十割そば", SafeFrom: []string{"wheat"}}

	sub := MenuValueScore(substitution)
	nat := MenuValueScore(natural)

	if nat != 10 {
		t.Errorf("juwari soba score = %d, want 10 (naturally wheat-free)", nat)
	}
	if sub <= nat {
		t.Errorf("substitution score %d should beat natural score %d", sub, nat)
	}
}

func TestMenuValueScoreNaturallyFreeCategory(t *testing.T) {
	if got := MenuValueScore(domain.MenuItem{Name: "サーロインステーキ", SafeFrom: []string{"wheat"}}); got != 10 {
		t.Errorf("steak score = %d, want 10", got)
	}
}

func TestMenuValueScoreUnmappedInnovation(t *testing.T) {
	if got := MenuValueScore(domain.MenuItem{Name: "グルテンフリー御膳"}); got != 80 {
		t.Errorf("unmapped innovation score = %d, want 80", got)
	}
}

func TestMenuValueScoreRareAllergen(t *testing.T) {
	// Egg is listed as rare for ramen; removing it is worth less than
	// removing the wheat the noodles are made of.
	rare := MenuValueScore(domain.MenuItem{Name: "醤油ラーメン", SafeFrom: []string{"egg"}})
	usual := MenuValueScore(domain.MenuItem{Name: "醤油ラーメン", SafeFrom: []string{"wheat"}})

	if rare >= usual {
		t.Errorf("rare-allergen score %d should be below usual-allergen score %d", rare, usual)
	}
}
