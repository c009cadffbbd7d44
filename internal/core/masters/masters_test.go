package masters

import (
	"sort"
	"testing"
)

func TestMatchCategoriesWheatSynonyms(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"グルテンフリーのパンケーキ", "wheat"},
		{"小麦不使用のうどんあります", "wheat"},
		{"豆乳クリームのケーキ", "dairy"},
		{"卵フリー プリン", "egg"},
		{"Vegan plant-based cafe", "vegan"},
	}
	for _, tc := range cases {
		got := MatchCategories(tc.text)
		if !contains(got, tc.want) {
			t.Errorf("MatchCategories(%q) = %v, want to include %q", tc.text, got, tc.want)
		}
	}
}

// Category matching is containment only: a wheat synonym inside a
// negated-usage phrase still yields the wheat category. That is the
// documented contract; the match is a signal, not a safety verdict.
func TestMatchCategoriesIsSignalOnly(t *testing.T) {
	got := MatchCategories("このパンは小麦粉不使用です")
	if !contains(got, "wheat") {
		t.Fatalf("MatchCategories = %v, want wheat despite negated usage", got)
	}
}

func TestMatchCategoriesCaseInsensitive(t *testing.T) {
	got := MatchCategories("GLUTEN-FREE pizza and NUT FREE cookies")
	if !contains(got, "wheat") || !contains(got, "peanut") {
		t.Fatalf("MatchCategories = %v, want wheat and peanut", got)
	}
}

func TestMatchCategoriesEmpty(t *testing.T) {
	if got := MatchCategories(""); got != nil {
		t.Fatalf("MatchCategories(\"\") = %v, want nil", got)
	}
	if got := MatchCategories("ただの白ごはん定食"); len(got) != 0 {
		t.Fatalf("MatchCategories = %v, want empty", got)
	}
}

func TestHasSafetySignal(t *testing.T) {
	if !HasSafetySignal("特定原材料7品目を表示しています") {
		t.Fatal("expected safety signal for 特定原材料")
	}
	if !HasSafetySignal("コンタミネーションに配慮") {
		t.Fatal("expected safety signal for コンタミネーション")
	}
	if HasSafetySignal("美味しいラーメンの店") {
		t.Fatal("unexpected safety signal")
	}
	if HasSafetySignal("") {
		t.Fatal("unexpected safety signal for empty text")
	}
}

func TestParadoxRowsOrderedByValue(t *testing.T) {
	rows := ParadoxRows()
	if len(rows) == 0 {
		t.Fatal("paradox matrix is empty")
	}
	if !sort.SliceIsSorted(rows, func(i, j int) bool {
		return rows[i].ValueScore > rows[j].ValueScore
	}) {
		t.Fatal("paradox rows are not ordered by value score descending")
	}
	for _, row := range rows {
		if row.FoodItem == "" || row.Allergen == "" || len(row.SearchTerms) == 0 {
			t.Fatalf("incomplete paradox row: %+v", row)
		}
	}
}

func TestAllSynonymsDeduplicated(t *testing.T) {
	all := AllSynonyms()
	seen := make(map[string]int)
	for _, s := range all {
		seen[s]++
		if seen[s] > 1 {
			t.Fatalf("synonym %q appears more than once", s)
		}
	}
}

func TestClassifyMenu(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"醤油ラーメン", "ラーメン"},
		{"米粉パン各種", "パン"},
		{"十割そば", "そば"},
		{"Margherita Pizza", "ピザ"},
	}
	for _, tc := range cases {
		cat := ClassifyMenu(tc.name)
		if cat == nil || cat.Name != tc.want {
			t.Errorf("ClassifyMenu(%q) = %v, want %q", tc.name, cat, tc.want)
		}
	}
	if cat := ClassifyMenu("日替わり定食"); cat != nil {
		t.Errorf("ClassifyMenu(日替わり定食) = %v, want nil", cat)
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
