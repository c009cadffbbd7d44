package crawler

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

func parseHTML(t *testing.T, raw string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("parse test html: %v", err)
	}
	return root
}

func TestExtractMenusRuleBasedPriceBlocks(t *testing.T) {
	root := parseHTML(t, `<html><body><ul>
		<li>米粉パンケーキ ¥1,200</li>
		<li>豆乳ラテ 600円</li>
	</ul></body></html>`)

	menus := extractMenusRuleBased(root, "https://example.com/")
	if len(menus) != 2 {
		t.Fatalf("menus = %d, want 2", len(menus))
	}
	if menus[0].Name != "米粉パンケーキ" || menus[0].Price != 1200 {
		t.Errorf("first item = %q price %d, want 米粉パンケーキ 1200", menus[0].Name, menus[0].Price)
	}
	if !containsString(menus[0].SafeFrom, "wheat") {
		t.Errorf("米粉パンケーキ SafeFrom = %v, want wheat inferred", menus[0].SafeFrom)
	}
	if menus[1].Price != 600 {
		t.Errorf("second item price = %d, want 600", menus[1].Price)
	}
	if !containsString(menus[1].SafeFrom, "dairy") {
		t.Errorf("豆乳ラテ SafeFrom = %v, want dairy inferred", menus[1].SafeFrom)
	}
	if !strings.HasPrefix(menus[0].Description, "自動抽出: ") {
		t.Errorf("description = %q, want rule extraction label", menus[0].Description)
	}
}

func TestExtractMenusRuleBasedBlocklistWins(t *testing.T) {
	root := parseHTML(t, `<html><body>
		<li>詳細はクリック 500円</li>
		<li>ご登録はこちら 300円</li>
	</body></html>`)

	menus := extractMenusRuleBased(root, "https://example.com/")
	if len(menus) != 0 {
		t.Fatalf("menus = %v, want blocklisted blocks excluded despite prices", menus)
	}
}

func TestExtractMenusHeaderFallback(t *testing.T) {
	root := parseHTML(t, `<html><body>
		<h2>お品書き</h2>
		<p>十割そば</p>
		<p>税込表示になっております</p>
		<p>自家製豆乳プリン</p>
	</body></html>`)

	menus := extractMenusRuleBased(root, "https://example.com/")
	if len(menus) != 2 {
		t.Fatalf("menus = %d, want 2 header candidates", len(menus))
	}
	if menus[0].Name != "十割そば" {
		t.Errorf("first = %q, want 十割そば", menus[0].Name)
	}
	if !containsString(menus[0].SafeFrom, "wheat") {
		t.Errorf("十割そば SafeFrom = %v, want wheat", menus[0].SafeFrom)
	}
	if !strings.HasPrefix(menus[0].Description, "メニュー候補(見出し): ") {
		t.Errorf("description = %q, want header candidate label", menus[0].Description)
	}
}

func TestExtractMenusAltTextFallback(t *testing.T) {
	root := parseHTML(t, `<html><body>
		<img alt="米粉のシフォンケーキ" src="/img/cake.jpg">
		<img alt="グルテンフリーピザ" src="://bad-reference">
	</body></html>`)

	menus := extractMenusRuleBased(root, "https://example.com/menu")
	if len(menus) != 2 {
		t.Fatalf("menus = %d, want 2 alt-text candidates", len(menus))
	}
	if len(menus[0].Images) != 1 || menus[0].Images[0] != "https://example.com/img/cake.jpg" {
		t.Errorf("resolved images = %v, want absolute cake.jpg", menus[0].Images)
	}
	// A broken src loses the image reference, never the item itself.
	if menus[1].Name != "グルテンフリーピザ" {
		t.Errorf("second name = %q, want グルテンフリーピザ", menus[1].Name)
	}
	if len(menus[1].Images) != 0 {
		t.Errorf("second images = %v, want none", menus[1].Images)
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"https://example.com/menu", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"https://example.com/menu", "data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"https://example.com/shop/", "images/b.jpg", "https://example.com/shop/images/b.jpg"},
		{"https://example.com/", "://broken", ""},
		{"https://example.com/", "", ""},
	}
	for _, tc := range cases {
		if got := resolveURL(tc.base, tc.ref); got != tc.want {
			t.Errorf("resolveURL(%q, %q) = %q, want %q", tc.base, tc.ref, got, tc.want)
		}
	}
}

func TestInferAllergens(t *testing.T) {
	cases := []struct {
		text          string
		wantContained []string
		wantSafe      []string
	}{
		{"ふわふわパンケーキ", []string{"wheat"}, nil},
		{"米粉パン", nil, []string{"wheat"}},
		{"サクサクパン粉コロッケ", nil, nil},
		{"豆乳ラテ", nil, []string{"dairy"}},
		{"チーズオムレツ", []string{"dairy", "egg"}, nil},
		{"アーモンドクッキー", []string{"peanut"}, nil},
	}
	for _, tc := range cases {
		got := inferAllergens(tc.text)
		if !equalStrings(got.contained, tc.wantContained) {
			t.Errorf("inferAllergens(%q).contained = %v, want %v", tc.text, got.contained, tc.wantContained)
		}
		if !equalStrings(got.safeFrom, tc.wantSafe) {
			t.Errorf("inferAllergens(%q).safeFrom = %v, want %v", tc.text, got.safeFrom, tc.wantSafe)
		}
	}
}

func TestDetectFeaturesFromText(t *testing.T) {
	got := detectFeaturesFromText("当店はアレルギー成分表をご用意し、除去食にも対応しています。キッズメニューあり。")
	if got[domain.FeatureAllergenLabel] != domain.FeaturePresent {
		t.Errorf("allergen_label = %v, want present", got[domain.FeatureAllergenLabel])
	}
	if got[domain.FeatureRemoval] != domain.FeaturePresent {
		t.Errorf("removal = %v, want present", got[domain.FeatureRemoval])
	}
	if got[domain.FeatureKidsMenu] != domain.FeaturePresent {
		t.Errorf("kids_menu = %v, want present", got[domain.FeatureKidsMenu])
	}
}

func TestDetectFeaturesRemovalNegationLeavesKeyUnset(t *testing.T) {
	texts := []string{
		"アレルギー除去対応はできません",
		"除去食のご対応は難しい状況です",
		"除去については対応しておりません",
		"アレルゲンの除去対応はできません",
	}
	for _, text := range texts {
		got := detectFeaturesFromText(text)
		if v, ok := got[domain.FeatureRemoval]; ok {
			t.Errorf("removal for %q = %v, want key unset so other sources are not overwritten", text, v)
		}
	}
}

func TestDetectFeaturesEmptyText(t *testing.T) {
	if got := detectFeaturesFromText(""); len(got) != 0 {
		t.Errorf("features = %v, want none", got)
	}
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
