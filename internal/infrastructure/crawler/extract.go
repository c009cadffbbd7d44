package crawler

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

const maxRuleBasedItems = 20

// Garbage terms that disqualify a text block or alt text from being a
// menu item, no matter what else it contains.
var blocklist = regexp.MustCompile(`(?i)logo|icon|btn|button|arrow|banner|map|spacer|link|tel|mail|line|instagram|facebook|twitter|nav|menu|hero|slide|bg|shadow|影|様子|袋|注が|温め|問合|登録|詳細|クリック|タップ|ページ|戻る|次へ|ホーム|会社|概要|ポリシー|規約|特定商取引|Copyright|All Rights|This is|Image|view|scene|interior|exterior`)

var (
	pricePattern       = regexp.MustCompile(`[¥￥]?\s*(\d{1,3}(?:,\d{3})*|\d+)\s*円?`)
	enumerationMarker  = regexp.MustCompile(`^[\W\d]+\.`)
	headerTitlePattern = regexp.MustCompile(`(?i)Menu|メニュー|商品|お品書き`)
	headerNoisePattern = regexp.MustCompile(`注意|別途|税|円`)
)

var blockTags = map[string]bool{
	"li": true, "div": true, "p": true, "td": true, "dt": true, "dd": true,
}

// extractMenusRuleBased scans price-bearing text blocks for menu items.
// When that finds nothing it falls back to menu-section headers, then to
// image alt text.
func extractMenusRuleBased(root *html.Node, baseURL string) []domain.MenuItem {
	var menus []domain.MenuItem
	seen := make(map[string]bool)

	walk(root, func(n *html.Node) bool {
		if len(menus) >= maxRuleBasedItems {
			return false
		}
		if n.Type != html.ElementNode || !blockTags[n.Data] {
			return true
		}
		text := strings.Join(strings.Fields(nodeText(n)), " ")
		length := len([]rune(text))
		if length < 3 || length > 200 {
			return true
		}

		match := pricePattern.FindStringSubmatch(text)
		if match == nil || (!strings.Contains(text, "円") && !strings.ContainsAny(text, "¥￥")) {
			return true
		}

		name := strings.TrimSpace(strings.Replace(text, match[0], "", 1))
		name = strings.TrimSpace(enumerationMarker.ReplaceAllString(name, ""))
		if len([]rune(name)) <= 2 || seen[name] || blocklist.MatchString(name) {
			return true
		}

		price, _ := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
		inference := inferAllergens(name + " " + text)
		menus = append(menus, domain.MenuItem{
			Name:        name,
			Price:       price,
			Description: "自動抽出: " + inference.reason,
			Allergens:   inference.contained,
			SafeFrom:    inference.safeFrom,
		})
		seen[name] = true
		return true
	})

	if len(menus) == 0 {
		menus = extractFromMenuHeaders(root, seen)
	}
	if len(menus) == 0 {
		menus = extractFromAltText(root, baseURL, seen)
	}
	if len(menus) > maxRuleBasedItems {
		menus = menus[:maxRuleBasedItems]
	}
	return menus
}

// extractFromMenuHeaders looks for a menu section heading and treats the
// few blocks after it as item candidates.
func extractFromMenuHeaders(root *html.Node, seen map[string]bool) []domain.MenuItem {
	var menus []domain.MenuItem
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		if n.Data != "h2" && n.Data != "h3" && n.Data != "h4" {
			return true
		}
		if !headerTitlePattern.MatchString(nodeText(n)) {
			return true
		}

		taken := 0
		for sib := n.NextSibling; sib != nil && taken < 5; sib = sib.NextSibling {
			if sib.Type != html.ElementNode {
				continue
			}
			switch sib.Data {
			case "p", "ul", "div", "table":
			default:
				continue
			}
			taken++

			text := strings.TrimSpace(nodeText(sib))
			length := len([]rune(text))
			if length <= 3 || length >= 40 || seen[text] {
				continue
			}
			if blocklist.MatchString(text) || headerNoisePattern.MatchString(text) {
				continue
			}

			inference := inferAllergens(text)
			menus = append(menus, domain.MenuItem{
				Name:        text,
				Description: "メニュー候補(見出し): " + inference.reason,
				Allergens:   inference.contained,
				SafeFrom:    inference.safeFrom,
			})
			seen[text] = true
		}
		return true
	})
	return menus
}

// extractFromAltText is the last resort: image alt text as item names.
// An unresolvable image URL drops the image reference, never the name.
func extractFromAltText(root *html.Node, baseURL string, seen map[string]bool) []domain.MenuItem {
	var menus []domain.MenuItem
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "img" {
			return true
		}
		alt := attr(n, "alt")
		length := len([]rune(alt))
		if length <= 3 || length >= 50 {
			return true
		}
		if seen[alt] || blocklist.MatchString(alt) {
			return true
		}

		inference := inferAllergens(alt)
		item := domain.MenuItem{
			Name:        alt,
			Description: "画像情報: " + inference.reason,
			Allergens:   inference.contained,
			SafeFrom:    inference.safeFrom,
		}
		if resolved := resolveURL(baseURL, attr(n, "src")); resolved != "" {
			item.Images = []string{resolved}
		}
		menus = append(menus, item)
		seen[alt] = true
		return true
	})
	return menus
}

// resolveURL makes an image or link reference absolute. Absolute and
// data: references pass through unchanged; anything unresolvable comes
// back empty.
func resolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	baseParsed, err := url.Parse(base)
	if err != nil {
		return ""
	}
	refParsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return baseParsed.ResolveReference(refParsed).String()
}

var subImageNoise = regexp.MustCompile(`(?i)icon|logo|tracker|pixel|spacer|button|banner`)

// harvestImages collects promising image URLs. Likely menu shots go to
// the front of the list so the vision extractor sees them first.
func harvestImages(root *html.Node, baseURL string, existing []string, limit int) []string {
	out := existing
	seen := make(map[string]bool, len(existing))
	for _, u := range existing {
		seen[u] = true
	}

	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "img" {
			return true
		}
		src := attr(n, "src")
		if src == "" || strings.HasSuffix(src, ".svg") || subImageNoise.MatchString(src) {
			return true
		}
		resolved := resolveURL(baseURL, src)
		if resolved == "" || seen[resolved] {
			return true
		}

		alt := strings.ToLower(attr(n, "alt"))
		lowerSrc := strings.ToLower(src)
		likelyMenu := strings.Contains(lowerSrc, "menu") || strings.Contains(lowerSrc, "food") ||
			strings.Contains(alt, "メニュー") || strings.Contains(alt, "料理") || strings.Contains(alt, "アレルギー")

		if likelyMenu {
			out = append([]string{resolved}, out...)
			seen[resolved] = true
			return true
		}
		if len(out) < limit {
			out = append(out, resolved)
			seen[resolved] = true
		}
		return true
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

var menuLinkText = regexp.MustCompile(`(?i)menu|メニュー|アレルギー`)

// menuLinks returns up to limit unique absolute URLs of links whose text
// suggests a menu page.
func menuLinks(root *html.Node, baseURL string, limit int) []string {
	var out []string
	seen := make(map[string]bool)
	walk(root, func(n *html.Node) bool {
		if len(out) >= limit {
			return false
		}
		if n.Type != html.ElementNode || n.Data != "a" {
			return true
		}
		href := attr(n, "href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasSuffix(href, ".pdf") {
			return true
		}
		if !menuLinkText.MatchString(nodeText(n)) {
			return true
		}
		resolved := resolveURL(baseURL, href)
		if resolved == "" || resolved == baseURL || seen[resolved] {
			return true
		}
		seen[resolved] = true
		out = append(out, resolved)
		return true
	})
	return out
}

// walk visits every node depth-first; returning false from fn skips the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteString(" ")
		}
		return true
	})
	return strings.TrimSpace(sb.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
