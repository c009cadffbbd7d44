// Package safety performs context-aware allergen analysis of menu text.
// A bare keyword hit is not a verdict: each allergen mention is judged
// against the surrounding text for safe / removable / contains /
// contamination phrasing before any claim is recorded.
package safety

import (
	"regexp"
	"strings"
)

// Tracked allergen terms and the category each one rolls up to. Several
// terms share a category (crab and shrimp are both shellfish).
var allergenTerms = []struct {
	category string
	term     string
	aliases  []string
}{
	{"wheat", "小麦", []string{"グルテン", "wheat", "gluten", "麦"}},
	{"egg", "卵", []string{"エッグ", "egg", "eggs", "たまご", "玉子"}},
	{"dairy", "乳", []string{"ミルク", "milk", "dairy", "乳製品", "チーズ", "バター", "クリーム", "cheese", "butter", "cream"}},
	{"buckwheat", "そば", []string{"蕎麦", "soba", "buckwheat"}},
	{"peanut", "落花生", []string{"ピーナッツ", "peanut", "peanuts"}},
	{"shellfish", "えび", []string{"海老", "shrimp", "prawn", "ebi", "lobster"}},
	{"shellfish", "かに", []string{"蟹", "crab", "kani"}},
	{"peanut", "くるみ", []string{"クルミ", "胡桃", "walnut", "walnuts"}},
	{"peanut", "ナッツ", []string{"nut", "nuts", "アーモンド", "カシュー", "マカダミア", "ピスタチオ", "ヘーゼル", "almond", "cashew", "macadamia", "pistachio", "hazelnut", "pecan"}},
}

var (
	contaminationPatterns = compileAll(
		`同一(の)?工場`,
		`同一(の)?ライン`,
		`製造ライン`,
		`コンタミ`,
		`混入の可能性`,
		`完全には除去できません`,
		`微量.*含`,
		`調理器具.*共有`,
		`揚げ油.*共有`,
	)
	removablePatterns = compileAll(
		`除去(対応)?(可|できます|いたします)`,
		`抜き(対応)?(可|できます|いたします)`,
		`(?i)(卵|小麦|乳|ナッツ)なしで(も)?(対応|可|OK)`,
		`ご相談ください`,
		`リクエスト(対応|可)`,
		`アレルギー対応(可|できます)`,
	)
	safePatterns = compileAll(
		`不使用`,
		`使用していません`,
		`使っていません`,
		`フリー$`,
		`(?i)Free$`,
		`含まれていません`,
		`入っていません`,
	)
	warningPatterns = compileAll(
		`使用しています`,
		`含まれています`,
		`入っています`,
		`原材料に含む`,
	)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Analysis is the structured result of a safety parse. Category names
// follow the masters vocabulary (wheat, egg, dairy, ...).
type Analysis struct {
	SafeFrom          []string
	Contains          []string
	Removable         []string
	ContaminationRisk bool
	Warnings          []string
	Confidence        int
}

const contextWindow = 50

// Parse scans text for every tracked allergen and classifies each mention
// by its surrounding context. A contamination phrase anywhere suppresses
// "safe" claims for the whole text. Removable takes precedence over safe,
// safe over contains.
func Parse(text string) Analysis {
	var result Analysis
	if strings.TrimSpace(text) == "" {
		return result
	}

	for _, p := range contaminationPatterns {
		if loc := p.FindString(text); loc != "" {
			result.ContaminationRisk = true
			result.Warnings = append(result.Warnings, "コンタミリスク検出: "+loc)
			break
		}
	}

	runes := []rune(text)
	type verdict struct{ safe, removable, contained bool }
	verdicts := make(map[string]*verdict)

	for _, entry := range allergenTerms {
		indices := occurrences(runes, entry.term, entry.aliases)
		if len(indices) == 0 {
			continue
		}
		v := verdicts[entry.category]
		if v == nil {
			v = &verdict{}
			verdicts[entry.category] = v
		}
		for _, occ := range indices {
			window := contextAround(runes, occ.start, occ.length)
			if matchAny(safePatterns, window) {
				v.safe = true
			}
			if matchAny(removablePatterns, window) {
				v.removable = true
			}
			if matchAny(warningPatterns, window) {
				v.contained = true
			}
		}
	}

	// Stable output order: walk the term table, emit each category once.
	emitted := make(map[string]bool)
	for _, entry := range allergenTerms {
		v := verdicts[entry.category]
		if v == nil || emitted[entry.category] {
			continue
		}
		emitted[entry.category] = true

		switch {
		case v.removable:
			result.Removable = append(result.Removable, entry.category)
			result.Confidence += 15
		case v.safe && !result.ContaminationRisk:
			result.SafeFrom = append(result.SafeFrom, entry.category)
			result.Confidence += 20
		case v.contained:
			result.Contains = append(result.Contains, entry.category)
			result.Confidence += 10
		}
	}

	if result.Confidence > 100 {
		result.Confidence = 100
	}
	return result
}

// AnalyzeMenu is the pipeline entry point: it parses the concatenated name,
// description and any extra text of a menu item.
func AnalyzeMenu(name, description, extra string) Analysis {
	return Parse(strings.TrimSpace(name + " " + description + " " + extra))
}

// Sufficient reports whether an analysis carries enough information to
// back a safety claim.
func Sufficient(a Analysis) bool {
	hasAnyData := len(a.Contains) > 0 || len(a.Removable) > 0 || len(a.SafeFrom) > 0
	return hasAnyData && a.Confidence >= 20
}

type occurrence struct {
	start  int
	length int
}

// occurrences finds every rune offset of the term or one of its aliases.
func occurrences(runes []rune, term string, aliases []string) []occurrence {
	var out []occurrence
	terms := append([]string{term}, aliases...)
	lowerRunes := []rune(strings.ToLower(string(runes)))
	for _, t := range terms {
		termRunes := []rune(strings.ToLower(t))
		if len(termRunes) == 0 {
			continue
		}
		for i := 0; i+len(termRunes) <= len(lowerRunes); i++ {
			if runesEqual(lowerRunes[i:i+len(termRunes)], termRunes) {
				out = append(out, occurrence{start: i, length: len(termRunes)})
			}
		}
	}
	return out
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contextAround(runes []rune, start, length int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := start + length + contextWindow
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
