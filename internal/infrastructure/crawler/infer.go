package crawler

import (
	"regexp"
	"strings"
)

// Ingredient inference: deconstruct a menu name into base ingredients to
// guess what it contains and what it is free of. The guesses are labeled
// as inference in the item description so downstream consumers never
// mistake them for an official claim.
var (
	wheatPositive = regexp.MustCompile(`うどん|パン|パスタ|ラーメン|餃子|皮|小麦`)
	wheatNegation = regexp.MustCompile(`米粉|グルテンフリー|玄米|十割`)
	wheatFree     = regexp.MustCompile(`米粉|グルテンフリー|十割|ライス|ごはん|餅`)

	dairyPositive = regexp.MustCompile(`ミルク|チーズ|バター|クリーム|乳|ヨーグルト|ラテ`)
	dairyNegation = regexp.MustCompile(`豆乳|ソイ|アーモンド|ココナッツ|植物性|ヴィーガン|プラントベース`)
	dairyFree     = regexp.MustCompile(`豆乳|ソイ|植物性|ヴィーガン|プラントベース`)

	eggPositive = regexp.MustCompile(`卵|エッグ|マヨネーズ|オムレツ|親子丼|カスタード`)
	eggNegation = regexp.MustCompile(`植物性|ヴィーガン|プラントベース|卵不使用`)

	nutPositive = regexp.MustCompile(`アーモンド|ナッツ|カシュー|くるみ|ピーナッツ`)
)

type inference struct {
	contained []string
	safeFrom  []string
	reason    string
}

func inferAllergens(text string) inference {
	t := strings.ToLower(text)
	var out inference
	var reasons []string

	// パン粉 alone must not trigger the パン rule; RE2 has no lookahead,
	// so strip the compound before matching.
	wheatText := strings.ReplaceAll(t, "パン粉", "")
	if wheatPositive.MatchString(wheatText) && !wheatNegation.MatchString(t) {
		out.contained = append(out.contained, "wheat")
	}
	if wheatFree.MatchString(t) {
		out.safeFrom = append(out.safeFrom, "wheat")
		reasons = append(reasons, "小麦不使用(推論)")
	}

	if dairyPositive.MatchString(t) && !dairyNegation.MatchString(t) {
		out.contained = append(out.contained, "dairy")
	}
	if dairyFree.MatchString(t) {
		out.safeFrom = append(out.safeFrom, "dairy")
		reasons = append(reasons, "乳不使用(推論)")
	}

	if eggPositive.MatchString(t) && !eggNegation.MatchString(t) {
		out.contained = append(out.contained, "egg")
	}
	if eggNegation.MatchString(t) {
		out.safeFrom = append(out.safeFrom, "egg")
		reasons = append(reasons, "卵不使用(推論)")
	}

	if nutPositive.MatchString(t) {
		out.contained = append(out.contained, "peanut")
	}

	out.reason = strings.Join(reasons, ", ")
	if out.reason == "" {
		out.reason = "原材料推論"
	}
	return out
}
