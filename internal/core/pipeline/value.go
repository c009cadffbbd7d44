package pipeline

import (
	"regexp"
	"slices"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/masters"
)

var (
	juwariPattern     = regexp.MustCompile(`十割|100%|１０割`)
	innovationPattern = regexp.MustCompile(`米粉|玄米|大豆|豆乳|アーモンドミルク|グルテンフリー|GF|ヴィーガン`)
)

// Dish categories that are free of the major allergens by nature rather
// than by substitution. A wheat-free steak is not a find.
var naturallyFreeCategories = []string{"ステーキ", "サラダ", "ライス"}

// MenuValueScore rates how valuable a menu item is to surface. Value
// comes from substitution: a dish that normally contains an allergen,
// offered in a version free of it, scores high. Naturally free dishes
// score a flat minimum.
func MenuValueScore(item domain.MenuItem) int {
	category := masters.ClassifyMenu(item.Name)

	// 100% buckwheat soba is wheat-free by recipe, not by innovation.
	if category != nil && category.Name == "そば" && juwariPattern.MatchString(item.Name) {
		return 10
	}
	if category != nil && slices.Contains(naturallyFreeCategories, category.Name) {
		return 10
	}

	isInnovation := innovationPattern.MatchString(item.Name)

	if category == nil {
		if isInnovation {
			return 80
		}
		for _, a := range item.SafeFrom {
			if a == "wheat" || a == "egg" || a == "dairy" {
				return 40
			}
		}
		return 0
	}

	score := 0
	for _, allergen := range item.SafeFrom {
		switch {
		case slices.Contains(category.Usual, allergen):
			// The allergen is usually in this dish; its removal is the
			// whole point.
			score += 100
		case slices.Contains(category.Rare, allergen):
			score += 30
		}
	}

	if isInnovation {
		score += 20
	}
	return score
}

// ScoreMenus fills in ValueScore for every item in place.
func ScoreMenus(menus []domain.MenuItem) {
	for i := range menus {
		menus[i].ValueScore = MenuValueScore(menus[i])
	}
}
