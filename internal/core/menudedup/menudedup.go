// Package menudedup implements fuzzy duplicate detection and merge for
// menu line items collected from multiple sources.
package menudedup

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

// Two items are duplicates when their normalized names are at least 90%
// similar, or names are 80% similar and descriptions 70%. Price proximity
// is reported but never gates the match.
const (
	nameStrongThreshold = 0.9
	nameWeakThreshold   = 0.8
	descThreshold       = 0.7
	priceProximity      = 100
)

var (
	parentheticalRe = regexp.MustCompile(`[（(][^）)]*[）)]`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Match describes a duplicate hit and how close it was.
type Match struct {
	Item           *domain.MenuItem
	NameSimilarity float64
	DescSimilarity float64
	PriceMatch     bool
}

// NormalizeName lowercases, folds full-width letters and digits to their
// half-width forms, strips parenthetical asides and collapses whitespace.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	s := strings.ToLower(name)
	s = width.Fold.String(s)
	s = parentheticalRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeText lowercases and collapses whitespace without touching
// brackets; used for descriptions.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	s := strings.ToLower(text)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Similarity is 1 - levenshtein/maxLen on the given strings. Identical
// strings (including both empty) score 1; when only one side is empty the
// score is 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1 - float64(levenshtein(ra, rb))/float64(maxLen)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// FindDuplicate returns the first existing item judged equivalent to the
// new one, or nil. The scan short-circuits on the first hit, so the order
// of existing items affects the outcome.
func FindDuplicate(newItem domain.MenuItem, existing []domain.MenuItem) *Match {
	newName := NormalizeName(newItem.Name)
	newDesc := NormalizeText(newItem.Description)

	for i := range existing {
		nameSim := Similarity(newName, NormalizeName(existing[i].Name))
		descSim := Similarity(newDesc, NormalizeText(existing[i].Description))

		priceMatch := true
		if newItem.Price > 0 && existing[i].Price > 0 {
			diff := newItem.Price - existing[i].Price
			if diff < 0 {
				diff = -diff
			}
			priceMatch = diff <= priceProximity
		}

		if nameSim >= nameStrongThreshold || (nameSim >= nameWeakThreshold && descSim >= descThreshold) {
			return &Match{
				Item:           &existing[i],
				NameSimilarity: nameSim,
				DescSimilarity: descSim,
				PriceMatch:     priceMatch,
			}
		}
	}
	return nil
}

// Merge combines two equivalent items into the most complete record:
// lowest known price, longest description, union of images, allergens and
// sources. Union fields are commutative; price and description follow
// deterministic tie-breaks regardless of argument order.
func Merge(primary, secondary domain.MenuItem) domain.MenuItem {
	out := primary

	out.Price = mergePrice(primary.Price, secondary.Price)

	if len(secondary.Description) > len(primary.Description) {
		out.Description = secondary.Description
	}

	out.Images = unionStrings(primary.Images, secondary.Images)
	out.Allergens = unionStrings(primary.Allergens, secondary.Allergens)
	out.Sources = unionStrings(primary.Sources, secondary.Sources)
	out.SafeFrom = unionStrings(primary.SafeFrom, secondary.SafeFrom)
	out.Removable = unionStrings(primary.Removable, secondary.Removable)
	out.ContaminationRisk = primary.ContaminationRisk || secondary.ContaminationRisk

	return out
}

// mergePrice keeps the lowest known price; 0 means unknown, so a known
// price always wins over an unknown one.
func mergePrice(a, b int) int {
	switch {
	case a <= 0:
		return maxInt(b, 0)
	case b <= 0:
		return a
	case b < a:
		return b
	default:
		return a
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; !ok && s != "" {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok && s != "" {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
