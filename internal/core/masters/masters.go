// Package masters holds the static knowledge bases of the discovery
// pipeline: the allergen synonym dictionary, the paradox matrix and the
// scout signal vocabulary. The tables ship as embedded YAML and are parsed
// once at startup into immutable structures.
package masters

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/allergen_synonyms.yaml
var synonymsRaw []byte

//go:embed data/paradox_matrix.yaml
var paradoxRaw []byte

//go:embed data/scout_keywords.yaml
var scoutRaw []byte

//go:embed data/menu_allergen_map.yaml
var menuMapRaw []byte

// ParadoxRow encodes one "dish normally laden with an allergen, free-from
// variant is high value" combination used to generate targeted queries.
type ParadoxRow struct {
	FoodItem    string   `yaml:"food_item"`
	Allergen    string   `yaml:"allergen"`
	SearchTerms []string `yaml:"search_terms"`
	ValueScore  int      `yaml:"value_score"`
}

// QueryStrategy is one broad-phase query template; {area} is substituted
// at run time.
type QueryStrategy struct {
	Source string `yaml:"source"`
	Query  string `yaml:"query"`
}

// MenuCategory describes how commonly each allergen appears in one dish
// category.
type MenuCategory struct {
	Name    string   `yaml:"name"`
	Pattern string   `yaml:"pattern"`
	Usual   []string `yaml:"usual"`
	Rare    []string `yaml:"rare"`

	re *regexp.Regexp
}

type synonymsFile struct {
	Allergens      map[string][]string `yaml:"allergens"`
	Diets          map[string][]string `yaml:"diets"`
	SafetyKeywords []string            `yaml:"safety_keywords"`
}

type paradoxFile struct {
	Rows []ParadoxRow `yaml:"rows"`
}

type scoutFile struct {
	SignalKeywords  []string        `yaml:"signal_keywords"`
	NameTerms       []string        `yaml:"name_terms"`
	QueryStrategies []QueryStrategy `yaml:"query_strategies"`
	ChainBrands     []string        `yaml:"chain_brands"`
}

type menuMapFile struct {
	Categories []MenuCategory `yaml:"categories"`
}

var (
	allergenSynonyms map[string][]string
	dietSynonyms     map[string][]string
	safetyKeywords   []string

	paradoxRows []ParadoxRow

	signalKeywords  []string
	nameTerms       []string
	queryStrategies []QueryStrategy
	chainBrands     []string

	menuCategories []MenuCategory
)

func init() {
	var syn synonymsFile
	mustParse("allergen_synonyms", synonymsRaw, &syn)
	allergenSynonyms = syn.Allergens
	dietSynonyms = syn.Diets
	safetyKeywords = syn.SafetyKeywords

	var par paradoxFile
	mustParse("paradox_matrix", paradoxRaw, &par)
	paradoxRows = par.Rows
	sort.SliceStable(paradoxRows, func(i, j int) bool {
		return paradoxRows[i].ValueScore > paradoxRows[j].ValueScore
	})

	var sc scoutFile
	mustParse("scout_keywords", scoutRaw, &sc)
	signalKeywords = sc.SignalKeywords
	nameTerms = sc.NameTerms
	queryStrategies = sc.QueryStrategies
	chainBrands = sc.ChainBrands

	var mm menuMapFile
	mustParse("menu_allergen_map", menuMapRaw, &mm)
	menuCategories = mm.Categories
	for i := range menuCategories {
		menuCategories[i].re = regexp.MustCompile("(?i)" + menuCategories[i].Pattern)
	}
}

func mustParse(name string, raw []byte, out any) {
	if err := yaml.Unmarshal(raw, out); err != nil {
		panic(fmt.Sprintf("masters: parse %s: %v", name, err))
	}
}

// MatchCategories maps free text to the allergen/diet categories whose
// synonyms occur in it. Matching is case-insensitive substring containment;
// any one synonym is enough. This is signal detection, not a safety
// verdict: negated mentions still match on purpose.
func MatchCategories(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})

	match := func(sets map[string][]string) {
		for category, synonyms := range sets {
			for _, syn := range synonyms {
				if strings.Contains(lower, strings.ToLower(syn)) {
					seen[category] = struct{}{}
					break
				}
			}
		}
	}
	match(allergenSynonyms)
	match(dietSynonyms)

	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// HasSafetySignal reports whether the text contains allergy-compliance
// vocabulary, independent of any category match.
func HasSafetySignal(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, keyword := range safetyKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// AllSynonyms returns every synonym and safety keyword once.
func AllSynonyms() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(terms []string) {
		for _, t := range terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	for _, synonyms := range allergenSynonyms {
		add(synonyms)
	}
	for _, synonyms := range dietSynonyms {
		add(synonyms)
	}
	add(safetyKeywords)
	return out
}

// ParadoxRows returns the matrix ordered by value score descending.
func ParadoxRows() []ParadoxRow {
	out := make([]ParadoxRow, len(paradoxRows))
	copy(out, paradoxRows)
	return out
}

// SignalKeywords returns the scout signal vocabulary.
func SignalKeywords() []string { return signalKeywords }

// NameTerms returns terms that carry extra weight inside a shop name.
func NameTerms() []string { return nameTerms }

// QueryStrategies returns the broad-phase query templates.
func QueryStrategies() []QueryStrategy {
	out := make([]QueryStrategy, len(queryStrategies))
	copy(out, queryStrategies)
	return out
}

// ChainBrands returns the excluded chain brand names.
func ChainBrands() []string { return chainBrands }

// ClassifyMenu returns the dish category for a menu name, or nil when no
// pattern matches.
func ClassifyMenu(name string) *MenuCategory {
	for i := range menuCategories {
		if menuCategories[i].re.MatchString(name) {
			return &menuCategories[i]
		}
	}
	return nil
}
