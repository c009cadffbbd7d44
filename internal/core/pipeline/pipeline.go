// Package pipeline deduplicates batches of candidates, merges their
// content and computes reliability scores. It is conservative about
// identity: a shared place identifier merges unconditionally, everything
// else needs a strong fuzzy match on both name and address.
package pipeline

import (
	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/core/masters"
	"github.com/anshin-navi/discovery/internal/core/menudedup"
)

const (
	nameMatchThreshold    = 0.9
	addressMatchThreshold = 0.8
)

// DeduplicateAndMerge collapses a batch down to unique candidates and
// recomputes each survivor's reliability score. Input order decides which
// record of a duplicate pair acts as the base. Output order carries no
// meaning.
func DeduplicateAndMerge(batch []domain.Candidate) []domain.Candidate {
	var merged []domain.Candidate

	for _, incoming := range batch {
		idx := findExisting(merged, incoming)
		if idx < 0 {
			if incoming.Menus == nil {
				incoming.Menus = []domain.MenuItem{}
			}
			merged = append(merged, incoming)
			continue
		}
		MergeInto(&merged[idx], incoming)
	}

	for i := range merged {
		merged[i].ReliabilityScore = ReliabilityScore(merged[i])
	}
	return merged
}

func findExisting(merged []domain.Candidate, incoming domain.Candidate) int {
	for i := range merged {
		if incoming.PlaceID != "" && merged[i].PlaceID == incoming.PlaceID {
			return i
		}
	}
	// Secondary fuzzy pass. Only candidates without a shared identifier
	// reach this; false negatives are preferred over merging two distinct
	// businesses.
	for i := range merged {
		if incoming.PlaceID != "" && merged[i].PlaceID != "" {
			continue
		}
		nameSim := menudedup.Similarity(
			menudedup.NormalizeName(merged[i].Name),
			menudedup.NormalizeName(incoming.Name),
		)
		addrSim := menudedup.Similarity(
			menudedup.NormalizeText(merged[i].Address),
			menudedup.NormalizeText(incoming.Address),
		)
		if nameSim >= nameMatchThreshold && addrSim >= addressMatchThreshold {
			return i
		}
	}
	return -1
}

// MergeInto folds src into dst. Menus run through the menu deduplicator,
// features are overlaid key by key with src winning, sources and signals
// are concatenated append-only. Identity fields of dst are never touched;
// missing contact fields are backfilled.
func MergeInto(dst *domain.Candidate, src domain.Candidate) {
	dst.Menus = MergeMenus(dst.Menus, src.Menus)

	if len(src.Features) > 0 {
		if dst.Features == nil {
			dst.Features = make(map[string]domain.FeatureValue, len(src.Features))
		}
		for k, v := range src.Features {
			dst.Features[k] = v
		}
	}

	dst.Sources = append(dst.Sources, src.Sources...)
	dst.Signals = append(dst.Signals, src.Signals...)

	if dst.Lat == 0 && src.Lat != 0 {
		dst.Lat = src.Lat
		dst.Lng = src.Lng
	}
	if dst.Website == "" {
		dst.Website = src.Website
	}
	if dst.Phone == "" {
		dst.Phone = src.Phone
	}
	if dst.Instagram == "" {
		dst.Instagram = src.Instagram
	}
}

// MergeMenus folds incoming items into existing through the fuzzy matcher.
// Duplicates merge in place, new items append. The accumulating list is
// the match target, so an incoming item can merge with an item appended
// earlier in the same call.
func MergeMenus(existing, incoming []domain.MenuItem) []domain.MenuItem {
	out := existing
	for _, item := range incoming {
		if m := menudedup.FindDuplicate(item, out); m != nil {
			*m.Item = menudedup.Merge(*m.Item, item)
			continue
		}
		out = append(out, item)
	}
	return out
}

// Source type weights. Tunable policy: the only hard requirement is that
// every type carries a positive weight so adding a source never lowers
// the score.
var sourceTypeWeights = map[string]int{
	"official":          50,
	"municipality":      45,
	"reservation":       40,
	"directory_listing": 35,
	"enrichment_update": 30,
	"blog":              25,
	"sns":               20,
	"review":            15,
}

const defaultSourceWeight = 10

// ReliabilityScore computes the corroboration score for a candidate,
// capped at 100. Adding a source can only raise it.
func ReliabilityScore(c domain.Candidate) int {
	score := len(c.Sources) * 20

	seen := make(map[string]bool)
	for _, s := range c.Sources {
		if seen[s.Type] {
			continue
		}
		seen[s.Type] = true
		if w, ok := sourceTypeWeights[s.Type]; ok {
			score += w
		} else {
			score += defaultSourceWeight
		}
	}

	if hasSafetySignal(c) {
		score += 20
	}

	menuBonus := len(c.Menus) * 5
	if menuBonus > 30 {
		menuBonus = 30
	}
	score += menuBonus

	if hasImages(c) {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

func hasSafetySignal(c domain.Candidate) bool {
	for _, sig := range c.Signals {
		if masters.HasSafetySignal(sig.Keyword) || sig.Type == "safety" {
			return true
		}
	}
	if c.Features[domain.FeatureAllergenLabel] == domain.FeaturePresent ||
		c.Features[domain.FeatureRemoval] == domain.FeaturePresent {
		return true
	}
	return false
}

func hasImages(c domain.Candidate) bool {
	for _, m := range c.Menus {
		if len(m.Images) > 0 {
			return true
		}
	}
	return false
}
