package crawler

import (
	"regexp"
	"strings"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

var (
	allergenLabelPattern = regexp.MustCompile(`アレルギー表|アレルゲン一覧|成分表`)
	removalNegation      = regexp.MustCompile(`除去.*(できません|不可|お断り|難しい|致しかね|対応して(おりません|いない))`)
	kidsMenuPattern      = regexp.MustCompile(`キッズメニュー|お子様メニュー|お子さまメニュー`)
	contaminationCare    = regexp.MustCompile(`専用(の)?(調理器具|フライヤー|キッチン)|コンタミ(ネーション)?(対策|防止)`)
)

// detectFeaturesFromText scans visible page text for feature claims.
// Negations suppress the removal claim without asserting its absence:
// a page that says removal is not possible leaves the key unset, so a
// positive recorded from another source survives the merge.
func detectFeaturesFromText(text string) map[string]domain.FeatureValue {
	out := map[string]domain.FeatureValue{}
	if text == "" {
		return out
	}

	if allergenLabelPattern.MatchString(text) {
		out[domain.FeatureAllergenLabel] = domain.FeaturePresent
	}

	if strings.Contains(text, "除去") && strings.Contains(text, "対応") && !removalNegation.MatchString(text) {
		out[domain.FeatureRemoval] = domain.FeaturePresent
	}

	if kidsMenuPattern.MatchString(text) {
		out[domain.FeatureKidsMenu] = domain.FeaturePresent
	}
	if contaminationCare.MatchString(text) {
		out[domain.FeatureContamination] = domain.FeaturePresent
	}

	return out
}
