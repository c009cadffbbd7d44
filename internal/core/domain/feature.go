package domain

// FeatureValue is the tri-state value of an operational attribute.
// Directory fields the source did not confirm stay FeatureUnknown; the
// pipeline never asserts a negative the source didn't state.
type FeatureValue string

const (
	FeaturePresent FeatureValue = "present"
	FeatureAbsent  FeatureValue = "absent"
	FeatureUnknown FeatureValue = "unknown"
)

// Fixed feature vocabulary shared by the miner and the enricher.
const (
	FeatureParking            = "parking"
	FeatureFreeParking        = "free_parking"
	FeaturePaidParking        = "paid_parking"
	FeatureCreditCard         = "credit_card"
	FeatureCashOnly           = "cash_only"
	FeatureWheelchair         = "wheelchair"
	FeatureMultipurposeToilet = "multipurpose_toilet"
	FeatureKidsMenu           = "kids_menu"
	FeatureStroller           = "stroller"
	FeatureVegetarian         = "vegetarian"
	FeatureAllergenLabel      = "allergen_label"
	FeatureRemoval            = "removal"
	FeatureContamination      = "contamination_care"
)

// OverlayFeatures applies src onto dst per key, last writer wins.
// No cross-source conflict resolution is attempted.
func OverlayFeatures(dst, src map[string]FeatureValue) map[string]FeatureValue {
	if dst == nil {
		dst = make(map[string]FeatureValue, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
