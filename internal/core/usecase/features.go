package usecase

import "github.com/anshin-navi/discovery/internal/core/domain"

// FeaturesFromDetails maps directory attributes into the feature
// taxonomy. Attributes the directory did not report are omitted entirely:
// only an explicit false becomes "absent", silence never does.
func FeaturesFromDetails(d *domain.PlaceDetails) map[string]domain.FeatureValue {
	out := make(map[string]domain.FeatureValue)

	setTri(out, domain.FeatureFreeParking, d.FreeParkingLot)
	setTri(out, domain.FeaturePaidParking, d.PaidParkingLot)
	switch {
	case isTrue(d.FreeParkingLot) || isTrue(d.PaidParkingLot):
		out[domain.FeatureParking] = domain.FeaturePresent
	case isFalse(d.FreeParkingLot) && isFalse(d.PaidParkingLot):
		out[domain.FeatureParking] = domain.FeatureAbsent
	}

	setTri(out, domain.FeatureCreditCard, d.AcceptsCreditCards)
	setTri(out, domain.FeatureCashOnly, d.AcceptsCashOnly)
	setTri(out, domain.FeatureWheelchair, d.WheelchairAccessibleEntrance)
	setTri(out, domain.FeatureMultipurposeToilet, d.WheelchairAccessibleRestroom)
	setTri(out, domain.FeatureKidsMenu, d.MenuForChildren)
	// A step-free entrance is the closest available proxy for stroller
	// access; only a positive is carried over.
	if isTrue(d.WheelchairAccessibleEntrance) {
		out[domain.FeatureStroller] = domain.FeaturePresent
	}
	setTri(out, domain.FeatureVegetarian, d.ServesVegetarianFood)

	return out
}

func setTri(m map[string]domain.FeatureValue, key string, v *bool) {
	if v == nil {
		return
	}
	if *v {
		m[key] = domain.FeaturePresent
	} else {
		m[key] = domain.FeatureAbsent
	}
}

func isTrue(v *bool) bool  { return v != nil && *v }
func isFalse(v *bool) bool { return v != nil && !*v }
