package domain

// GeoBias narrows a directory text search to a circle around a point.
// A zero radius leaves the directory's default search area in effect.
type GeoBias struct {
	Lat          float64
	Lng          float64
	RadiusMeters float64
}

// PlaceResult is a single hit from a directory text search.
type PlaceResult struct {
	PlaceID         string   `json:"place_id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Lat             float64  `json:"lat"`
	Lng             float64  `json:"lng"`
	Website         string   `json:"website,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	Rating          float64  `json:"rating,omitempty"`
	UserRatingCount int      `json:"user_rating_count,omitempty"`
	Types           []string `json:"types,omitempty"`
	GoogleMapsURI   string   `json:"google_maps_uri,omitempty"`

	EditorialSummary string   `json:"editorial_summary,omitempty"`
	PhotoRefs        []string `json:"photo_refs,omitempty"`
}

// PlaceDetails is the full directory record for one place. Option fields
// are tri-state: nil means the directory did not report the attribute,
// which is distinct from an explicit false.
type PlaceDetails struct {
	PlaceID         string
	Name            string
	Address         string
	Lat             float64
	Lng             float64
	Phone           string
	Website         string
	Rating          float64
	UserRatingCount int
	PriceLevel      string
	OpeningHours    []string
	GoogleMapsURI   string
	PhotoNames      []string

	AcceptsCreditCards           *bool
	AcceptsCashOnly              *bool
	FreeParkingLot               *bool
	PaidParkingLot               *bool
	WheelchairAccessibleEntrance *bool
	WheelchairAccessibleRestroom *bool
	MenuForChildren              *bool
	ServesVegetarianFood         *bool
	AllowsDogs                   *bool
}
