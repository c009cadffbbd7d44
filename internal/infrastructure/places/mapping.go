package places

import "github.com/anshin-navi/discovery/internal/core/domain"

// apiPlace is the wire shape shared by search hits and detail records.
// Option groups are pointers so an omitted group stays distinguishable
// from an explicit false.
type apiPlace struct {
	ID               string      `json:"id"`
	DisplayName      *localized  `json:"displayName"`
	FormattedAddress string      `json:"formattedAddress"`
	Location         *latLng     `json:"location"`
	Phone            string      `json:"nationalPhoneNumber"`
	WebsiteURI       string      `json:"websiteUri"`
	EditorialSummary *localized  `json:"editorialSummary"`
	GoogleMapsURI    string      `json:"googleMapsUri"`
	Rating           float64     `json:"rating"`
	UserRatingCount  int         `json:"userRatingCount"`
	PriceLevel       string      `json:"priceLevel"`
	Types            []string    `json:"types"`
	Photos           []photoRef  `json:"photos"`
	OpeningHours     *hours      `json:"regularOpeningHours"`
	PaymentOptions   *payment    `json:"paymentOptions"`
	ParkingOptions   *parking    `json:"parkingOptions"`
	Accessibility    *accessOpts `json:"accessibilityOptions"`
	MenuForChildren  *bool       `json:"menuForChildren"`
	ServesVegetarian *bool       `json:"servesVegetarianFood"`
	AllowsDogs       *bool       `json:"allowsDogs"`
}

type localized struct {
	Text string `json:"text"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type photoRef struct {
	Name string `json:"name"`
}

type hours struct {
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

type payment struct {
	AcceptsCreditCards *bool `json:"acceptsCreditCards"`
	AcceptsCashOnly    *bool `json:"acceptsCashOnly"`
}

type parking struct {
	FreeParkingLot *bool `json:"freeParkingLot"`
	PaidParkingLot *bool `json:"paidParkingLot"`
}

type accessOpts struct {
	WheelchairAccessibleEntrance *bool `json:"wheelchairAccessibleEntrance"`
	WheelchairAccessibleRestroom *bool `json:"wheelchairAccessibleRestroom"`
}

const maxSearchPhotoRefs = 3

func (p apiPlace) toResult() domain.PlaceResult {
	out := domain.PlaceResult{
		PlaceID:         p.ID,
		Address:         p.FormattedAddress,
		Website:         p.WebsiteURI,
		Phone:           p.Phone,
		Rating:          p.Rating,
		UserRatingCount: p.UserRatingCount,
		Types:           p.Types,
		GoogleMapsURI:   p.GoogleMapsURI,
	}
	if p.DisplayName != nil {
		out.Name = p.DisplayName.Text
	}
	if p.EditorialSummary != nil {
		out.EditorialSummary = p.EditorialSummary.Text
	}
	if p.Location != nil {
		out.Lat = p.Location.Latitude
		out.Lng = p.Location.Longitude
	}
	for i, photo := range p.Photos {
		if i >= maxSearchPhotoRefs {
			break
		}
		out.PhotoRefs = append(out.PhotoRefs, photo.Name)
	}
	return out
}

func (p apiPlace) toDetails() domain.PlaceDetails {
	out := domain.PlaceDetails{
		PlaceID:         p.ID,
		Address:         p.FormattedAddress,
		Phone:           p.Phone,
		Website:         p.WebsiteURI,
		Rating:          p.Rating,
		UserRatingCount: p.UserRatingCount,
		PriceLevel:      p.PriceLevel,
		GoogleMapsURI:   p.GoogleMapsURI,
		MenuForChildren: p.MenuForChildren,
		AllowsDogs:      p.AllowsDogs,
	}
	if p.DisplayName != nil {
		out.Name = p.DisplayName.Text
	}
	if p.Location != nil {
		out.Lat = p.Location.Latitude
		out.Lng = p.Location.Longitude
	}
	if p.OpeningHours != nil {
		out.OpeningHours = p.OpeningHours.WeekdayDescriptions
	}
	if p.PaymentOptions != nil {
		out.AcceptsCreditCards = p.PaymentOptions.AcceptsCreditCards
		out.AcceptsCashOnly = p.PaymentOptions.AcceptsCashOnly
	}
	if p.ParkingOptions != nil {
		out.FreeParkingLot = p.ParkingOptions.FreeParkingLot
		out.PaidParkingLot = p.ParkingOptions.PaidParkingLot
	}
	if p.Accessibility != nil {
		out.WheelchairAccessibleEntrance = p.Accessibility.WheelchairAccessibleEntrance
		out.WheelchairAccessibleRestroom = p.Accessibility.WheelchairAccessibleRestroom
	}
	out.ServesVegetarianFood = p.ServesVegetarian
	for _, photo := range p.Photos {
		out.PhotoNames = append(out.PhotoNames, photo.Name)
	}
	return out
}
