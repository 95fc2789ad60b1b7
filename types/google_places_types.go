package types

// Responses from the legacy Nearby Search endpoint
// (maps.googleapis.com/maps/api/place/nearbysearch/json).

type GooglePlacesResponse struct {
	HTMLAttributions []string            `json:"html_attributions"`
	NextPageToken    string              `json:"next_page_token"`
	Results          []GooglePlaceResult `json:"results"`
	Status           string              `json:"status"`
	ErrorMessage     string              `json:"error_message,omitempty"`
}

// Alias for backward compatibility and clarity
type GooglePlaceResult = PlaceResult

type PlaceResult struct {
	BusinessStatus   *string       `json:"business_status,omitempty"`
	Geometry         Geometry      `json:"geometry"`
	Name             string        `json:"name"`
	OpeningHours     *OpeningHours `json:"opening_hours,omitempty"`
	Photos           []Photo       `json:"photos,omitempty"`
	PlaceID          string        `json:"place_id"`
	Rating           *float64      `json:"rating,omitempty"`
	Reference        string        `json:"reference"`
	Scope            string        `json:"scope"`
	Types            []string      `json:"types"`
	UserRatingsTotal *int          `json:"user_ratings_total,omitempty"`
	Vicinity         *string       `json:"vicinity,omitempty"`
}

type Geometry struct {
	Location Location `json:"location"`
	Viewport Viewport `json:"viewport"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Viewport struct {
	Northeast Location `json:"northeast"`
	Southwest Location `json:"southwest"`
}

type OpeningHours struct {
	OpenNow bool `json:"open_now"`
}

type Photo struct {
	Height           int      `json:"height"`
	HTMLAttributions []string `json:"html_attributions"`
	PhotoReference   string   `json:"photo_reference"`
	Width            int      `json:"width"`
}

// Responses from the Places API (New) at places.googleapis.com/v1.

type GooglePlaceDetails struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	DisplayName         *LocalizedText        `json:"displayName,omitempty"`
	Location            *LatLng               `json:"location,omitempty"`
	FormattedAddress    string                `json:"formattedAddress,omitempty"`
	NationalPhoneNumber string                `json:"nationalPhoneNumber,omitempty"`
	WebsiteURI          string                `json:"websiteUri,omitempty"`
	PriceLevel          string                `json:"priceLevel,omitempty"`
	Rating              *float64              `json:"rating,omitempty"`
	UserRatingCount     *int                  `json:"userRatingCount,omitempty"`
	Types               []string              `json:"types,omitempty"`
	EditorialSummary    *LocalizedText        `json:"editorialSummary,omitempty"`
	RegularOpeningHours *GoogleOpeningHours   `json:"regularOpeningHours,omitempty"`
	Photos              []GooglePhotoReference `json:"photos,omitempty"`
}

type LocalizedText struct {
	Text string `json:"text"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type GoogleOpeningHours struct {
	OpenNow             *bool    `json:"openNow,omitempty"`
	WeekdayDescriptions []string `json:"weekdayDescriptions,omitempty"`
}

// GooglePhotoReference is the provider's opaque handle for one photo,
// e.g. "places/{place_id}/photos/{photo_id}".
type GooglePhotoReference struct {
	Name string `json:"name"`
}

// GooglePhotoMedia is the photo-media response when skipHttpRedirect is set:
// the short-lived fetchable URI for a photo reference.
type GooglePhotoMedia struct {
	Name     string `json:"name"`
	PhotoURI string `json:"photoUri"`
}
