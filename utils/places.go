package utils

import (
	"fmt"
	"strings"

	"github.com/grubber-app/api-go/models"
	"github.com/grubber-app/api-go/types"
	"github.com/rs/zerolog/log"
)

// GoogleDisplayName returns the human-readable name of a place details
// record, falling back to the resource name when no display name is set.
func GoogleDisplayName(detail types.GooglePlaceDetails) string {
	if detail.DisplayName != nil && detail.DisplayName.Text != "" {
		return detail.DisplayName.Text
	}
	return detail.Name
}

// ConvertGoogleDetailsToPlaces maps provider details onto canonical Place
// rows. placeIDs maps each provider id to its reconciled canonical id;
// records without an entry are dropped, since a row without a canonical id
// cannot be upserted.
func ConvertGoogleDetailsToPlaces(details []types.GooglePlaceDetails, placeIDs map[string]string) []models.Place {
	places := make([]models.Place, 0, len(details))
	for _, detail := range details {
		placeID, ok := placeIDs[detail.ID]
		if !ok {
			log.Warn().Str("external_id", detail.ID).Msg("No canonical id for place, skipping conversion")
			continue
		}

		place := models.Place{
			PlaceID:     placeID,
			Name:        GoogleDisplayName(detail),
			AddressFull: detail.FormattedAddress,
			PhoneNumber: detail.NationalPhoneNumber,
			BusinessURL: detail.WebsiteURI,
			Price:       detail.PriceLevel,
			Category:    strings.Join(detail.Types, ", "),
		}
		if detail.Location != nil {
			place.Latitude = detail.Location.Latitude
			place.Longitude = detail.Location.Longitude
			place.Location = fmt.Sprintf("POINT(%v %v)", detail.Location.Longitude, detail.Location.Latitude)
		}
		if detail.EditorialSummary != nil {
			place.Description = detail.EditorialSummary.Text
		}
		if detail.RegularOpeningHours != nil {
			place.WeekdayDescriptions = detail.RegularOpeningHours.WeekdayDescriptions
		}

		places = append(places, place)
	}
	return places
}
