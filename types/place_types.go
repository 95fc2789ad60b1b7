package types

import "github.com/grubber-app/api-go/models"

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Latitude and longitude are pointers so that 0 binds as a present value;
// "required" only rejects absent fields.
type FindNearbyPlacesRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	Keyword   string   `json:"keyword"`
}

// PlacePhotoView is one photo in an API response. StoragePath is nil for
// ephemeral photos that only exist as a short-lived provider URI.
type PlacePhotoView struct {
	PhotoReferenceName string  `json:"photo_reference_name"`
	OriginalURI        string  `json:"original_uri"`
	StoragePath        *string `json:"storage_path"`
	StoredURI          string  `json:"stored_uri,omitempty"`
}

type PlaceWithPhotos struct {
	models.Place
	Photos []PlacePhotoView `json:"photos"`
}
