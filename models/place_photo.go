package models

import "time"

// PlacePhoto is one photo attached to a canonical place. Rows are created
// with StoragePath nil; the storage worker later downloads OriginalURI,
// uploads the bytes to object storage and fills in StoragePath and
// StoredURI. OriginalURI is a short-lived provider URI and must not be
// served once a stored copy exists.
type PlacePhoto struct {
	PlacePhotoID       string    `json:"place_photo_id" gorm:"primaryKey;type:uuid"`
	PlaceID            string    `json:"place_id" gorm:"type:uuid;not null;uniqueIndex:idx_place_photo_ref"`
	PhotoReferenceName string    `json:"photo_reference_name" gorm:"not null;uniqueIndex:idx_place_photo_ref"`
	OriginalURI        string    `json:"original_uri" gorm:"type:text"`
	StoragePath        *string   `json:"storage_path" gorm:"type:text"`
	StoredURI          *string   `json:"stored_uri" gorm:"type:text"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
