package models

import "time"

// ExternalPlaceID links one provider's id for a venue to our canonical
// PlaceID. A canonical place can carry mappings from several sources, but
// each (source, external_id) pair maps to exactly one place. Rows are
// written once and never updated.
type ExternalPlaceID struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	PlaceID    string    `json:"place_id" gorm:"type:uuid;not null;index"`
	Source     string    `json:"source" gorm:"not null;uniqueIndex:idx_external_place_source_id"`
	ExternalID string    `json:"external_id" gorm:"not null;uniqueIndex:idx_external_place_source_id"`
	CreatedAt  time.Time `json:"created_at"`
}
