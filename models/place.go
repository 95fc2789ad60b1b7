package models

import (
	"time"

	"github.com/lib/pq"
)

// Place is the canonical record for one physical venue, independent of any
// external provider. PlaceID is minted once during identity reconciliation
// and never changes; upserts are keyed on it.
type Place struct {
	PlaceID             string         `json:"place_id" gorm:"primaryKey;type:uuid"`
	Name                string         `json:"name" gorm:"not null"`
	Latitude            float64        `json:"latitude" gorm:"not null;type:decimal(10,8);index"`
	Longitude           float64        `json:"longitude" gorm:"not null;type:decimal(11,8);index"`
	Location            string         `json:"location"` // "POINT(lng lat)" derived from lat/lng
	AddressFull         string         `json:"address_full"`
	PhoneNumber         string         `json:"phone_number"`
	BusinessURL         string         `json:"business_url"`
	Price               string         `json:"price"`
	Category            string         `json:"category"` // comma-joined provider types
	Description         string         `json:"description" gorm:"type:text"`
	WeekdayDescriptions pq.StringArray `json:"weekday_descriptions" gorm:"type:text[]"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
