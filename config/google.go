package config

import (
	"os"
	"time"
)

const (
	googlePlacesNearbySearchURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	googlePlacesDetailsURL      = "https://places.googleapis.com/v1/places"
	googlePlacesPhotosURL       = "https://places.googleapis.com/v1"
)

type GooglePlacesConfig struct {
	APIKey             string
	NearbySearchURL    string
	DetailsURL         string
	PhotosURL          string
	SearchRadiusMeters int
	PhotoMaxHeightPx   int
	RequestTimeout     time.Duration
}

func NewGooglePlacesConfig() *GooglePlacesConfig {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		panic("GOOGLE_API_KEY not found in environment variables")
	}

	return &GooglePlacesConfig{
		APIKey:             apiKey,
		NearbySearchURL:    googlePlacesNearbySearchURL,
		DetailsURL:         googlePlacesDetailsURL,
		PhotosURL:          googlePlacesPhotosURL,
		SearchRadiusMeters: 5000,
		PhotoMaxHeightPx:   1600,
		RequestTimeout:     10 * time.Second,
	}
}
