package config

import (
	"os"
	"strconv"
	"time"
)

// PlacesConfig holds the tunables of the nearby-places engine. Defaults match
// production; every value can be overridden through the environment.
type PlacesConfig struct {
	// Bounding-box half-width in degrees for cache reads.
	CacheBoxDelta float64
	// Tighter bounding-box half-width in degrees for fuzzy-match candidates.
	FuzzyBoxDelta float64
	// Great-circle distance in km within which a same-named place is
	// considered the same venue.
	FuzzyMatchRadiusKm float64
	// Minimum number of cached places needed to skip the provider.
	CacheThreshold int
	// Row cap on cache reads.
	MaxPlacesPerQuery int
	// Maximum photos ever persisted per place.
	MaxPhotosPerPlace int
	// Maximum photos returned in any response.
	MaxPhotosToShowImmediately int
	// Concurrency cap for provider fan-out within one request.
	FanOutLimit int
	// How often the storage worker sweeps for unstored photos.
	PhotoStorageInterval time.Duration
}

func GetPlacesConfig() *PlacesConfig {
	return &PlacesConfig{
		CacheBoxDelta:              envFloat("PLACES_CACHE_BOX_DELTA", 0.1),
		FuzzyBoxDelta:              envFloat("PLACES_FUZZY_BOX_DELTA", 0.01),
		FuzzyMatchRadiusKm:         envFloat("PLACES_FUZZY_MATCH_RADIUS_KM", 0.1),
		CacheThreshold:             envInt("PLACES_CACHE_THRESHOLD", 15),
		MaxPlacesPerQuery:          envInt("PLACES_MAX_PER_QUERY", 20),
		MaxPhotosPerPlace:          envInt("PLACES_MAX_PHOTOS_PER_PLACE", 5),
		MaxPhotosToShowImmediately: envInt("PLACES_MAX_PHOTOS_TO_SHOW", 3),
		FanOutLimit:                envInt("PLACES_FAN_OUT_LIMIT", 8),
		PhotoStorageInterval:       time.Duration(envInt("PHOTO_STORAGE_INTERVAL_SECONDS", 60)) * time.Second,
	}
}

func envFloat(key string, fallback float64) float64 {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return fallback
}
