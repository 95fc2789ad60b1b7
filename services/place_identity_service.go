package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/models"
	"github.com/grubber-app/api-go/types"
	"github.com/grubber-app/api-go/utils"
	"github.com/rs/zerolog/log"
)

// IdentityStore is the slice of the relational store the reconciliation
// service needs.
type IdentityStore interface {
	GetExternalPlaceIDMapping(ctx context.Context, source, externalID string) (string, error)
	CreateExternalPlaceIDMapping(ctx context.Context, placeID, source, externalID string) error
	GetPlacesInBoundingBox(ctx context.Context, lat, lng, delta float64) ([]models.Place, error)
}

// PlaceIdentityService resolves an external place record to a canonical
// place id: direct mapping first, geographic+name fuzzy match second, and a
// freshly minted id as a last resort. Resolution is idempotent because the
// mapping written on first resolution short-circuits every later call.
type PlaceIdentityService struct {
	store IdentityStore
	cfg   *config.PlacesConfig
}

func NewPlaceIdentityService(store IdentityStore, cfg *config.PlacesConfig) *PlaceIdentityService {
	return &PlaceIdentityService{store: store, cfg: cfg}
}

// ResolvePlaceID produces the canonical place id for one external record.
// A record missing its id, name or coordinates cannot be reconciled and
// fails outright: skipping it silently would make repeated searches
// non-deterministic.
func (s *PlaceIdentityService) ResolvePlaceID(ctx context.Context, source string, detail types.GooglePlaceDetails) (string, error) {
	name := utils.GoogleDisplayName(detail)
	if detail.ID == "" || name == "" || detail.Location == nil {
		return "", fmt.Errorf("record %q from %s is missing id, name or coordinates", detail.ID, source)
	}

	existing, err := s.store.GetExternalPlaceIDMapping(ctx, source, detail.ID)
	if err != nil {
		return "", fmt.Errorf("resolving %s:%s: %w", source, detail.ID, err)
	}
	if existing != "" {
		return existing, nil
	}

	matched, err := s.findFuzzyMatch(ctx, name, detail.Location.Latitude, detail.Location.Longitude)
	if err != nil {
		return "", fmt.Errorf("resolving %s:%s: %w", source, detail.ID, err)
	}
	if matched != "" {
		log.Info().
			Str("source", source).
			Str("external_id", detail.ID).
			Str("place_id", matched).
			Msg("Linked external record to existing place")
		if err := s.store.CreateExternalPlaceIDMapping(ctx, matched, source, detail.ID); err != nil {
			// The match itself stands; the link will be retried the next
			// time this record misses the direct lookup.
			log.Error().Err(err).Str("external_id", detail.ID).Msg("Linking external id to existing place failed")
		}
		return matched, nil
	}

	placeID := uuid.NewString()
	if err := s.store.CreateExternalPlaceIDMapping(ctx, placeID, source, detail.ID); err != nil {
		return "", fmt.Errorf("minting identity for %s:%s: %w", source, detail.ID, err)
	}
	log.Info().
		Str("source", source).
		Str("external_id", detail.ID).
		Str("place_id", placeID).
		Msg("Minted new canonical place id")
	return placeID, nil
}

// findFuzzyMatch looks for exactly one existing place in a tight bounding
// box whose name equals the record's (case-insensitively) and whose
// great-circle distance is within the match radius. Zero or several
// survivors both mean "no match": when in doubt we mint a new identity
// rather than guess.
func (s *PlaceIdentityService) findFuzzyMatch(ctx context.Context, name string, lat, lng float64) (string, error) {
	candidates, err := s.store.GetPlacesInBoundingBox(ctx, lat, lng, s.cfg.FuzzyBoxDelta)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}

	var matches []models.Place
	for _, candidate := range candidates {
		if candidate.PlaceID == "" || candidate.Name == "" {
			log.Warn().Str("place_id", candidate.PlaceID).Msg("Skipping fuzzy-match candidate with missing data")
			continue
		}
		if !strings.EqualFold(candidate.Name, name) {
			continue
		}
		distance := utils.HaversineDistanceKm(lat, lng, candidate.Latitude, candidate.Longitude)
		if distance <= s.cfg.FuzzyMatchRadiusKm {
			matches = append(matches, candidate)
		}
	}

	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0].PlaceID, nil
	default:
		log.Warn().
			Str("name", name).
			Int("matches", len(matches)).
			Msg("Multiple fuzzy matches, refusing to pick one")
		return "", nil
	}
}
