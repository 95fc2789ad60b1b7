package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/models"
	"github.com/grubber-app/api-go/types"
	"github.com/grubber-app/api-go/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// PlaceSourceGoogle is the source tag stored on external id mappings for
// records reconciled from the Google Places APIs.
const PlaceSourceGoogle = "google"

// defaultSearchKeyword is used when a caller searches with no keyword.
const defaultSearchKeyword = "restaurant"

type PlaceCache interface {
	GetClosestPlaces(ctx context.Context, lat, lng float64, keyword string) []models.Place
	InsertPlaces(ctx context.Context, places []models.Place) error
	GetPlacesByIDs(ctx context.Context, placeIDs []string) ([]models.Place, error)
}

type NearbyProvider interface {
	FetchNearbyWithDetails(ctx context.Context, keyword string, coords types.Coordinates) ([]types.GooglePlaceDetails, error)
}

type IdentityResolver interface {
	ResolvePlaceID(ctx context.Context, source string, detail types.GooglePlaceDetails) (string, error)
}

type PhotoBackfiller interface {
	QueuePhotoProcessingForPlace(ctx context.Context, detail types.GooglePlaceDetails, placeID string) error
	GetAugmentedPhotosForPlaces(ctx context.Context, places []models.Place, preFetched []types.GooglePlaceDetails) ([]types.PlaceWithPhotos, error)
}

// PlacesService is the cache-first entry point of the engine: serve matching
// cached places when there are enough of them, otherwise fetch from the
// provider, reconcile identities, persist, and backfill photos.
type PlacesService struct {
	cache    PlaceCache
	provider NearbyProvider
	identity IdentityResolver
	photos   PhotoBackfiller
	cfg      *config.PlacesConfig
}

func NewPlacesService(cache PlaceCache, provider NearbyProvider, identity IdentityResolver, photos PhotoBackfiller, cfg *config.PlacesConfig) *PlacesService {
	return &PlacesService{
		cache:    cache,
		provider: provider,
		identity: identity,
		photos:   photos,
		cfg:      cfg,
	}
}

// FindNearbyPlaces returns places near the given point, optionally filtered
// by keyword. The provider is only consulted when the cache holds fewer than
// the threshold number of matches.
func (s *PlacesService) FindNearbyPlaces(ctx context.Context, lat, lng float64, keyword string) ([]types.PlaceWithPhotos, error) {
	cached := s.cache.GetClosestPlaces(ctx, lat, lng, keyword)

	if len(cached) >= s.cfg.CacheThreshold {
		log.Info().Int("count", len(cached)).Msg("Serving nearby places from cache")
		return s.photos.GetAugmentedPhotosForPlaces(ctx, cached, nil)
	}

	log.Info().
		Int("cached", len(cached)).
		Int("threshold", s.cfg.CacheThreshold).
		Msg("Cache below threshold, fetching from provider")
	return s.fetchProcessAndStore(ctx, lat, lng, keyword)
}

func (s *PlacesService) fetchProcessAndStore(ctx context.Context, lat, lng float64, keyword string) ([]types.PlaceWithPhotos, error) {
	search := strings.TrimSpace(keyword)
	if search == "" {
		search = defaultSearchKeyword
	}

	details, err := s.provider.FetchNearbyWithDetails(ctx, search, types.Coordinates{Latitude: lat, Longitude: lng})
	if err != nil {
		return nil, fmt.Errorf("fetching nearby places from provider: %w", err)
	}
	if len(details) == 0 {
		return []types.PlaceWithPhotos{}, nil
	}

	placeIDs, err := s.resolveIdentities(ctx, details)
	if err != nil {
		return nil, err
	}

	idByExternal := make(map[string]string, len(details))
	ids := make([]string, 0, len(details))
	for i, detail := range details {
		idByExternal[detail.ID] = placeIDs[i]
		ids = append(ids, placeIDs[i])
	}

	converted := utils.ConvertGoogleDetailsToPlaces(details, idByExternal)
	if err := s.cache.InsertPlaces(ctx, converted); err != nil {
		return nil, err
	}

	s.queuePhotos(ctx, details, placeIDs)

	stored, err := s.cache.GetPlacesByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("Re-reading upserted places failed")
	}
	if len(stored) == 0 {
		// Read-after-write lag must not leave the caller empty-handed.
		log.Warn().Msg("Re-read after upsert returned no rows, serving converted rows")
		stored = converted
	}

	return s.photos.GetAugmentedPhotosForPlaces(ctx, stored, details)
}

// resolveIdentities reconciles every record of the batch concurrently. Each
// record is resolved independently, so one slow or failing resolution does
// not block the rest, but any record that cannot be reconciled at all fails
// the batch: partial persistence would make repeated searches return
// different result sets.
func (s *PlacesService) resolveIdentities(ctx context.Context, details []types.GooglePlaceDetails) ([]string, error) {
	placeIDs := make([]string, len(details))

	var g errgroup.Group
	g.SetLimit(s.cfg.FanOutLimit)
	for i, detail := range details {
		g.Go(func() error {
			placeID, err := s.identity.ResolvePlaceID(ctx, PlaceSourceGoogle, detail)
			if err != nil {
				return err
			}
			placeIDs[i] = placeID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reconciling place identities: %w", err)
	}

	return placeIDs, nil
}

// queuePhotos kicks off photo backfill for every record. Queuing failures
// only cost photos, never the response.
func (s *PlacesService) queuePhotos(ctx context.Context, details []types.GooglePlaceDetails, placeIDs []string) {
	var g errgroup.Group
	g.SetLimit(s.cfg.FanOutLimit)
	for i, detail := range details {
		placeID := placeIDs[i]
		g.Go(func() error {
			if err := s.photos.QueuePhotoProcessingForPlace(ctx, detail, placeID); err != nil {
				log.Error().Err(err).Str("place_id", placeID).Msg("Queuing photos failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}
