package services

import (
	"context"
	"fmt"

	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/models"
	"github.com/grubber-app/api-go/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// PhotoStore is the slice of the relational store the photo service needs.
type PhotoStore interface {
	CountPlacePhotos(ctx context.Context, placeID string) (int64, error)
	InsertPlacePhotos(ctx context.Context, photos []models.PlacePhoto) error
	GetPhotosForPlaces(ctx context.Context, placeIDs []string) ([]models.PlacePhoto, error)
	GetExternalIDsForPlaces(ctx context.Context, placeIDs []string, source string) (map[string]string, error)
}

// PhotoProvider is the slice of the provider client the photo service needs.
type PhotoProvider interface {
	FetchDetails(ctx context.Context, externalID string) (*types.GooglePlaceDetails, error)
	FetchPhotoURI(ctx context.Context, photoReferenceName string) (*types.GooglePhotoMedia, error)
}

// PlacePhotoService keeps each place stocked with up to MaxPhotosPerPlace
// persisted photos and assembles the photo lists attached to API responses.
type PlacePhotoService struct {
	store    PhotoStore
	provider PhotoProvider
	cfg      *config.PlacesConfig
}

func NewPlacePhotoService(store PhotoStore, provider PhotoProvider, cfg *config.PlacesConfig) *PlacePhotoService {
	return &PlacePhotoService{store: store, provider: provider, cfg: cfg}
}

// QueuePhotoProcessingForPlace tops up the persisted photos of one place
// from the provider details, up to the per-place cap. New rows are written
// with a nil storage path; the storage worker persists the bytes later.
// Duplicate references are ignored by the store, so repeated queuing is safe.
func (s *PlacePhotoService) QueuePhotoProcessingForPlace(ctx context.Context, detail types.GooglePlaceDetails, placeID string) error {
	existing, err := s.store.CountPlacePhotos(ctx, placeID)
	if err != nil {
		return fmt.Errorf("queuing photos for place %s: %w", placeID, err)
	}

	needed := s.cfg.MaxPhotosPerPlace - int(existing)
	if needed <= 0 {
		return nil
	}

	refs := detail.Photos
	if len(refs) > needed {
		refs = refs[:needed]
	}
	if len(refs) == 0 {
		return nil
	}

	photos := make([]models.PlacePhoto, 0, len(refs))
	for _, ref := range refs {
		if ref.Name == "" {
			log.Warn().Str("place_id", placeID).Msg("Skipping photo reference with no name")
			continue
		}

		media, err := s.provider.FetchPhotoURI(ctx, ref.Name)
		if err != nil {
			log.Error().Err(err).Str("place_id", placeID).Str("photo_reference", ref.Name).Msg("Resolving photo URI failed")
			continue
		}
		if media.PhotoURI == "" {
			log.Warn().Str("place_id", placeID).Str("photo_reference", ref.Name).Msg("Provider returned no photo URI")
			continue
		}

		photos = append(photos, models.PlacePhoto{
			PlaceID:            placeID,
			PhotoReferenceName: ref.Name,
			OriginalURI:        media.PhotoURI,
			StoragePath:        nil,
		})
	}

	if len(photos) == 0 {
		return nil
	}
	if err := s.store.InsertPlacePhotos(ctx, photos); err != nil {
		return fmt.Errorf("queuing photos for place %s: %w", placeID, err)
	}

	log.Debug().Str("place_id", placeID).Int("queued", len(photos)).Msg("Queued photos for storage")
	return nil
}

// GetAugmentedPhotosForPlaces attaches photos to each place for an API
// response. Persisted photos come first; when a place has fewer than the
// per-place cap and a provider mapping is known, the gap is filled with
// ephemeral provider URIs that are not persisted. Each final list is then
// truncated to the display cap so the response size stays bounded no matter
// how many photos exist. Pre-fetched details, when given, save a second
// round of provider calls on the miss path.
func (s *PlacePhotoService) GetAugmentedPhotosForPlaces(ctx context.Context, places []models.Place, preFetched []types.GooglePlaceDetails) ([]types.PlaceWithPhotos, error) {
	if len(places) == 0 {
		return []types.PlaceWithPhotos{}, nil
	}

	placeIDs := make([]string, 0, len(places))
	for _, place := range places {
		if place.PlaceID != "" {
			placeIDs = append(placeIDs, place.PlaceID)
		}
	}

	photosByPlace := make(map[string][]types.PlacePhotoView)
	stored, err := s.store.GetPhotosForPlaces(ctx, placeIDs)
	if err != nil {
		// Degrade to provider-only augmentation rather than failing the
		// whole response.
		log.Error().Err(err).Msg("Fetching stored photos failed")
	}
	for _, photo := range stored {
		view := types.PlacePhotoView{
			PhotoReferenceName: photo.PhotoReferenceName,
			OriginalURI:        photo.OriginalURI,
			StoragePath:        photo.StoragePath,
		}
		if photo.StoredURI != nil {
			view.StoredURI = *photo.StoredURI
		}
		photosByPlace[photo.PlaceID] = append(photosByPlace[photo.PlaceID], view)
	}

	externalIDs, err := s.store.GetExternalIDsForPlaces(ctx, placeIDs, PlaceSourceGoogle)
	if err != nil {
		log.Error().Err(err).Msg("Fetching external ids for photo backfill failed")
		externalIDs = map[string]string{}
	}

	preFetchedByID := make(map[string]types.GooglePlaceDetails, len(preFetched))
	for _, detail := range preFetched {
		preFetchedByID[detail.ID] = detail
	}

	augmented := make([]types.PlaceWithPhotos, len(places))

	var g errgroup.Group
	g.SetLimit(s.cfg.FanOutLimit)
	for i, place := range places {
		g.Go(func() error {
			photos := append([]types.PlacePhotoView(nil), photosByPlace[place.PlaceID]...)
			photos = s.backfillEphemeralPhotos(ctx, place.PlaceID, photos, externalIDs, preFetchedByID)

			if len(photos) > s.cfg.MaxPhotosToShowImmediately {
				photos = photos[:s.cfg.MaxPhotosToShowImmediately]
			}
			augmented[i] = types.PlaceWithPhotos{Place: place, Photos: photos}
			return nil
		})
	}
	_ = g.Wait()

	return augmented, nil
}

func (s *PlacePhotoService) backfillEphemeralPhotos(ctx context.Context, placeID string, photos []types.PlacePhotoView, externalIDs map[string]string, preFetched map[string]types.GooglePlaceDetails) []types.PlacePhotoView {
	if placeID == "" || len(photos) >= s.cfg.MaxPhotosPerPlace {
		return photos
	}

	externalID, ok := externalIDs[placeID]
	if !ok {
		return photos
	}

	detail, ok := preFetched[externalID]
	if !ok {
		log.Info().Str("place_id", placeID).Str("external_id", externalID).Msg("Photo backfill needs details, fetching from provider")
		fetched, err := s.provider.FetchDetails(ctx, externalID)
		if err != nil || fetched == nil {
			log.Error().Err(err).Str("external_id", externalID).Msg("Fetching details for photo backfill failed")
			return photos
		}
		detail = *fetched
	}
	if len(detail.Photos) == 0 {
		return photos
	}

	seen := make(map[string]bool, len(photos))
	for _, photo := range photos {
		seen[photo.PhotoReferenceName] = true
	}

	needed := s.cfg.MaxPhotosPerPlace - len(photos)
	for _, ref := range detail.Photos {
		if needed <= 0 {
			break
		}
		if ref.Name == "" || seen[ref.Name] {
			continue
		}

		media, err := s.provider.FetchPhotoURI(ctx, ref.Name)
		if err != nil {
			log.Warn().Err(err).Str("place_id", placeID).Str("photo_reference", ref.Name).Msg("Fetching ephemeral photo URI failed")
			continue
		}
		if media.PhotoURI == "" {
			continue
		}

		photos = append(photos, types.PlacePhotoView{
			PhotoReferenceName: ref.Name,
			OriginalURI:        media.PhotoURI,
			StoragePath:        nil, // ephemeral, never persisted
		})
		needed--
	}

	return photos
}
