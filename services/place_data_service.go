package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlaceDataService is the relational store behind the engine: canonical
// places, external id mappings and place photos, all on one gorm handle.
type PlaceDataService struct {
	db  *gorm.DB
	cfg *config.PlacesConfig
}

func NewPlaceDataService(db *gorm.DB, cfg *config.PlacesConfig) *PlaceDataService {
	return &PlaceDataService{db: db, cfg: cfg}
}

// GetClosestPlaces returns cached places within the configured bounding box
// of the query point, optionally filtered by a case-insensitive keyword over
// name, description and category. A read failure degrades to an empty
// result: at this layer "found nothing" and "lookup failed" are the same,
// and the caller falls through to the provider either way.
func (s *PlaceDataService) GetClosestPlaces(ctx context.Context, lat, lng float64, keyword string) []models.Place {
	delta := s.cfg.CacheBoxDelta

	query := s.db.WithContext(ctx).Model(&models.Place{}).
		Where("latitude BETWEEN ? AND ?", lat-delta, lat+delta).
		Where("longitude BETWEEN ? AND ?", lng-delta, lng+delta)

	if kw := strings.TrimSpace(keyword); kw != "" {
		pattern := "%" + kw + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ? OR category ILIKE ?", pattern, pattern, pattern)
	}

	var places []models.Place
	if err := query.Limit(s.cfg.MaxPlacesPerQuery).Find(&places).Error; err != nil {
		log.Error().Err(err).
			Float64("latitude", lat).
			Float64("longitude", lng).
			Str("keyword", keyword).
			Msg("Fetching places from cache failed")
		return nil
	}

	return places
}

// InsertPlaces upserts canonical place rows keyed on place_id. Unlike reads,
// a write failure propagates: dropping it would leave the identity tables
// pointing at places that were never stored.
func (s *PlaceDataService) InsertPlaces(ctx context.Context, places []models.Place) error {
	if len(places) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "place_id"}},
		UpdateAll: true,
	}).Create(&places).Error
	if err != nil {
		return fmt.Errorf("upserting %d places: %w", len(places), err)
	}

	log.Info().Int("count", len(places)).Msg("Upserted places")
	return nil
}

func (s *PlaceDataService) GetPlacesByIDs(ctx context.Context, placeIDs []string) ([]models.Place, error) {
	if len(placeIDs) == 0 {
		return nil, nil
	}

	var places []models.Place
	if err := s.db.WithContext(ctx).Where("place_id IN ?", placeIDs).Find(&places).Error; err != nil {
		return nil, fmt.Errorf("fetching places by ids: %w", err)
	}
	return places, nil
}

// GetPlacesInBoundingBox returns candidate places for fuzzy matching. Unlike
// cache reads this propagates errors, because a failed candidate query must
// not be mistaken for "no candidates" and silently mint a duplicate.
func (s *PlaceDataService) GetPlacesInBoundingBox(ctx context.Context, lat, lng, delta float64) ([]models.Place, error) {
	var places []models.Place
	err := s.db.WithContext(ctx).
		Where("latitude BETWEEN ? AND ?", lat-delta, lat+delta).
		Where("longitude BETWEEN ? AND ?", lng-delta, lng+delta).
		Find(&places).Error
	if err != nil {
		return nil, fmt.Errorf("querying fuzzy-match candidates: %w", err)
	}
	return places, nil
}

// GetExternalPlaceIDMapping returns the canonical place id mapped to
// (source, externalID), or "" when no mapping exists.
func (s *PlaceDataService) GetExternalPlaceIDMapping(ctx context.Context, source, externalID string) (string, error) {
	var mapping models.ExternalPlaceID
	err := s.db.WithContext(ctx).
		Where("source = ? AND external_id = ?", source, externalID).
		First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up mapping for %s:%s: %w", source, externalID, err)
	}
	return mapping.PlaceID, nil
}

func (s *PlaceDataService) CreateExternalPlaceIDMapping(ctx context.Context, placeID, source, externalID string) error {
	mapping := models.ExternalPlaceID{
		PlaceID:    placeID,
		Source:     source,
		ExternalID: externalID,
	}
	if err := s.db.WithContext(ctx).Create(&mapping).Error; err != nil {
		return fmt.Errorf("creating mapping %s:%s -> %s: %w", source, externalID, placeID, err)
	}
	return nil
}

// GetExternalIDsForPlaces returns a canonical-id -> external-id map for the
// given source, covering the requested places.
func (s *PlaceDataService) GetExternalIDsForPlaces(ctx context.Context, placeIDs []string, source string) (map[string]string, error) {
	if len(placeIDs) == 0 {
		return map[string]string{}, nil
	}

	var mappings []models.ExternalPlaceID
	err := s.db.WithContext(ctx).
		Where("place_id IN ? AND source = ?", placeIDs, source).
		Find(&mappings).Error
	if err != nil {
		return nil, fmt.Errorf("fetching external ids for places: %w", err)
	}

	byPlace := make(map[string]string, len(mappings))
	for _, m := range mappings {
		byPlace[m.PlaceID] = m.ExternalID
	}
	return byPlace, nil
}

func (s *PlaceDataService) CountPlacePhotos(ctx context.Context, placeID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PlacePhoto{}).
		Where("place_id = ?", placeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting photos for place %s: %w", placeID, err)
	}
	return count, nil
}

// InsertPlacePhotos inserts photo rows, ignoring rows whose
// (place_id, photo_reference_name) already exists so repeated queuing is
// safe. Missing ids are minted here; the row id is store-generated as far
// as callers are concerned.
func (s *PlaceDataService) InsertPlacePhotos(ctx context.Context, photos []models.PlacePhoto) error {
	if len(photos) == 0 {
		return nil
	}

	for i := range photos {
		if photos[i].PlacePhotoID == "" {
			photos[i].PlacePhotoID = uuid.NewString()
		}
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "place_id"}, {Name: "photo_reference_name"}},
		DoNothing: true,
	}).Create(&photos).Error
	if err != nil {
		return fmt.Errorf("upserting %d place photos: %w", len(photos), err)
	}
	return nil
}

func (s *PlaceDataService) GetPhotosForPlaces(ctx context.Context, placeIDs []string) ([]models.PlacePhoto, error) {
	if len(placeIDs) == 0 {
		return nil, nil
	}

	var photos []models.PlacePhoto
	if err := s.db.WithContext(ctx).Where("place_id IN ?", placeIDs).Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("fetching photos for places: %w", err)
	}
	return photos, nil
}

// ListUnstoredPhotos returns photo rows not yet copied to durable storage,
// oldest first.
func (s *PlaceDataService) ListUnstoredPhotos(ctx context.Context, limit int) ([]models.PlacePhoto, error) {
	var photos []models.PlacePhoto
	err := s.db.WithContext(ctx).
		Where("storage_path IS NULL").
		Order("created_at").
		Limit(limit).
		Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("listing unstored photos: %w", err)
	}
	return photos, nil
}

func (s *PlaceDataService) MarkPhotoStored(ctx context.Context, placePhotoID, storagePath, storedURI string) error {
	err := s.db.WithContext(ctx).Model(&models.PlacePhoto{}).
		Where("place_photo_id = ?", placePhotoID).
		Updates(map[string]interface{}{
			"storage_path": storagePath,
			"stored_uri":   storedURI,
		}).Error
	if err != nil {
		return fmt.Errorf("marking photo %s stored: %w", placePhotoID, err)
	}
	return nil
}
