package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/models"
	"github.com/grubber-app/api-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPhotoStore struct {
	mock.Mock
}

func (m *mockPhotoStore) CountPlacePhotos(ctx context.Context, placeID string) (int64, error) {
	args := m.Called(ctx, placeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPhotoStore) InsertPlacePhotos(ctx context.Context, photos []models.PlacePhoto) error {
	args := m.Called(ctx, photos)
	return args.Error(0)
}

func (m *mockPhotoStore) GetPhotosForPlaces(ctx context.Context, placeIDs []string) ([]models.PlacePhoto, error) {
	args := m.Called(ctx, placeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlacePhoto), args.Error(1)
}

func (m *mockPhotoStore) GetExternalIDsForPlaces(ctx context.Context, placeIDs []string, source string) (map[string]string, error) {
	args := m.Called(ctx, placeIDs, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type mockPhotoProvider struct {
	mock.Mock
}

func (m *mockPhotoProvider) FetchDetails(ctx context.Context, externalID string) (*types.GooglePlaceDetails, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GooglePlaceDetails), args.Error(1)
}

func (m *mockPhotoProvider) FetchPhotoURI(ctx context.Context, photoReferenceName string) (*types.GooglePhotoMedia, error) {
	args := m.Called(ctx, photoReferenceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.GooglePhotoMedia), args.Error(1)
}

func photoTestConfig() *config.PlacesConfig {
	return &config.PlacesConfig{
		MaxPhotosPerPlace:          5,
		MaxPhotosToShowImmediately: 3,
		FanOutLimit:                4,
	}
}

func detailWithPhotos(externalID string, refCount int) types.GooglePlaceDetails {
	detail := types.GooglePlaceDetails{ID: externalID}
	for i := 0; i < refCount; i++ {
		detail.Photos = append(detail.Photos, types.GooglePhotoReference{
			Name: fmt.Sprintf("places/%s/photos/p%d", externalID, i),
		})
	}
	return detail
}

func TestQueuePhotoProcessing_AtCapDoesNothing(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)
	store.On("CountPlacePhotos", mock.Anything, "place-1").Return(int64(5), nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	err := service.QueuePhotoProcessingForPlace(context.Background(), detailWithPhotos("ext-1", 8), "place-1")

	require.NoError(t, err)
	provider.AssertNotCalled(t, "FetchPhotoURI", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertPlacePhotos", mock.Anything, mock.Anything)
}

func TestQueuePhotoProcessing_TopsUpToCap(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)
	store.On("CountPlacePhotos", mock.Anything, "place-1").Return(int64(3), nil)
	provider.On("FetchPhotoURI", mock.Anything, "places/ext-1/photos/p0").Return(&types.GooglePhotoMedia{PhotoURI: "https://p0"}, nil)
	provider.On("FetchPhotoURI", mock.Anything, "places/ext-1/photos/p1").Return(&types.GooglePhotoMedia{PhotoURI: "https://p1"}, nil)
	store.On("InsertPlacePhotos", mock.Anything, mock.MatchedBy(func(photos []models.PlacePhoto) bool {
		return len(photos) == 2 && photos[0].StoragePath == nil && photos[0].OriginalURI == "https://p0"
	})).Return(nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	err := service.QueuePhotoProcessingForPlace(context.Background(), detailWithPhotos("ext-1", 8), "place-1")

	require.NoError(t, err)
	store.AssertExpectations(t)
	// Only the first two references are touched; the cap bounds provider calls.
	provider.AssertNumberOfCalls(t, "FetchPhotoURI", 2)
}

func TestQueuePhotoProcessing_SkipsFailedURIResolution(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)
	store.On("CountPlacePhotos", mock.Anything, "place-1").Return(int64(3), nil)
	provider.On("FetchPhotoURI", mock.Anything, "places/ext-1/photos/p0").Return(nil, errors.New("rate limited"))
	provider.On("FetchPhotoURI", mock.Anything, "places/ext-1/photos/p1").Return(&types.GooglePhotoMedia{PhotoURI: "https://p1"}, nil)
	store.On("InsertPlacePhotos", mock.Anything, mock.MatchedBy(func(photos []models.PlacePhoto) bool {
		return len(photos) == 1 && photos[0].PhotoReferenceName == "places/ext-1/photos/p1"
	})).Return(nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	err := service.QueuePhotoProcessingForPlace(context.Background(), detailWithPhotos("ext-1", 2), "place-1")

	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestQueuePhotoProcessing_NoReferences(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)
	store.On("CountPlacePhotos", mock.Anything, "place-1").Return(int64(0), nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	err := service.QueuePhotoProcessingForPlace(context.Background(), types.GooglePlaceDetails{ID: "ext-1"}, "place-1")

	require.NoError(t, err)
	store.AssertNotCalled(t, "InsertPlacePhotos", mock.Anything, mock.Anything)
}

func TestGetAugmentedPhotos_TruncatesToDisplayCap(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)

	storedURI := "https://cdn/p0.jpg"
	path := "places/place-1/p0.jpg"
	stored := []models.PlacePhoto{
		{PlaceID: "place-1", PhotoReferenceName: "r0", OriginalURI: "https://p0", StoragePath: &path, StoredURI: &storedURI},
		{PlaceID: "place-1", PhotoReferenceName: "r1", OriginalURI: "https://p1"},
		{PlaceID: "place-1", PhotoReferenceName: "r2", OriginalURI: "https://p2"},
		{PlaceID: "place-1", PhotoReferenceName: "r3", OriginalURI: "https://p3"},
		{PlaceID: "place-1", PhotoReferenceName: "r4", OriginalURI: "https://p4"},
	}
	store.On("GetPhotosForPlaces", mock.Anything, []string{"place-1"}).Return(stored, nil)
	store.On("GetExternalIDsForPlaces", mock.Anything, []string{"place-1"}, "google").Return(map[string]string{"place-1": "ext-1"}, nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	result, err := service.GetAugmentedPhotosForPlaces(context.Background(), []models.Place{{PlaceID: "place-1", Name: "Taqueria Uno"}}, nil)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Len(t, result[0].Photos, 3)
	assert.Equal(t, "https://cdn/p0.jpg", result[0].Photos[0].StoredURI)
	// Already at the per-place cap, so no provider round trips happen.
	provider.AssertNotCalled(t, "FetchDetails", mock.Anything, mock.Anything)
}

func TestGetAugmentedPhotos_BackfillsFromPreFetchedDetails(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)

	store.On("GetPhotosForPlaces", mock.Anything, []string{"place-1"}).Return([]models.PlacePhoto{
		{PlaceID: "place-1", PhotoReferenceName: "places/ext-1/photos/p0", OriginalURI: "https://p0"},
	}, nil)
	store.On("GetExternalIDsForPlaces", mock.Anything, []string{"place-1"}, "google").Return(map[string]string{"place-1": "ext-1"}, nil)
	provider.On("FetchPhotoURI", mock.Anything, "places/ext-1/photos/p1").Return(&types.GooglePhotoMedia{PhotoURI: "https://p1"}, nil)
	provider.On("FetchPhotoURI", mock.Anything, "places/ext-1/photos/p2").Return(&types.GooglePhotoMedia{PhotoURI: "https://p2"}, nil)
	provider.On("FetchPhotoURI", mock.Anything, mock.Anything).Return(&types.GooglePhotoMedia{PhotoURI: "https://px"}, nil)

	detail := detailWithPhotos("ext-1", 5)
	service := NewPlacePhotoService(store, provider, photoTestConfig())
	result, err := service.GetAugmentedPhotosForPlaces(context.Background(), []models.Place{{PlaceID: "place-1"}}, []types.GooglePlaceDetails{detail})

	require.NoError(t, err)
	require.Len(t, result, 1)
	// One stored photo plus ephemeral backfill, truncated to the display cap.
	require.Len(t, result[0].Photos, 3)
	assert.Equal(t, "places/ext-1/photos/p0", result[0].Photos[0].PhotoReferenceName)
	assert.Nil(t, result[0].Photos[1].StoragePath)
	// The stored reference is deduplicated, p0 is never re-resolved.
	provider.AssertNotCalled(t, "FetchPhotoURI", mock.Anything, "places/ext-1/photos/p0")
	// Pre-fetched details mean no second details round trip.
	provider.AssertNotCalled(t, "FetchDetails", mock.Anything, mock.Anything)
}

func TestGetAugmentedPhotos_FetchesDetailsWhenNotPreFetched(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)

	store.On("GetPhotosForPlaces", mock.Anything, []string{"place-1"}).Return([]models.PlacePhoto{}, nil)
	store.On("GetExternalIDsForPlaces", mock.Anything, []string{"place-1"}, "google").Return(map[string]string{"place-1": "ext-1"}, nil)
	detail := detailWithPhotos("ext-1", 2)
	provider.On("FetchDetails", mock.Anything, "ext-1").Return(&detail, nil)
	provider.On("FetchPhotoURI", mock.Anything, mock.AnythingOfType("string")).Return(&types.GooglePhotoMedia{PhotoURI: "https://p"}, nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	result, err := service.GetAugmentedPhotosForPlaces(context.Background(), []models.Place{{PlaceID: "place-1"}}, nil)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Len(t, result[0].Photos, 2)
	provider.AssertCalled(t, "FetchDetails", mock.Anything, "ext-1")
}

func TestGetAugmentedPhotos_NilDetailsFromProvider(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)

	store.On("GetPhotosForPlaces", mock.Anything, []string{"place-1"}).Return([]models.PlacePhoto{}, nil)
	store.On("GetExternalIDsForPlaces", mock.Anything, []string{"place-1"}, "google").Return(map[string]string{"place-1": "ext-1"}, nil)
	provider.On("FetchDetails", mock.Anything, "ext-1").Return(nil, nil)

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	result, err := service.GetAugmentedPhotosForPlaces(context.Background(), []models.Place{{PlaceID: "place-1", Name: "Taqueria Uno"}}, nil)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Empty(t, result[0].Photos)
	provider.AssertNotCalled(t, "FetchPhotoURI", mock.Anything, mock.Anything)
}

func TestGetAugmentedPhotos_StoreFailureDegrades(t *testing.T) {
	store := new(mockPhotoStore)
	provider := new(mockPhotoProvider)

	store.On("GetPhotosForPlaces", mock.Anything, []string{"place-1"}).Return(nil, errors.New("connection refused"))
	store.On("GetExternalIDsForPlaces", mock.Anything, []string{"place-1"}, "google").Return(nil, errors.New("connection refused"))

	service := NewPlacePhotoService(store, provider, photoTestConfig())
	result, err := service.GetAugmentedPhotosForPlaces(context.Background(), []models.Place{{PlaceID: "place-1", Name: "Taqueria Uno"}}, nil)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "Taqueria Uno", result[0].Name)
	assert.Empty(t, result[0].Photos)
}

func TestGetAugmentedPhotos_NoPlaces(t *testing.T) {
	service := NewPlacePhotoService(new(mockPhotoStore), new(mockPhotoProvider), photoTestConfig())

	result, err := service.GetAugmentedPhotosForPlaces(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, result)
}
