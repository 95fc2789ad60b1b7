package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGoogleService(serverURL string) *GooglePlacesService {
	return NewGooglePlacesService(&config.GooglePlacesConfig{
		APIKey:             "test-key",
		NearbySearchURL:    serverURL + "/maps/api/place/nearbysearch/json",
		DetailsURL:         serverURL + "/v1/places",
		PhotosURL:          serverURL + "/v1",
		SearchRadiusMeters: 5000,
		PhotoMaxHeightPx:   1600,
		RequestTimeout:     2 * time.Second,
	})
}

func nearbyResponse(placeIDs ...string) types.GooglePlacesResponse {
	resp := types.GooglePlacesResponse{Status: "OK"}
	for _, id := range placeIDs {
		resp.Results = append(resp.Results, types.PlaceResult{PlaceID: id, Name: "result " + id})
	}
	return resp
}

func TestFetchNearbySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "coffee", r.URL.Query().Get("keyword"))
		assert.Equal(t, "37.77,-122.42", r.URL.Query().Get("location"))
		assert.Equal(t, "5000", r.URL.Query().Get("radius"))
		json.NewEncoder(w).Encode(nearbyResponse("ext-1", "ext-2"))
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	results, err := service.FetchNearbySearch(context.Background(), "coffee", types.Coordinates{Latitude: 37.77, Longitude: -122.42})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "ext-1", results[0].PlaceID)
}

func TestFetchNearbySearch_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"REQUEST_DENIED"}`))
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	_, err := service.FetchNearbySearch(context.Background(), "coffee", types.Coordinates{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestFetchNearbySearch_ErrorStatusInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.GooglePlacesResponse{
			Status:       "OVER_QUERY_LIMIT",
			ErrorMessage: "quota exceeded",
		})
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	_, err := service.FetchNearbySearch(context.Background(), "coffee", types.Coordinates{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT")
}

func TestFetchDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/places/ext-1"))
		assert.NotEmpty(t, r.URL.Query().Get("fields"))
		json.NewEncoder(w).Encode(types.GooglePlaceDetails{
			ID:          "ext-1",
			DisplayName: &types.LocalizedText{Text: "Some Diner"},
			Location:    &types.LatLng{Latitude: 37.77, Longitude: -122.42},
		})
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	details, err := service.FetchDetails(context.Background(), "ext-1")

	require.NoError(t, err)
	assert.Equal(t, "ext-1", details.ID)
	assert.Equal(t, "Some Diner", details.DisplayName.Text)
}

func TestFetchPhotoURI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/media"))
		assert.Equal(t, "1600", r.URL.Query().Get("maxHeightPx"))
		assert.Equal(t, "true", r.URL.Query().Get("skipHttpRedirect"))
		json.NewEncoder(w).Encode(types.GooglePhotoMedia{
			Name:     "places/ext-1/photos/p1",
			PhotoURI: "https://lh3.example.com/p1",
		})
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	media, err := service.FetchPhotoURI(context.Background(), "places/ext-1/photos/p1")

	require.NoError(t, err)
	assert.Equal(t, "https://lh3.example.com/p1", media.PhotoURI)
}

func TestFetchNearbyWithDetails_DropsFailedDetailFetches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "nearbysearch") {
			json.NewEncoder(w).Encode(nearbyResponse("ext-1", "ext-2", "ext-3"))
			return
		}
		if strings.HasSuffix(r.URL.Path, "/v1/places/ext-2") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		json.NewEncoder(w).Encode(types.GooglePlaceDetails{
			ID:          id,
			DisplayName: &types.LocalizedText{Text: "place " + id},
			Location:    &types.LatLng{Latitude: 37.77, Longitude: -122.42},
		})
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	details, err := service.FetchNearbyWithDetails(context.Background(), "coffee", types.Coordinates{Latitude: 37.77, Longitude: -122.42})

	require.NoError(t, err)
	require.Len(t, details, 2)
	ids := []string{details[0].ID, details[1].ID}
	assert.ElementsMatch(t, []string{"ext-1", "ext-3"}, ids)
}

func TestFetchNearbyWithDetails_EmptySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.GooglePlacesResponse{Status: "ZERO_RESULTS"})
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	details, err := service.FetchNearbyWithDetails(context.Background(), "coffee", types.Coordinates{})

	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestFetchNearbyWithDetails_SearchFailurePropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	service := newTestGoogleService(server.URL)
	_, err := service.FetchNearbyWithDetails(context.Background(), "coffee", types.Coordinates{})

	require.Error(t, err)
}
