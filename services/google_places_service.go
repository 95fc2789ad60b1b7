package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// detailsFieldMask limits detail responses to the fields we map onto
// canonical places. Keeping it tight matters for quota cost.
const detailsFieldMask = "id,name,photos,formattedAddress,nationalPhoneNumber,location,displayName,regularOpeningHours,priceLevel,rating,userRatingCount,websiteUri,types,editorialSummary"

// GooglePlacesService wraps the Google Places APIs: legacy Nearby Search for
// discovery, and the v1 endpoints for details and photo media.
type GooglePlacesService struct {
	cfg    *config.GooglePlacesConfig
	client *http.Client
}

func NewGooglePlacesService(cfg *config.GooglePlacesConfig) *GooglePlacesService {
	return &GooglePlacesService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// FetchNearbySearch runs one nearby search. A transport or provider error
// fails the whole call; the caller needs to know the search itself failed.
func (s *GooglePlacesService) FetchNearbySearch(ctx context.Context, keyword string, coords types.Coordinates) ([]types.PlaceResult, error) {
	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("location", fmt.Sprintf("%v,%v", coords.Latitude, coords.Longitude))
	params.Set("radius", strconv.Itoa(s.cfg.SearchRadiusMeters))
	params.Set("keyword", keyword)
	params.Set("type", "restaurant")
	params.Set("rankby", "prominence")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.NearbySearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building nearby search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading nearby search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nearby search returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp types.GooglePlacesResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("decoding nearby search response: %w", err)
	}
	if searchResp.Status != "OK" && searchResp.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("nearby search returned status %q: %s", searchResp.Status, searchResp.ErrorMessage)
	}

	return searchResp.Results, nil
}

// FetchDetails fetches v1 details for one external place id. Errors are
// per-item: callers log and skip so one bad record cannot sink a batch.
func (s *GooglePlacesService) FetchDetails(ctx context.Context, externalID string) (*types.GooglePlaceDetails, error) {
	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("fields", detailsFieldMask)

	reqURL := fmt.Sprintf("%s/%s?%s", s.cfg.DetailsURL, externalID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building details request for %s: %w", externalID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("details request for %s failed: %w", externalID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading details response for %s: %w", externalID, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("details for %s returned status %d: %s", externalID, resp.StatusCode, string(body))
	}

	var details types.GooglePlaceDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("decoding details response for %s: %w", externalID, err)
	}

	return &details, nil
}

// FetchPhotoURI resolves a photo reference name to a short-lived fetchable
// URI. Like FetchDetails, failures are per-item.
func (s *GooglePlacesService) FetchPhotoURI(ctx context.Context, photoReferenceName string) (*types.GooglePhotoMedia, error) {
	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("maxHeightPx", strconv.Itoa(s.cfg.PhotoMaxHeightPx))
	params.Set("skipHttpRedirect", "true")

	reqURL := fmt.Sprintf("%s/%s/media?%s", s.cfg.PhotosURL, photoReferenceName, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building photo media request for %s: %w", photoReferenceName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("photo media request for %s failed: %w", photoReferenceName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading photo media response for %s: %w", photoReferenceName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("photo media for %s returned status %d: %s", photoReferenceName, resp.StatusCode, string(body))
	}

	var media types.GooglePhotoMedia
	if err := json.Unmarshal(body, &media); err != nil {
		return nil, fmt.Errorf("decoding photo media response for %s: %w", photoReferenceName, err)
	}

	return &media, nil
}

// FetchNearbyWithDetails is the engine's provider-facing entry point on the
// cache-miss path: one nearby search, then a bounded parallel detail fetch
// per result. Results whose detail fetch fails are dropped.
func (s *GooglePlacesService) FetchNearbyWithDetails(ctx context.Context, keyword string, coords types.Coordinates) ([]types.GooglePlaceDetails, error) {
	results, err := s.FetchNearbySearch(ctx, keyword, coords)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		log.Info().Str("keyword", keyword).Msg("No nearby places found from provider")
		return nil, nil
	}

	fetched := make([]*types.GooglePlaceDetails, len(results))

	var g errgroup.Group
	g.SetLimit(8)
	for i, result := range results {
		if result.PlaceID == "" {
			log.Warn().Str("name", result.Name).Msg("Search result without a place id, skipping detail fetch")
			continue
		}
		g.Go(func() error {
			details, err := s.FetchDetails(ctx, result.PlaceID)
			if err != nil {
				log.Error().Err(err).Str("external_id", result.PlaceID).Msg("Fetching place details failed")
				return nil
			}
			fetched[i] = details
			return nil
		})
	}
	// Per-item failures are swallowed above; Wait only flushes the group.
	_ = g.Wait()

	details := make([]types.GooglePlaceDetails, 0, len(fetched))
	for _, d := range fetched {
		if d != nil {
			details = append(details, *d)
		}
	}

	log.Info().Int("search_results", len(results)).Int("details", len(details)).Msg("Fetched nearby places with details")
	return details, nil
}
