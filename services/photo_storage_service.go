package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/grubber-app/api-go/config"
	"github.com/grubber-app/api-go/models"
	"github.com/rs/zerolog/log"
)

// storageBatchSize caps how many pending photos one sweep claims.
const storageBatchSize = 20

type PhotoStorageStore interface {
	ListUnstoredPhotos(ctx context.Context, limit int) ([]models.PlacePhoto, error)
	MarkPhotoStored(ctx context.Context, placePhotoID, storagePath, storedURI string) error
}

type ObjectUploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PhotoStorageService copies queued photos to durable object storage. Photo
// rows are created with a nil storage path; this worker downloads the
// short-lived provider URI, uploads the bytes, and fills in the storage
// fields. A row that fails is simply picked up again on a later sweep, so
// the worker never blocks a request.
type PhotoStorageService struct {
	store    PhotoStorageStore
	uploader ObjectUploader
	cfg      *config.StorageConfig
	client   *http.Client
}

func NewPhotoStorageService(store PhotoStorageStore, cfg *config.StorageConfig) *PhotoStorageService {
	uploader := s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		Region: cfg.Region,
	})

	return &PhotoStorageService{
		store:    store,
		uploader: uploader,
		cfg:      cfg,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Run sweeps for unstored photos on the given interval until the context is
// cancelled. The first sweep runs immediately so photos queued before
// startup do not wait out a full interval.
func (s *PhotoStorageService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *PhotoStorageService) sweep(ctx context.Context) {
	stored, err := s.ProcessPendingPhotos(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Photo storage sweep failed")
		return
	}
	if stored > 0 {
		log.Info().Int("stored", stored).Msg("Persisted photos to object storage")
	}
}

// ProcessPendingPhotos claims one batch of unstored photos and persists each
// in turn, returning how many were stored.
func (s *PhotoStorageService) ProcessPendingPhotos(ctx context.Context) (int, error) {
	photos, err := s.store.ListUnstoredPhotos(ctx, storageBatchSize)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, photo := range photos {
		if err := s.storePhoto(ctx, photo); err != nil {
			log.Error().Err(err).
				Str("place_photo_id", photo.PlacePhotoID).
				Str("place_id", photo.PlaceID).
				Msg("Storing photo failed, will retry on a later sweep")
			continue
		}
		stored++
	}

	return stored, nil
}

func (s *PhotoStorageService) storePhoto(ctx context.Context, photo models.PlacePhoto) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photo.OriginalURI, nil)
	if err != nil {
		return fmt.Errorf("building download request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading photo: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading photo bytes: %w", err)
	}

	key := fmt.Sprintf("places/%s/%s.jpg", photo.PlaceID, photo.PlacePhotoID)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err = s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("uploading photo to storage: %w", err)
	}

	storedURI := fmt.Sprintf("%s/%s", s.cfg.PublicURL, key)
	if err := s.store.MarkPhotoStored(ctx, photo.PlacePhotoID, key, storedURI); err != nil {
		return err
	}

	return nil
}
