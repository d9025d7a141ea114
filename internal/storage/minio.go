package storage

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const mediaBucket = "consult-media"

// MediaStorage is the blob-store collaborator. It holds raw question and
// response media under logical paths and mints time-limited read URLs.
type MediaStorage struct {
	client *minio.Client
}

func NewMediaStorage(cfg config.MinioConfig) (*MediaStorage, error) {
	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		log.Printf("Invalid value for MinIO secure flag: %v. Defaulting to false.", err)
		isSecure = false
	}

	minioClient, err := minio.New(cfg.MinioURL, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to MinIO client: %w", err)
	}

	if err := ensureBucket(minioClient, mediaBucket, cfg.MinioLocation); err != nil {
		return nil, err
	}

	return &MediaStorage{client: minioClient}, nil
}

func ensureBucket(client *minio.Client, bucketName, location string) error {
	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("error creating bucket %s: %w", bucketName, err)
		}
		log.Printf("Bucket created: %s", bucketName)
	}
	return nil
}

// UploadBookingMedia stores a question/response/follow-up file for a booking
// and returns the object path.
func (s *MediaStorage) UploadBookingMedia(ctx context.Context, bookingID, slot, extension string, upload *models.MediaUpload) (string, error) {
	object := fmt.Sprintf("bookings/%s/%s_%d.%s", bookingID, slot, time.Now().UnixNano(), extension)
	return s.put(ctx, object, upload)
}

// UploadMessageMedia stores a direct-message attachment under its
// subscription thread.
func (s *MediaStorage) UploadMessageMedia(ctx context.Context, subscriptionID, extension string, upload *models.MediaUpload) (string, error) {
	object := fmt.Sprintf("messages/%s/%d.%s", subscriptionID, time.Now().UnixNano(), extension)
	return s.put(ctx, object, upload)
}

func (s *MediaStorage) put(ctx context.Context, object string, upload *models.MediaUpload) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := s.client.PutObject(ctx, mediaBucket, object, upload.Reader, upload.Size, minio.PutObjectOptions{
		ContentType: upload.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	return object, nil
}

// PresignedURL mints a time-limited read URL for a stored object path.
func (s *MediaStorage) PresignedURL(ctx context.Context, object string, expiry time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	u, err := s.client.PresignedGetObject(ctx, mediaBucket, object, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", object, err)
	}
	return u.String(), nil
}
