package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/skillswap/backend/internal/config"
)

// ErrUnsupportedImage is returned for avatar uploads that are not a known image type.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Storage stores profile avatars in an S3-compatible bucket.
type S3Storage struct {
	uploader uploader
	bucket   string
	baseURL  string
	newID    func() string
}

// NewS3Storage configures an uploader targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	up := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Storage(up, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3Storage(up uploader, bucket, baseURL string) *S3Storage {
	return &S3Storage{
		uploader: up,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		newID:    uuid.NewString,
	}
}

// SaveAvatar uploads an avatar image for userID and returns its public location.
func (s *S3Storage) SaveAvatar(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	key, err := s.avatarKey(userID, contentType)
	if err != nil {
		return "", err
	}
	return s.Save(ctx, key, r, contentType)
}

// Save uploads the provided content to the configured bucket and returns a public location.
func (s *S3Storage) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	if s.baseURL == "" {
		return key, nil
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func (s *S3Storage) avatarKey(userID, contentType string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("s3 storage: user id is required")
	}
	ext, ok := ImageExtension(contentType)
	if !ok {
		return "", fmt.Errorf("s3 storage: %w: %q", ErrUnsupportedImage, contentType)
	}
	return path.Join("avatars", userID, s.newID()+ext), nil
}

// ImageExtension returns the file extension for an accepted avatar content type.
func ImageExtension(contentType string) (string, bool) {
	mediaType, _, _ := strings.Cut(contentType, ";")
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(mediaType))]
	return ext, ok
}
