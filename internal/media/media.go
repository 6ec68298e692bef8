// Package media stores project images in S3-compatible object storage and
// hands back the public URL used as a project's image field.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"portfolio/api/internal/util"
)

// MaxImageBytes bounds a single upload.
const MaxImageBytes = 5 << 20

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	ErrEmpty           = errors.New("empty upload")
)

var extensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL prefixes object keys in returned URLs. Defaults to the
	// endpoint plus bucket.
	PublicURL string
}

// objectStore is the subset of *minio.Client used here.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Service struct {
	objects   objectStore
	bucket    string
	publicURL string
}

type Upload struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

func New(cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create media client: %w", err)
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return newService(client, cfg.Bucket, publicURL), nil
}

func newService(objects objectStore, bucket, publicURL string) *Service {
	return &Service{
		objects:   objects,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// EnsureBucket creates the bucket when missing.
func (s *Service) EnsureBucket(ctx context.Context) error {
	exists, err := s.objects.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.objects.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	log.Printf("media: created bucket %s", s.bucket)
	return nil
}

// UploadImage stores one image under projects/ and returns its public URL.
func (s *Service) UploadImage(ctx context.Context, contentType string, size int64, body io.Reader) (Upload, error) {
	ext, err := validate(contentType, size)
	if err != nil {
		return Upload{}, err
	}
	key := path.Join("projects", util.NewID("img")+ext)
	info, err := s.objects.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType:  normalizeType(contentType),
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return Upload{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Upload{Key: key, URL: s.publicURL + "/" + key, Size: info.Size}, nil
}

func validate(contentType string, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmpty
	}
	if size > MaxImageBytes {
		return "", ErrTooLarge
	}
	ext, ok := extensions[normalizeType(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

func normalizeType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}
