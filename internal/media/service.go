// Package media handles uploaded assets: presigned upload URLs against the
// object store, and resolution of stored keys into public URLs when articles
// are rendered.
package media

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/armeny007/participedia-api/internal/reconcile"
	"github.com/armeny007/participedia-api/internal/store"
)

const textureCount = 6

type Service struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// Config holds the object-store settings. Endpoint may be empty, in which
// case uploads are disabled and the service only resolves URLs.
type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	PublicBase string
	UseSSL     bool
}

func New(cfg Config) (*Service, error) {
	svc := &Service{
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
	}
	if cfg.Endpoint == "" {
		return svc, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store client: %w", err)
	}
	svc.client = client
	return svc, nil
}

// NewResolver builds a resolution-only service for tests and for deployments
// without an object store.
func NewResolver(publicBase string) *Service {
	return &Service{publicBase: strings.TrimRight(publicBase, "/")}
}

// PresignUpload returns a URL the client can PUT an asset to directly.
func (s *Service) PresignUpload(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("object store not configured")
	}
	if objectName == "" || strings.Contains(objectName, "..") {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	presigned, err := s.client.PresignedPutObject(ctx, s.bucket, objectName, expiry)
	if err != nil {
		return "", fmt.Errorf("presign upload: %w", err)
	}
	return presigned.String(), nil
}

// ResolveURL turns a stored media reference into a public URL. Absolute URLs
// pass through untouched; anything else is treated as an object key.
func (s *Service) ResolveURL(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(raw, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return s.publicBase + "/" + strings.Join(escaped, "/")
}

// ResolveArticle rewrites every media reference on an article in place, and
// gives articles without photos a texture placeholder so listings always have
// an image.
func (s *Service) ResolveArticle(article *store.Article) {
	for name, value := range article.Fields {
		if value.Kind != reconcile.KindMediaList {
			continue
		}
		for i := range value.Media {
			value.Media[i].URL = s.ResolveURL(value.Media[i].URL)
		}
		article.Fields[name] = value
	}

	if photos, ok := article.Fields["photos"]; ok && len(photos.Media) == 0 {
		article.Fields["photos"] = reconcile.MediaListValue([]reconcile.Media{
			{URL: s.RandomTexture()},
		})
	}
}

// RandomTexture picks one of the bundled placeholder images.
func (s *Service) RandomTexture() string {
	n := rand.Intn(textureCount) + 1
	return fmt.Sprintf("%s/images/texture_%d.svg", s.publicBase, n)
}
