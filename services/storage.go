package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore holds uploaded menu images and hands out their public URLs.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error
	PublicURL(objectPath string) string
}

// SupabaseStore talks to a Supabase storage bucket over its REST API.
type SupabaseStore struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	Client     *http.Client
}

func NewSupabaseStore(baseURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("storage responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (s *SupabaseStore) PublicURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.Bucket, objectPath)
}

// LocalStore writes objects under Dir; the HTTP server exposes Dir at PublicBase.
type LocalStore struct {
	Dir        string
	PublicBase string
}

func (s *LocalStore) Upload(_ context.Context, objectPath string, data []byte, _ string) error {
	clean := filepath.Clean(filepath.FromSlash(objectPath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid object path %q", objectPath)
	}
	full := filepath.Join(s.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func (s *LocalStore) PublicURL(objectPath string) string {
	return strings.TrimRight(s.PublicBase, "/") + "/" + path.Clean(objectPath)
}

// ImageUploader compresses an upload and stores it under dishes/.
type ImageUploader struct {
	Store   ObjectStore
	MaxEdge int
	Quality int
	Now     func() time.Time
}

func NewImageUploader(store ObjectStore) *ImageUploader {
	return &ImageUploader{Store: store, MaxEdge: DefaultImageMaxEdge, Quality: DefaultImageQuality, Now: time.Now}
}

func (u *ImageUploader) objectPath() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("dishes/%d-%s.jpg", u.Now().UnixMilli(), suffix)
}

// Upload returns the public URL of the stored image or an *UploadError.
func (u *ImageUploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	objectPath := u.objectPath()
	data, err := CompressImage(r, u.MaxEdge, u.Quality)
	if err != nil {
		return "", &UploadError{Path: objectPath, Err: err}
	}
	if err := u.Store.Upload(ctx, objectPath, data, "image/jpeg"); err != nil {
		return "", &UploadError{Path: objectPath, Err: err}
	}
	return u.Store.PublicURL(objectPath), nil
}
