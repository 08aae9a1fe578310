// Package storage keeps uploaded evidence photos. Objects are written once and
// only read back by their public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/civiclens/civiclens/internal/shared/config"
)

var (
	ErrObjectExists  = errors.New("object already exists")
	ErrImageTooLarge = errors.New("image exceeds maximum size")
	ErrNotFound      = errors.New("object not found")
)

// Image is a fetched blob with its content type.
type Image struct {
	MIMEType string
	Data     []byte
}

// LocalBlobStore writes objects below Dir and serves them under PublicBaseURL.
// References outside PublicBaseURL are fetched over HTTP.
type LocalBlobStore struct {
	dir           string
	publicBaseURL string
	maxBytes      int64
	httpClient    *http.Client
}

func NewLocalBlobStore(cfg config.StorageConfig, httpClient *http.Client) (*LocalBlobStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.FetchTimeout > 0 {
		httpClient.Timeout = cfg.FetchTimeout
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &LocalBlobStore{
		dir:           cfg.Dir,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:      maxBytes,
		httpClient:    httpClient,
	}, nil
}

func (s *LocalBlobStore) Dir() string {
	return s.dir
}

func (s *LocalBlobStore) MaxBytes() int64 {
	return s.maxBytes
}

// ObjectKey builds "<owner>/<unix millis>.<ext>".
func ObjectKey(ownerID string, now time.Time, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%d.%s", ownerID, now.UnixMilli(), ext)
}

// Put stores data under key and returns its public URL. Existing objects are never overwritten.
func (s *LocalBlobStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrImageTooLarge
	}
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", ErrObjectExists
		}
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}

	return s.publicBaseURL + "/" + key, nil
}

// Fetch reads an image by reference. Local URLs are read from disk.
func (s *LocalBlobStore) Fetch(ctx context.Context, ref string) (*Image, error) {
	if key, ok := s.localKey(ref); ok {
		return s.readLocal(key)
	}
	return s.fetchRemote(ctx, ref)
}

func (s *LocalBlobStore) localKey(ref string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if s.publicBaseURL == "" || !strings.HasPrefix(ref, prefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, prefix), true
}

func (s *LocalBlobStore) readLocal(key string) (*Image, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return &Image{MIMEType: mimeFromName(key, data), Data: data}, nil
}

func (s *LocalBlobStore) fetchRemote(ctx context.Context, ref string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image reference: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrImageTooLarge
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeFromName(ref, data)
	}
	return &Image{MIMEType: mimeType, Data: data}, nil
}

// resolve maps a key to a path and refuses keys escaping the storage directory.
func (s *LocalBlobStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func mimeFromName(name string, data []byte) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
