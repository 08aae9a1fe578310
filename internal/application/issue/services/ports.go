// Package services implements the issue trust pipeline: status transitions with
// their ledger entries, photo provenance, duplicate detection, AI triage and
// resolution verification.
package services

import (
	"context"
	"time"

	"github.com/civiclens/civiclens/internal/infrastructure/exif"
	"github.com/civiclens/civiclens/internal/infrastructure/storage"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// ImageFetcher loads a stored photo by the reference kept on the issue.
type ImageFetcher interface {
	Fetch(ctx context.Context, ref string) (*storage.Image, error)
}

// MetadataExtractor reads capture metadata from raw image bytes.
type MetadataExtractor interface {
	Extract(data []byte) (*exif.Metadata, error)
}
