package services

import (
	"fmt"
	"time"

	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/shared/config"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/geo"
)

type ProvenanceKind string

const (
	ProvenanceMissingMetadata  ProvenanceKind = "MissingMetadata"
	ProvenanceMissingGPS       ProvenanceKind = "MissingGPS"
	ProvenanceMissingTimestamp ProvenanceKind = "MissingTimestamp"
	ProvenanceStaleImage       ProvenanceKind = "StaleImage"
	ProvenanceLocationMismatch ProvenanceKind = "LocationMismatch"
)

const (
	defaultMaxImageAge   = 24 * time.Hour
	defaultMaxDistanceKm = 1.0
)

type ProvenanceResult struct {
	Valid  bool
	Kind   ProvenanceKind
	Reason string
}

// Err converts a failed result into a provenance AppError; it is nil when valid.
func (r ProvenanceResult) Err() error {
	if r.Valid {
		return nil
	}
	return apperrors.NewProvenanceError(r.Reason, string(r.Kind))
}

// ProvenanceVerifier checks that a photo's EXIF block supports the time and
// place a citizen claims for it.
type ProvenanceVerifier struct {
	extractor     MetadataExtractor
	maxAge        time.Duration
	maxDistanceKm float64
	clock         Clock
	metrics       *metrics.Metrics
}

func NewProvenanceVerifier(extractor MetadataExtractor, cfg config.ProvenanceConfig, clock Clock, m *metrics.Metrics) *ProvenanceVerifier {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultMaxImageAge
	}
	maxDistance := cfg.MaxDistanceKm
	if maxDistance <= 0 {
		maxDistance = defaultMaxDistanceKm
	}
	return &ProvenanceVerifier{
		extractor:     extractor,
		maxAge:        maxAge,
		maxDistanceKm: maxDistance,
		clock:         clock,
		metrics:       m,
	}
}

// Verify runs the checks in a fixed order and reports the first failure.
// Capture times in the future are accepted.
func (v *ProvenanceVerifier) Verify(image []byte, claimedLat, claimedLng float64) ProvenanceResult {
	res := v.verify(image, claimedLat, claimedLng)
	if !res.Valid {
		v.metrics.IncProvenanceReject(string(res.Kind))
	}
	return res
}

func (v *ProvenanceVerifier) verify(image []byte, claimedLat, claimedLng float64) ProvenanceResult {
	meta, err := v.extractor.Extract(image)
	if err != nil || meta == nil {
		return reject(ProvenanceMissingMetadata,
			"Image metadata (EXIF) is missing. Please take a fresh photo with location enabled.")
	}
	if !meta.HasGPS() {
		return reject(ProvenanceMissingGPS,
			"GPS metadata is missing. Please ensure location is enabled in your camera app.")
	}
	if meta.CapturedAt == nil {
		return reject(ProvenanceMissingTimestamp, "Timestamp metadata is missing from the image.")
	}

	if v.clock.Now().Sub(*meta.CapturedAt) > v.maxAge {
		return reject(ProvenanceStaleImage,
			fmt.Sprintf("This photo is over %s old. Please capture a live photo to report.", humanDuration(v.maxAge)))
	}

	distance := geo.HaversineKm(claimedLat, claimedLng, *meta.Latitude, *meta.Longitude)
	if distance > v.maxDistanceKm {
		return reject(ProvenanceLocationMismatch,
			fmt.Sprintf("Image location is too far (%.1fkm) from the reported map pin.", distance))
	}

	return ProvenanceResult{Valid: true}
}

func reject(kind ProvenanceKind, reason string) ProvenanceResult {
	return ProvenanceResult{Kind: kind, Reason: reason}
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
