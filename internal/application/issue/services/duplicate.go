package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
	"github.com/civiclens/civiclens/internal/shared/config"
	"github.com/civiclens/civiclens/internal/shared/geo"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

const (
	defaultDuplicateRadius     = 0.0005
	defaultDuplicateCandidates = 3
)

const duplicatePrompt = `Compare these two photos.
Image 1 is a recently submitted civic issue.
Image 2 is a previously reported civic issue (Category: %s).
Are they showing the EXACT SAME specific physical issue or damage (for example the same pothole, the same trash pile, the same broken light) in the same location, possibly from a different angle or lighting?
Answer with exactly one word: 'YES' or 'NO'. Do not explain.`

type DuplicateQuery struct {
	Image    []byte
	MIMEType string
	Lat      float64
	Lng      float64
	Category vo.Category
}

type DuplicateResult struct {
	IsDuplicate bool
	Match       *issue.Candidate
}

// DuplicateDetector looks for an open report of the same physical defect near
// a new one. It fails open: any error means "not a duplicate".
type DuplicateDetector struct {
	issueRepo     issue.Repository
	fetcher       ImageFetcher
	oracle        *OracleGateway
	radius        float64
	maxCandidates int
	logger        logger.Interface
}

func NewDuplicateDetector(
	issueRepo issue.Repository,
	fetcher ImageFetcher,
	gateway *OracleGateway,
	cfg config.DuplicateConfig,
	log logger.Interface,
) *DuplicateDetector {
	radius := cfg.RadiusDegrees
	if radius <= 0 {
		radius = defaultDuplicateRadius
	}
	maxCandidates := cfg.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = defaultDuplicateCandidates
	}
	return &DuplicateDetector{
		issueRepo:     issueRepo,
		fetcher:       fetcher,
		oracle:        gateway,
		radius:        radius,
		maxCandidates: maxCandidates,
		logger:        log.Named("duplicate_detector"),
	}
}

// Find compares the new photo with the nearest pending issues one at a time and
// stops at the first the oracle confirms.
func (d *DuplicateDetector) Find(ctx context.Context, q DuplicateQuery) DuplicateResult {
	if len(q.Image) == 0 {
		return DuplicateResult{}
	}

	candidates, err := d.issueRepo.FindNearbyPending(ctx, geo.BoxAround(q.Lat, q.Lng, d.radius))
	if err != nil {
		d.logger.Warnw("duplicate lookup failed, treating report as new", "error", err)
		return DuplicateResult{}
	}
	if len(candidates) == 0 {
		return DuplicateResult{}
	}

	ranked := rankByDistance(candidates, q.Lat, q.Lng, d.maxCandidates)
	uploaded := oracle.Image{MIMEType: q.MIMEType, Data: q.Image}

	for i := range ranked {
		candidate := ranked[i]
		same, err := d.compare(ctx, uploaded, candidate)
		if errors.Is(err, oracle.ErrNotConfigured) {
			d.logger.Warnw("oracle not configured, skipping duplicate check")
			return DuplicateResult{}
		}
		if err != nil {
			d.logger.Warnw("duplicate comparison failed",
				"candidate_id", candidate.ID,
				"error", err,
			)
			continue
		}
		if same {
			d.logger.Infow("duplicate report detected", "candidate_id", candidate.ID)
			return DuplicateResult{IsDuplicate: true, Match: &candidate}
		}
	}
	return DuplicateResult{}
}

func (d *DuplicateDetector) compare(ctx context.Context, uploaded oracle.Image, candidate issue.Candidate) (bool, error) {
	stored, err := d.fetcher.Fetch(ctx, candidate.BeforeImage)
	if err != nil {
		return false, fmt.Errorf("failed to fetch candidate image: %w", err)
	}

	reply, err := d.oracle.ask(ctx, purposeDuplicate,
		fmt.Sprintf(duplicatePrompt, candidate.Category),
		false,
		uploaded,
		oracle.Image{MIMEType: stored.MIMEType, Data: stored.Data},
	)
	if err != nil {
		return false, err
	}
	return IsAffirmative(reply), nil
}

// rankByDistance orders candidates by squared planar distance and keeps the
// closest limit of them. Ties keep their repository order.
func rankByDistance(candidates []issue.Candidate, lat, lng float64, limit int) []issue.Candidate {
	ranked := make([]issue.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return geo.SquaredPlanarDistance(lat, lng, ranked[i].Lat, ranked[i].Lng) <
			geo.SquaredPlanarDistance(lat, lng, ranked[j].Lat, ranked[j].Lng)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
