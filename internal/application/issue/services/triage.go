package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

const (
	SummaryNoImage      = "No image provided for analysis."
	SummaryManualReview = "AI analysis failed — manual review required."

	triggeredByPipeline = "AI_PIPELINE"
)

const triagePrompt = `You are a civic issue verification AI. Analyze this image and determine if it matches the reported category: "%s" and sub-category: "%s".

Respond ONLY with a JSON object in this format:
{
  "verified": true/false,
  "confidence_score": <number 0-100>,
  "summary": "<one sentence describing what you see>",
  "severity": "low" | "medium" | "high" | "critical"
}`

type TriageOutcome struct {
	IssueID      string
	Skipped      bool
	Status       vo.IssueStatus
	Score        float64
	Summary      string
	Severity     string
	ManualReview bool
}

// TriagePipeline scores a pending issue with the oracle and moves it to
// validated. Running it again for an issue past ai_analyzing does nothing.
type TriagePipeline struct {
	stateMachine *StateMachine
	issueRepo    issue.Repository
	fetcher      ImageFetcher
	oracle       *OracleGateway
	metrics      *metrics.Metrics
	logger       logger.Interface
}

func NewTriagePipeline(
	sm *StateMachine,
	issueRepo issue.Repository,
	fetcher ImageFetcher,
	gateway *OracleGateway,
	m *metrics.Metrics,
	log logger.Interface,
) *TriagePipeline {
	return &TriagePipeline{
		stateMachine: sm,
		issueRepo:    issueRepo,
		fetcher:      fetcher,
		oracle:       gateway,
		metrics:      m,
		logger:       log.Named("triage"),
	}
}

// Run is the queue handler. Unknown issues are dropped rather than retried.
func (p *TriagePipeline) Run(ctx context.Context, issueID string) error {
	_, err := p.Triage(ctx, issueID)
	if apperrors.IsNotFoundError(err) {
		p.logger.Warnw("triage job for unknown issue dropped", "issue_id", issueID)
		return nil
	}
	return err
}

func (p *TriagePipeline) Triage(ctx context.Context, issueID string) (*TriageOutcome, error) {
	iss, err := p.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, issue.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("issue not found", issueID)
		}
		return nil, fmt.Errorf("failed to load issue for triage: %w", err)
	}

	switch iss.Status() {
	case vo.StatusPending:
		_, err := p.stateMachine.Transition(ctx, TransitionRequest{
			IssueID:  issueID,
			To:       vo.StatusAIAnalyzing,
			Action:   ledger.ActionStatusChange,
			Metadata: map[string]any{"triggered_by": triggeredByPipeline},
		})
		if apperrors.IsInvalidTransitionError(err) {
			return p.skip(iss), nil
		}
		if err != nil {
			return nil, err
		}
	case vo.StatusAIAnalyzing:
		p.logger.Infow("resuming triage of issue left in ai_analyzing", "issue_id", issueID)
	default:
		return p.skip(iss), nil
	}

	verdict, manualReview := p.analyze(ctx, iss)

	metadata := verdict.Metadata(p.oracle.Model())
	if manualReview {
		metadata["manual_review"] = true
	}
	score := verdict.ConfidenceScore

	_, err = p.stateMachine.Transition(ctx, TransitionRequest{
		IssueID:  issueID,
		To:       vo.StatusValidated,
		Action:   ledger.ActionAIAnalysis,
		Metadata: metadata,
		AIScore:  &score,
	})
	if apperrors.IsInvalidTransitionError(err) {
		return p.skip(iss), nil
	}
	if err != nil {
		return nil, err
	}

	outcome := "scored"
	switch {
	case manualReview:
		outcome = "manual_review"
	case !iss.HasBeforeImage():
		outcome = "no_image"
	}
	p.metrics.IncTriageOutcome(outcome)
	p.logger.Infow("issue triaged",
		"issue_id", issueID,
		"ai_score", score,
		"severity", verdict.Severity,
		"manual_review", manualReview,
	)

	return &TriageOutcome{
		IssueID:      issueID,
		Status:       vo.StatusValidated,
		Score:        score,
		Summary:      verdict.Summary,
		Severity:     verdict.Severity,
		ManualReview: manualReview,
	}, nil
}

// analyze never fails: oracle, fetch and parse errors collapse into a zero
// score flagged for manual review.
func (p *TriagePipeline) analyze(ctx context.Context, iss *issue.Issue) (TriageVerdict, bool) {
	if !iss.HasBeforeImage() {
		return TriageVerdict{Summary: SummaryNoImage, Severity: defaultSeverity}, false
	}

	verdict, err := p.askOracle(ctx, iss)
	if err != nil {
		p.logger.Warnw("ai analysis failed, flagging for manual review",
			"issue_id", iss.ID(),
			"error", err,
		)
		return TriageVerdict{Summary: SummaryManualReview, Severity: defaultSeverity}, true
	}
	return verdict, false
}

func (p *TriagePipeline) askOracle(ctx context.Context, iss *issue.Issue) (TriageVerdict, error) {
	img, err := p.fetcher.Fetch(ctx, iss.BeforeImage())
	if err != nil {
		return TriageVerdict{}, fmt.Errorf("failed to fetch before image: %w", err)
	}

	subcategory := iss.Subcategory()
	if subcategory == "" {
		subcategory = "N/A"
	}
	reply, err := p.oracle.ask(ctx, purposeTriage,
		fmt.Sprintf(triagePrompt, iss.Category(), subcategory),
		true,
		oracle.Image{MIMEType: img.MIMEType, Data: img.Data},
	)
	if err != nil {
		return TriageVerdict{}, err
	}
	return ParseTriageVerdict(reply)
}

func (p *TriagePipeline) skip(iss *issue.Issue) *TriageOutcome {
	p.metrics.IncTriageOutcome("skipped")
	p.logger.Debugw("triage skipped, issue already past analysis",
		"issue_id", iss.ID(),
		"status", iss.Status(),
	)
	return &TriageOutcome{IssueID: iss.ID(), Skipped: true, Status: iss.Status()}
}
