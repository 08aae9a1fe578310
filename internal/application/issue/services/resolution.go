package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
)

type ResolutionOutcome string

const (
	OutcomeConfirmed   ResolutionOutcome = "ai_confirmed"
	OutcomeRejected    ResolutionOutcome = "rejected_by_ai"
	OutcomeUnavailable ResolutionOutcome = "verification_unavailable"
)

const defaultResolutionReward = 50

const resolutionPrompt = `You are a municipal works inspector. Compare these two photos.
Image 1 is the 'Before' state showing a reported issue (Category: %s, Title: %s).
Image 2 is the 'After' state attempting to show the completed repair.
Is the issue shown in the Before photo successfully fixed and repaired in the After photo?
Consider patching, cleaning, or replacement depending on the context.
Answer with exactly one word: 'YES' or 'NO'. Do not explain.`

type ResolutionCommand struct {
	IssueID    string
	AfterImage string
	Actor      *authorization.Actor
}

type ResolutionResult struct {
	Verified      bool
	Outcome       ResolutionOutcome
	Reason        string
	Issue         *issue.Issue
	CreditAwarded bool
}

// ResolutionVerifier lets an issue reach resolved only when the oracle confirms
// the after photo shows the repair. Oracle failures fail closed.
type ResolutionVerifier struct {
	stateMachine *StateMachine
	issueRepo    issue.Repository
	creditRepo   reputation.Repository
	fetcher      ImageFetcher
	oracle       *OracleGateway
	reward       int64
	clock        Clock
	metrics      *metrics.Metrics
	logger       logger.Interface
}

func NewResolutionVerifier(
	sm *StateMachine,
	issueRepo issue.Repository,
	creditRepo reputation.Repository,
	fetcher ImageFetcher,
	gateway *OracleGateway,
	reward int64,
	clock Clock,
	m *metrics.Metrics,
	log logger.Interface,
) *ResolutionVerifier {
	if reward <= 0 {
		reward = defaultResolutionReward
	}
	return &ResolutionVerifier{
		stateMachine: sm,
		issueRepo:    issueRepo,
		creditRepo:   creditRepo,
		fetcher:      fetcher,
		oracle:       gateway,
		reward:       reward,
		clock:        clock,
		metrics:      m,
		logger:       log.Named("resolution_verifier"),
	}
}

// Verify checks every precondition before calling the oracle, so a request that
// could never resolve costs no oracle call.
func (v *ResolutionVerifier) Verify(ctx context.Context, cmd ResolutionCommand) (*ResolutionResult, error) {
	if cmd.Actor == nil {
		return nil, apperrors.NewUnauthorizedError("authentication required")
	}
	if !cmd.Actor.IsOfficer() {
		return nil, apperrors.NewForbiddenError("only officers may submit resolutions")
	}
	afterImage := strings.TrimSpace(cmd.AfterImage)
	if afterImage == "" {
		return nil, apperrors.NewValidationError("after_image is required")
	}

	iss, err := v.issueRepo.GetByID(ctx, cmd.IssueID)
	if err != nil {
		if errors.Is(err, issue.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("issue not found", cmd.IssueID)
		}
		v.logger.Errorw("failed to load issue", "issue_id", cmd.IssueID, "error", err)
		return nil, apperrors.NewInternalError("failed to load issue")
	}
	if !iss.HasBeforeImage() {
		return nil, apperrors.NewValidationError("cannot verify resolution", issue.ErrNoBeforeImage.Error())
	}
	if !iss.Status().CanTransitionTo(vo.StatusResolved) {
		return nil, apperrors.NewInvalidTransitionError(iss.Status().String(), vo.StatusResolved.String())
	}

	confirmed, err := v.askOracle(ctx, iss, afterImage)
	if err != nil {
		v.logger.Warnw("resolution verification unavailable",
			"issue_id", iss.ID(),
			"error", err,
		)
		return v.finish(&ResolutionResult{
			Outcome: OutcomeUnavailable,
			Reason:  "Verification service is unavailable. Please retry later.",
			Issue:   iss,
		}), nil
	}
	if !confirmed {
		return v.finish(&ResolutionResult{
			Outcome: OutcomeRejected,
			Reason:  "AI inspection did not confirm the repair in the after photo.",
			Issue:   iss,
		}), nil
	}

	res, err := v.stateMachine.Transition(ctx, TransitionRequest{
		IssueID: iss.ID(),
		To:      vo.StatusResolved,
		Actor:   cmd.Actor,
		Action:  ledger.ActionStatusChange,
		Metadata: map[string]any{
			"verification": string(OutcomeConfirmed),
			"after_image":  afterImage,
		},
		AfterImage: &afterImage,
	})
	if err != nil {
		return nil, err
	}

	return v.finish(&ResolutionResult{
		Verified:      true,
		Outcome:       OutcomeConfirmed,
		Reason:        "Repair confirmed by AI inspection.",
		Issue:         res.Issue,
		CreditAwarded: v.award(ctx, res.Issue),
	}), nil
}

func (v *ResolutionVerifier) askOracle(ctx context.Context, iss *issue.Issue, afterRef string) (bool, error) {
	before, err := v.fetcher.Fetch(ctx, iss.BeforeImage())
	if err != nil {
		return false, fmt.Errorf("failed to fetch before image: %w", err)
	}
	after, err := v.fetcher.Fetch(ctx, afterRef)
	if err != nil {
		return false, fmt.Errorf("failed to fetch after image: %w", err)
	}

	reply, err := v.oracle.ask(ctx, purposeResolution,
		fmt.Sprintf(resolutionPrompt, iss.Category(), iss.Title()),
		false,
		oracle.Image{MIMEType: before.MIMEType, Data: before.Data},
		oracle.Image{MIMEType: after.MIMEType, Data: after.Data},
	)
	if err != nil {
		return false, err
	}
	return IsAffirmative(reply), nil
}

// award credits the reporter once per issue. Failures are logged and counted;
// the resolution itself stands.
func (v *ResolutionVerifier) award(ctx context.Context, iss *issue.Issue) bool {
	grant, err := reputation.NewGrant(iss.ReporterID(), iss.ID(), reputation.ReasonVerifiedResolution, v.reward, v.clock.Now())
	if err == nil {
		var applied bool
		applied, err = v.creditRepo.Award(ctx, grant)
		if err == nil {
			if applied {
				v.metrics.IncRewardIssued()
				v.logger.Infow("civic credit awarded",
					"issue_id", iss.ID(),
					"user_id", iss.ReporterID(),
					"amount", v.reward,
				)
			}
			return applied
		}
	}

	v.metrics.IncRewardFailed()
	v.logger.Errorw("failed to award civic credit",
		"issue_id", iss.ID(),
		"user_id", iss.ReporterID(),
		"amount", v.reward,
		"error", err,
	)
	return false
}

func (v *ResolutionVerifier) finish(res *ResolutionResult) *ResolutionResult {
	v.metrics.IncResolutionOutcome(string(res.Outcome))
	return res
}
