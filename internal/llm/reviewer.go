package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// DefaultReviewTimeout bounds a single review call.
const DefaultReviewTimeout = 30 * time.Second

// Reviewer asks a completion service for advisory findings on a claim.
// Every failure degrades to an empty result.
type Reviewer struct {
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewReviewer builds a reviewer. A nil completer disables review entirely.
func NewReviewer(completer Completer, timeout time.Duration, logger *slog.Logger) *Reviewer {
	if timeout <= 0 {
		timeout = DefaultReviewTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{completer: completer, timeout: timeout, logger: logger}
}

// Enabled reports whether reviews reach a completion service.
func (r *Reviewer) Enabled() bool {
	return r != nil && r.completer != nil
}

// Review returns the model's findings for claim under the rules of rs.
// It never returns an error; a disabled reviewer makes no call.
func (r *Reviewer) Review(ctx context.Context, claim *entity.Claim, rs *entity.RuleSet) []entity.Finding {
	if !r.Enabled() || claim == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	content, err := r.completer.Complete(ctx, CompletionRequest{
		System:      SystemPrompt,
		User:        BuildUserPrompt(NewRuleContext(rs), claim),
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		r.logger.Warn("llm.review.completion_failed",
			"claim_id", claim.ClaimID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	findings, err := ParseFindings(content)
	if err != nil {
		r.logger.Warn("llm.review.parse_failed",
			"claim_id", claim.ClaimID,
			"error", err,
			"content_len", len(content),
		)
		return nil
	}

	r.logger.Debug("llm.review.ok",
		"claim_id", claim.ClaimID,
		"findings", len(findings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return findings
}
