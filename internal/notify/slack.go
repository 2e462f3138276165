// Package notify posts validation run summaries to Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"

	"github.com/joseph-ayodele/claims-validator/constants"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// Summary describes one finished run.
type Summary struct {
	TenantCode string
	Run        *entity.JobRun
	Metric     *entity.Metric
}

// SlackNotifier posts summaries to one channel.
type SlackNotifier struct {
	api     *slack.Client
	channel string
	logger  *slog.Logger
}

// NewSlackNotifier returns nil when token or channel is empty. apiURL overrides
// the Slack Web API base and must end in a slash.
func NewSlackNotifier(token, channel, apiURL string, logger *slog.Logger) *SlackNotifier {
	if token == "" || channel == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	var opts []slack.Option
	if apiURL != "" {
		opts = append(opts, slack.OptionAPIURL(apiURL))
	}
	return &SlackNotifier{api: slack.New(token, opts...), channel: channel, logger: logger}
}

// Notify posts s. A nil notifier does nothing.
func (n *SlackNotifier) Notify(ctx context.Context, s Summary) error {
	if n == nil || s.Run == nil {
		return nil
	}
	text := FormatSummary(s)
	_, ts, err := n.api.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Claims validation: "+s.TenantCode, false, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		),
	)
	if err != nil {
		n.logger.Warn("notify.slack.failed", "tenant", s.TenantCode, "job_id", s.Run.ID, "error", err)
		return fmt.Errorf("post slack summary: %w", err)
	}
	n.logger.Info("notify.slack.ok", "tenant", s.TenantCode, "job_id", s.Run.ID, "ts", ts)
	return nil
}

// FormatSummary renders a one-paragraph run summary in Slack markdown.
func FormatSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run `%s` for *%s* is *%s*", s.Run.ID, s.TenantCode, s.Run.Status)
	if s.Run.Status == constants.JobStatusFailed {
		if msg := s.Run.ErrorDetail(); msg != "" {
			fmt.Fprintf(&b, ": %s", msg)
		}
		return b.String()
	}
	if s.Metric == nil {
		return b.String()
	}
	total := 0
	parts := make([]string, 0, len(constants.KnownErrorTypes))
	for _, et := range constants.KnownErrorTypes {
		n := s.Metric.CountsByError[et]
		total += n
		parts = append(parts, fmt.Sprintf("%s %d", et, n))
	}
	fmt.Fprintf(&b, "\n%d claims: %s", total, strings.Join(parts, ", "))
	return b.String()
}
