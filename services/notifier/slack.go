package notifier

import (
	"context"
	"fmt"
	"time"

	"sjsage522/hsmoadigest/logger"
	apperrors "sjsage522/hsmoadigest/pkg/errors"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds one webhook call
const DefaultTimeout = 20 * time.Second

// slackText is a mrkdwn text object
type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type string    `json:"type"`
	Text slackText `json:"text"`
}

// slackPayload carries the text twice: plain for notifications, as a block for rendering
type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

// SlackNotifier posts digests to a Slack incoming webhook
type SlackNotifier struct {
	client     *resty.Client
	webhookURL string
	log        *logger.Logger
}

var _ Notifier = (*SlackNotifier)(nil)

// NewSlackNotifier creates a notifier for webhookURL
func NewSlackNotifier(webhookURL string, timeout time.Duration) *SlackNotifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &SlackNotifier{
		client:     client,
		webhookURL: webhookURL,
		log:        logger.ForNotifier(),
	}
}

// Notify posts text to the webhook. Any non-2xx answer is a delivery error.
func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	payload := slackPayload{
		Text: text,
		Blocks: []slackBlock{
			{Type: "section", Text: slackText{Type: "mrkdwn", Text: text}},
		},
	}

	res, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.webhookURL)
	if err != nil {
		return apperrors.NewDelivery("slack", "webhook request failed", err)
	}
	if !res.IsSuccess() {
		return apperrors.NewDelivery("slack",
			fmt.Sprintf("webhook returned %s: %s", res.Status(), string(res.Body())), nil)
	}

	n.log.Info().
		Int("status", res.StatusCode()).
		Int("bytes", len(text)).
		Dur("elapsed", res.Time()).
		Msg("Digest delivered")
	return nil
}
