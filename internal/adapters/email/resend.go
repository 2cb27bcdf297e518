package email

import (
	"context"
	"fmt"
	"time"

	"github.com/resend/resend-go/v2"

	"motoclub/internal/logging"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a new ResendSender with the given API key and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use sender
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send sends a single email via Resend.
// PRE: req has at least one recipient and a subject
// POST: Email is queued for delivery; returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	from := req.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	}
	if req.ReplyTo != "" {
		params.ReplyTo = req.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		logging.Error().Err(err).Strs("to", req.To).Str("subject", req.Subject).Msg("resend_send_failed")
		return SendResult{}, fmt.Errorf("resend send failed: %w", err)
	}

	logging.Info().Str("message_id", sent.Id).Strs("to", req.To).Str("subject", req.Subject).Msg("resend_sent")
	return SendResult{
		MessageID: sent.Id,
		SentAt:    time.Now(),
	}, nil
}
