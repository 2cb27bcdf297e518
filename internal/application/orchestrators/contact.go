package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	emailAdapter "motoclub/internal/adapters/email"
	"motoclub/internal/application/apperr"
	"motoclub/internal/logging"
)

// ErrMailUnavailable is returned when the message could not be handed to the provider.
var ErrMailUnavailable = errors.New("invio non riuscito, riprova più tardi")

// SubmitContactInput carries the public contact form.
type SubmitContactInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

// SubmitContactDeps holds dependencies for SubmitContact.
type SubmitContactDeps struct {
	Sender emailAdapter.Sender
	To     []string
}

// ExecuteSubmitContact forwards a contact form message to the club inbox.
// PRE: To has at least one address
// POST: Message accepted by the provider; reply-to is the visitor's address
func ExecuteSubmitContact(ctx context.Context, input SubmitContactInput, deps SubmitContactDeps) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Message = strings.TrimSpace(input.Message)
	if err := checkInput(input); err != nil {
		return err
	}
	if len(deps.To) == 0 {
		return apperr.Wrap(apperr.StoreUnavailable, ErrMailUnavailable.Error(), errors.New("no contact recipient configured"))
	}

	body := fmt.Sprintf(
		"<p><strong>Da:</strong> %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(input.Name),
		html.EscapeString(input.Email),
		strings.ReplaceAll(html.EscapeString(input.Message), "\n", "<br>"),
	)
	res, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      deps.To,
		Subject: "Nuovo messaggio dal sito: " + input.Name,
		HTML:    body,
		ReplyTo: input.Email,
	})
	if err != nil {
		logging.Error().Err(err).Str("op", "submit_contact").Msg("contact_send_failed")
		return apperr.Wrap(apperr.StoreUnavailable, ErrMailUnavailable.Error(), err)
	}

	logging.Info().Str("event", "contact_sent").Str("message_id", res.MessageID).Msg("contact_event")
	return nil
}
