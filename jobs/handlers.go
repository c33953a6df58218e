package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"PracticeManager/mailer"
)

// Handlers render and send the email for each task type.
type Handlers struct {
	Sender mailer.Sender
	Logger zerolog.Logger
}

func decode(t *asynq.Task, dest interface{}) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		// A malformed payload will never succeed, skip retries.
		return fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return nil
}

func (h *Handlers) deliver(kind string, msg mailer.Message, err error) error {
	if err != nil {
		return fmt.Errorf("render %s email: %v: %w", kind, err, asynq.SkipRetry)
	}
	h.Logger.Info().Str("type", kind).Str("to", msg.To).Msg("Processing email task")
	if err := h.Sender.Send(msg); err != nil {
		h.Logger.Error().Str("type", kind).Str("to", msg.To).Err(err).Msg("Failed to send email")
		return err
	}
	h.Logger.Info().Str("type", kind).Str("to", msg.To).Msg("Successfully sent email")
	return nil
}

func (h *Handlers) HandleResetCode(ctx context.Context, t *asynq.Task) error {
	var p ResetCodePayload
	if err := decode(t, &p); err != nil {
		return err
	}
	msg, err := mailer.ResetCodeMessage(p.To, p.Code)
	return h.deliver("reset_code", msg, err)
}

func (h *Handlers) HandleWelcome(ctx context.Context, t *asynq.Task) error {
	var p WelcomePayload
	if err := decode(t, &p); err != nil {
		return err
	}
	msg, err := mailer.WelcomeMessage(p.To, p.Name, p.Practice)
	return h.deliver("welcome", msg, err)
}

func (h *Handlers) HandleInvitation(ctx context.Context, t *asynq.Task) error {
	var p InvitationPayload
	if err := decode(t, &p); err != nil {
		return err
	}
	msg, err := mailer.InvitationMessage(p.To, p.Name, p.Practice, p.Username)
	return h.deliver("invitation", msg, err)
}
