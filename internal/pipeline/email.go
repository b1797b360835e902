package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"confcentral/internal/domain"
)

// ConfirmationEmailTask is enqueued after a conference is created.
type ConfirmationEmailTask struct {
	Email          string `json:"email"`
	ConferenceInfo string `json:"conferenceInfo"`
}

// ConfirmationEmail sends the organizer a note about their new conference.
type ConfirmationEmail struct {
	mailer domain.Mailer
	logger *slog.Logger
}

func NewConfirmationEmail(mailer domain.Mailer, logger *slog.Logger) *ConfirmationEmail {
	return &ConfirmationEmail{mailer: mailer, logger: logger}
}

func (c *ConfirmationEmail) Handle(ctx context.Context, payload []byte) error {
	var t ConfirmationEmailTask
	if err := json.Unmarshal(payload, &t); err != nil {
		return fmt.Errorf("decode confirmation email task: %w", err)
	}
	body := fmt.Sprintf("Hi, you have created the following conference:\r\n\r\n%s", t.ConferenceInfo)
	if err := c.mailer.Send(ctx, t.Email, "You created a new Conference!", body); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	c.logger.Info("confirmation email sent", "to", t.Email)
	return nil
}
