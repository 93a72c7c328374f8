package payment

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Webhook event names sent by the gateway.
const (
	EventSucceeded         = "payment.succeeded"
	EventWaitingForCapture = "payment.waiting_for_capture"
	EventCanceled          = "payment.canceled"
)

// Notification is the parsed webhook payload.  Metadata carries the
// identifiers the bot attached when creating the payment, which is
// how a webhook is correlated back to a ticket even after a restart.
type Notification struct {
	Event  string `json:"event"`
	Object struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}

// Handler dispatches parsed webhook notifications to the bot.
type Handler func(ctx context.Context, n Notification) error

// RegisterWebhook mounts the gateway webhook endpoint on an Echo
// instance.  The endpoint always replies 200 for well-formed
// payloads: the gateway retries on non-2xx, and a handler failure on
// our side must not trigger a redelivery storm — the handler's own
// status guards make redeliveries harmless anyway.
func RegisterWebhook(e *echo.Echo, handle Handler, logger zerolog.Logger) {
	e.POST("/webhook/yookassa", func(c echo.Context) error {
		var n Notification
		if err := c.Bind(&n); err != nil {
			logger.Warn().Err(err).Msg("webhook: malformed payload")
			return c.NoContent(http.StatusBadRequest)
		}
		if err := handle(c.Request().Context(), n); err != nil {
			logger.Error().Err(err).Str("event", n.Event).Str("payment_id", n.Object.ID).
				Msg("webhook: handler failed")
		}
		return c.NoContent(http.StatusOK)
	})
}
