package alerts

import (
	"fmt"
	"html"

	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/webhook"
)

// HandlerFailureNotifier mails the operator when a webhook handler fails.
// The provider has already been acknowledged by the time this runs, so
// email is the only trace outside the logs.
type HandlerFailureNotifier struct {
	sender Sender
	to     string
}

// NewHandlerFailureNotifier creates a notifier that mails to.
func NewHandlerFailureNotifier(sender Sender, to string) *HandlerFailureNotifier {
	return &HandlerFailureNotifier{sender: sender, to: to}
}

// NotifyHandlerFailure sends the alert in the background. Delivery errors
// are logged, never propagated: the dispatch path must not block on SMTP.
func (n *HandlerFailureNotifier) NotifyHandlerFailure(provider string, ev webhook.Event, err error) {
	go func() {
		subject := fmt.Sprintf("[socialgate] webhook handler failed: %s/%s", provider, ev.Type)
		text := fmt.Sprintf(
			"A webhook event was acknowledged but its handler failed.\n\nprovider: %s\nevent id: %s\nevent type: %s\nreceived: %s\nerror: %v\n",
			provider, ev.ID, ev.Type, ev.ReceivedAt.Format("2006-01-02T15:04:05Z07:00"), err,
		)
		htmlBody := fmt.Sprintf(
			"<p>A webhook event was acknowledged but its handler failed.</p><ul><li>provider: %s</li><li>event id: %s</li><li>event type: %s</li><li>error: %s</li></ul>",
			html.EscapeString(provider), html.EscapeString(ev.ID), html.EscapeString(ev.Type), html.EscapeString(err.Error()),
		)
		if sendErr := n.sender.Send(n.to, subject, htmlBody, text); sendErr != nil {
			logger.L().Error("handler failure alert not delivered",
				logger.Component("HandlerFailureNotifier"),
				logger.Provider(provider),
				logger.EventID(ev.ID),
				logger.Err(sendErr),
			)
		}
	}()
}
