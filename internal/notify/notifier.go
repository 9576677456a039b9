// Package notify delivers signal alerts to external channels (Telegram,
// Discord). Delivery is best-effort fan-out; one channel failing does not
// stop the others.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aywang31/marketpulse/internal/domain"
)

// Sender delivers one message to a single channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

// Notifier fans a notification out to all configured senders.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// New creates a Notifier over the given senders.
func New(logger *slog.Logger, senders ...Sender) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notify")),
	}
}

// AlertSignal formats and delivers an alert for a freshly scored market.
func (n *Notifier) AlertSignal(ctx context.Context, m domain.Market, sig domain.MarketSignal) error {
	title := fmt.Sprintf("Signal %d/100 (%s)", sig.Score, sig.Confidence)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.Title)
	fmt.Fprintf(&b, "Source: %s\n", m.Source)
	if sig.Features.CurrentProbability != nil {
		fmt.Fprintf(&b, "Probability: %.0f%%\n", *sig.Features.CurrentProbability*100)
	}
	fmt.Fprintf(&b, "Why: %s", sig.Explanation)
	if m.URL != nil {
		fmt.Fprintf(&b, "\n%s", *m.URL)
	}

	return n.send(ctx, title, b.String())
}

func (n *Notifier) send(ctx context.Context, title, message string) error {
	var failed []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			failed = append(failed, s.Name())
			n.logger.WarnContext(ctx, "notification send failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	if len(failed) > 0 && len(failed) == len(n.senders) {
		return fmt.Errorf("notify: all senders failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
