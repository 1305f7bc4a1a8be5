package pricewatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SMTPConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// Notifier mails a digest of new historical lows after a run.
type Notifier struct {
	config SMTPConfig
	// send is swapped out in tests
	send func(e *email.Email) error
}

func NewNotifier(config SMTPConfig) *Notifier {
	n := &Notifier{config: config}
	n.send = func(e *email.Email) error {
		addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
		return e.Send(addr, smtp.PlainAuth("", config.Username, config.Password, config.Host))
	}
	return n
}

func (n *Notifier) SendNewLows(ctx context.Context, summary RunSummary) error {
	lows := summary.NewLows()
	if len(lows) == 0 {
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "New lowest prices spotted on %s:\n\n", summary.Started.Format("2006-01-02"))
	for _, low := range lows {
		fmt.Fprintf(&body, "- %s on %s: %s", low.Game, low.Source, low.Result.PriceText)
		if low.Result.URL != "" {
			fmt.Fprintf(&body, " (%s)", low.Result.URL)
		}
		body.WriteString("\n")
	}

	e := email.NewEmail()
	e.From = n.config.From
	e.To = n.config.To
	e.Subject = fmt.Sprintf("pricewatch: %d new lowest price(s)", len(lows))
	e.Text = []byte(body.String())

	slog.InfoContext(ctx, "sending new-low digest", "lows", len(lows), "to", n.config.To)
	return n.send(e)
}
