// Package bot pushes run results to a Telegram chat.
package bot

import (
	"context"
	"fmt"
	"strings"

	"sentiment-labeler/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type Notifier struct {
	sender    Sender
	chat      tele.ChatID
	chartPath string
}

var newBot = func(token string) (Sender, error) {
	return tele.NewBot(tele.Settings{Token: token, Offline: true})
}

// NewTelegramNotifier builds an outbound-only bot; no poller is started.
func NewTelegramNotifier(token string, chatID int64, chartPath string) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token not set")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id not set")
	}
	b, err := newBot(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewNotifier(b, chatID, chartPath), nil
}

func NewNotifier(sender Sender, chatID int64, chartPath string) *Notifier {
	return &Notifier{sender: sender, chat: tele.ChatID(chatID), chartPath: chartPath}
}

// Report sends the chart with a summary caption for completed runs and a
// plain text message otherwise.
func (n *Notifier) Report(_ context.Context, report domain.RunReport) error {
	var err error
	if report.Outcome == domain.OutcomeCompleted && n.chartPath != "" {
		photo := &tele.Photo{File: tele.FromDisk(n.chartPath), Caption: FormatReport(report)}
		_, err = n.sender.Send(n.chat, photo)
	} else {
		_, err = n.sender.Send(n.chat, FormatReport(report))
	}
	if err != nil {
		return fmt.Errorf("send telegram report: %w", err)
	}
	return nil
}

func FormatReport(r domain.RunReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sentiment labeling %s (run %s)\n", r.Outcome, r.RunID)

	switch r.Outcome {
	case domain.OutcomeFailed:
		fmt.Fprintf(&b, "Stage: %s\nError: %s", r.FailedStage, r.Error)
		return b.String()
	case domain.OutcomeEmpty:
		fmt.Fprintf(&b, "Stock rows: %d\nSentiment rows: %d\nNo output written", r.StockRows, r.SentimentRows)
		return b.String()
	}

	fmt.Fprintf(&b, "Duplicates removed: %d\n", r.Deleted)
	if s := r.Summary; s != nil {
		fmt.Fprintf(&b, "Rows: %d (%d with sentiment)\n", s.Rows, s.Matched)
		fmt.Fprintf(&b, "Symbols: %s\n", strings.Join(s.Symbols, ", "))
		fmt.Fprintf(&b, "Up labels: %d (%.1f%%)\n", s.UpLabels, s.UpRatio*100)
		fmt.Fprintf(&b, "Mean sentiment: %.3f", s.MeanSentiment)
	} else {
		fmt.Fprintf(&b, "Rows: %d", r.MergedRows)
	}
	return b.String()
}
