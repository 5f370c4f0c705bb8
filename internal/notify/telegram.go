package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/arielmc/vintage-wizard-sub001/internal/pipeline"
)

// Notifier delivers out-of-band progress messages. A nil Notifier is
// usable everywhere and does nothing, so callers never branch on
// configuration.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier connects to Telegram. Returns an error when the
// token is rejected; use nil when notifications aren't configured.
func NewTelegramNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info().Str("username", bot.Self.UserName).Msg("telegram notifier connected")
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// BatchComplete announces a finished batch analysis run with its counts.
// Best-effort: delivery failures are logged, never returned.
func (n *Notifier) BatchComplete(result pipeline.BatchResult) {
	if n == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📷 Batch analysis finished: %d of %d items analyzed.", result.Succeeded, result.Total())
	if result.Failed > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d failed: %s", result.Failed, strings.Join(result.FailedIDs, ", "))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(&b, "\n%d skipped (no photos yet).", result.Skipped)
	}

	msg := tgbotapi.NewMessage(n.chatID, b.String())
	if _, err := n.bot.Send(msg); err != nil {
		log.Warn().Err(err).Msg("failed to send batch notification")
	}
}
