package delivery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/remindcall/internal/format"
	"go.uber.org/zap"
)

// TelegramSender is the part of *tgbotapi.BotAPI used for delivery.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers notices as chat messages. The recipient handle is the
// numeric chat id.
type Telegram struct {
	api      TelegramSender
	composer Composer
	logger   *zap.SugaredLogger
	attempts uint
	delay    time.Duration
}

func NewTelegram(api TelegramSender, composer Composer, logger *zap.SugaredLogger) *Telegram {
	return &Telegram{
		api:      api,
		composer: composer,
		logger:   logger,
		attempts: 3,
		delay:    time.Second,
	}
}

// ParseChatID converts a recipient handle into a Telegram chat id.
func ParseChatID(handle string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(handle), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid telegram chat id %q", handle)
	}
	return id, nil
}

func (t *Telegram) Deliver(ctx context.Context, n Notice) error {
	chatID, err := ParseChatID(n.Recipient)
	if err != nil {
		return err
	}

	text, err := t.composer.Compose(ctx, n)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	var b format.Builder
	b.Text("⏰ ").Bold("Reminder").Text("\n\n").Text(text)
	msg := b.Result().Message(chatID)

	return retry.Do(
		func() error {
			_, err := t.api.Send(msg)
			return err
		},
		retry.Attempts(t.attempts),
		retry.Delay(t.delay),
		retry.MaxDelay(10*time.Second),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			t.logger.Warnw("Retrying telegram send", "chat_id", chatID, "attempt", n, "error", err)
		}),
	)
}
