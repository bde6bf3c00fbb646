// Package bot is the Telegram command surface for managing reminders.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/remindcall/internal/format"
	"github.com/hray3182/remindcall/internal/models"
	"github.com/hray3182/remindcall/internal/reminders"
	"github.com/hray3182/remindcall/internal/rrule"
	"github.com/hray3182/remindcall/internal/timeparse"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, in reminders.CreateInput) (*models.Reminder, error)
	Cancel(ctx context.Context, id string) (bool, error)
	ListActive(ctx context.Context, recipient string) ([]*models.Reminder, error)
}

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api    API
	svc    Service
	logger *zap.SugaredLogger
}

func New(api API, svc Service, logger *zap.SugaredLogger) *Bot {
	return &Bot{api: api, svc: svc, logger: logger.Named("bot")}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	reply := b.reply(ctx, update.Message)
	msg := reply.Message(update.Message.Chat.ID)
	msg.ReplyToMessageID = update.Message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warnw("Failed to send reply", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

const usage = "Commands:\n" +
	"/remind <time> | <what> [| once|daily|twiceDaily|weekly|monthly]\n" +
	"/reminders lists your active reminders\n" +
	"/cancel <id> cancels one\n\n" +
	"Example: /remind after dinner | take medicine | daily"

func (b *Bot) reply(ctx context.Context, m *tgbotapi.Message) format.ParseResult {
	chatID := strconv.FormatInt(m.Chat.ID, 10)
	var out format.Builder

	switch m.Command() {
	case "remind":
		in, err := parseRemindArgs(m.CommandArguments())
		if err != nil {
			return out.Text("Could not read that: " + err.Error()).Text("\n\n").Text(usage).Result()
		}
		in.Recipient = chatID
		if m.From != nil {
			in.Owner = strconv.FormatInt(m.From.ID, 10)
		}

		r, err := b.svc.Create(ctx, in)
		if err != nil {
			return b.errorReply(err)
		}
		out.Bold("Reminder set").Text("\n\n")
		writeReminder(&out, r)
		return out.Result()

	case "reminders":
		rs, err := b.svc.ListActive(ctx, chatID)
		if err != nil {
			return b.errorReply(err)
		}
		if len(rs) == 0 {
			return out.Text("You have no active reminders.").Result()
		}
		out.Bold(fmt.Sprintf("Active reminders (%d)", len(rs)))
		for _, r := range rs {
			out.Text("\n\n")
			writeReminder(&out, r)
		}
		return out.Result()

	case "cancel":
		id := strings.TrimSpace(m.CommandArguments())
		if id == "" {
			return out.Text("Usage: /cancel <id>").Result()
		}
		ok, err := b.svc.Cancel(ctx, id)
		if err != nil {
			return b.errorReply(err)
		}
		if !ok {
			return out.Text("No active reminder with that id.").Result()
		}
		return out.Text("Reminder cancelled.").Result()

	default:
		return out.Text(usage).Result()
	}
}

func (b *Bot) errorReply(err error) format.ParseResult {
	var out format.Builder
	switch {
	case errors.Is(err, reminders.ErrInvalidInput), errors.Is(err, models.ErrInvalidRecurrence):
		return out.Text(err.Error()).Result()
	default:
		b.logger.Errorw("Reminder command failed", "error", err)
		return out.Text("Reminders are temporarily unavailable, please try again later.").Result()
	}
}

func writeReminder(out *format.Builder, r *models.Reminder) {
	out.Text(r.SubjectDescription).
		Text("\nNext: ").
		Text(r.NextFireAt.In(timeparse.IST).Format("Mon 2 Jan 15:04 MST")).
		Text(" (").
		Italic(rrule.HumanReadable(r.Recurrence)).
		Text(")").
		Text("\nID: ").
		Code(r.ID)
}

// parseRemindArgs splits "<time> | <subject> [| <recurrence>]".
func parseRemindArgs(args string) (reminders.CreateInput, error) {
	parts := strings.Split(args, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return reminders.CreateInput{}, errors.New("expected <time> | <what> [| <recurrence>]")
	}

	in := reminders.CreateInput{
		Time:    strings.TrimSpace(parts[0]),
		Subject: strings.TrimSpace(parts[1]),
	}
	if len(parts) == 3 {
		in.Recurrence = strings.TrimSpace(parts[2])
	}
	if in.Subject == "" {
		return reminders.CreateInput{}, errors.New("missing what to remind you about")
	}
	return in, nil
}
