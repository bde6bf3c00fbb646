package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/hray3182/remindcall/internal/rrule"
	"go.uber.org/zap"
)

// Composer renders the human-facing text of a notice.
type Composer interface {
	Compose(ctx context.Context, n Notice) (string, error)
}

// TemplateComposer renders a fixed sentence. It never fails.
type TemplateComposer struct{}

func (TemplateComposer) Compose(_ context.Context, n Notice) (string, error) {
	var sb strings.Builder
	sb.WriteString("Time to ")
	sb.WriteString(strings.TrimSpace(n.Subject))
	if n.TimeExpression != "" {
		fmt.Fprintf(&sb, " (scheduled for %s", n.TimeExpression)
		if n.Recurrence.IsRecurring() {
			fmt.Fprintf(&sb, ", %s", rrule.HumanReadable(n.Recurrence))
		}
		sb.WriteString(")")
	} else if n.Recurrence.IsRecurring() {
		fmt.Fprintf(&sb, " (%s)", rrule.HumanReadable(n.Recurrence))
	}
	sb.WriteString(".")
	return sb.String(), nil
}

// Generator produces a chat completion for a system and user message.
type Generator interface {
	GenerateResponse(ctx context.Context, systemMsg, userMsg string) (string, error)
}

const composeSystemPrompt = `You write short, warm reminder messages for a personal reminder service.
Reply with one or two sentences of plain text, no markdown, no emoji.
Mention what the person should do. Do not invent details that are not given.`

// AIComposer asks a language model for the text and falls back to the
// template whenever the model fails or returns nothing.
type AIComposer struct {
	gen      Generator
	fallback TemplateComposer
	logger   *zap.SugaredLogger
}

func NewAIComposer(gen Generator, logger *zap.SugaredLogger) *AIComposer {
	return &AIComposer{gen: gen, logger: logger}
}

func (c *AIComposer) Compose(ctx context.Context, n Notice) (string, error) {
	userMsg := fmt.Sprintf("Task: %s\nScheduled: %s\nRepeats: %s",
		n.Subject, n.TimeExpression, rrule.HumanReadable(n.Recurrence))

	text, err := c.gen.GenerateResponse(ctx, composeSystemPrompt, userMsg)
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err != nil {
			c.logger.Warnw("AI composer failed, using template", "reminder_id", n.ReminderID, "error", err)
		}
		return c.fallback.Compose(ctx, n)
	}
	return text, nil
}
