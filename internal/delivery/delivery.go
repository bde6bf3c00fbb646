// Package delivery implements the channels that notify a recipient when a
// reminder fires.
package delivery

import (
	"context"
	"fmt"

	"github.com/hray3182/remindcall/internal/models"
)

// Notice is the payload handed to a channel for one dispatch.
type Notice struct {
	ReminderID     string
	Subject        string
	TimeExpression string
	Recurrence     models.Recurrence
	Recipient      string
	FireCount      int
}

// NoticeFor builds the notice for the next dispatch of r.
func NoticeFor(r *models.Reminder) Notice {
	return Notice{
		ReminderID:     r.ID,
		Subject:        r.SubjectDescription,
		TimeExpression: r.RawTimeExpression,
		Recurrence:     r.Recurrence,
		Recipient:      r.RecipientHandle,
		FireCount:      r.FireCount,
	}
}

// Key identifies this dispatch attempt. Redelivery of the same firing
// produces the same key, so channels can dedupe on it.
func (n Notice) Key() string {
	return fmt.Sprintf("%s:%d", n.ReminderID, n.FireCount+1)
}

// Deliverer notifies the recipient of a notice. A nil error means the
// notification was accepted by the channel.
type Deliverer interface {
	Deliver(ctx context.Context, n Notice) error
}

// Func adapts a plain function to Deliverer.
type Func func(ctx context.Context, n Notice) error

func (f Func) Deliver(ctx context.Context, n Notice) error {
	return f(ctx, n)
}
