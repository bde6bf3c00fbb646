package delivery

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/codeGROOVE-dev/retry"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSubscriptionGone is returned when the push service reports the
// subscription no longer exists.
var ErrSubscriptionGone = errors.New("push subscription expired")

// PushMessage is the JSON body delivered to the service worker.
type PushMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
}

// WebPushOptions holds VAPID credentials for the push service.
type WebPushOptions struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	HTTPClient webpush.HTTPClient
}

// WebPush delivers notices to a browser push subscription. The recipient
// handle is the subscription JSON produced by PushManager.subscribe.
type WebPush struct {
	opts     WebPushOptions
	composer Composer
	logger   *zap.SugaredLogger
	attempts uint
	delay    time.Duration
}

func NewWebPush(opts WebPushOptions, composer Composer, logger *zap.SugaredLogger) *WebPush {
	return &WebPush{
		opts:     opts,
		composer: composer,
		logger:   logger,
		attempts: 3,
		delay:    time.Second,
	}
}

// ParseSubscription decodes a recipient handle into a push subscription.
func ParseSubscription(handle string) (*webpush.Subscription, error) {
	var sub webpush.Subscription
	if err := json.UnmarshalFromString(handle, &sub); err != nil {
		return nil, fmt.Errorf("invalid push subscription: %w", err)
	}
	if sub.Endpoint == "" || sub.Keys.Auth == "" || sub.Keys.P256dh == "" {
		return nil, fmt.Errorf("invalid push subscription: missing endpoint or keys")
	}
	return &sub, nil
}

// topic derives a header-safe Topic from the notice key. Push services
// replace a pending message with the same topic.
func topic(key string) string {
	sum := sha256.Sum256([]byte(key))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:32]
}

func (w *WebPush) Deliver(ctx context.Context, n Notice) error {
	sub, err := ParseSubscription(n.Recipient)
	if err != nil {
		return err
	}

	text, err := w.composer.Compose(ctx, n)
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	payload, err := json.Marshal(PushMessage{
		Title:   "Reminder",
		Message: text,
		Tag:     n.Key(),
	})
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}

	return retry.Do(
		func() error {
			resp, err := webpush.SendNotificationWithContext(ctx, payload, sub, &webpush.Options{
				HTTPClient:      w.opts.HTTPClient,
				Subscriber:      w.opts.Subscriber,
				VAPIDPublicKey:  w.opts.PublicKey,
				VAPIDPrivateKey: w.opts.PrivateKey,
				Topic:           topic(n.Key()),
				TTL:             3600,
				Urgency:         webpush.UrgencyHigh,
			})
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			switch {
			case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
				return retry.Unrecoverable(ErrSubscriptionGone)
			case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
				return retry.Unrecoverable(fmt.Errorf("push service rejected notification: HTTP %d", resp.StatusCode))
			case resp.StatusCode >= 300:
				return fmt.Errorf("push service: HTTP %d", resp.StatusCode)
			}
			return nil
		},
		retry.Attempts(w.attempts),
		retry.Delay(w.delay),
		retry.MaxDelay(10*time.Second),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(attempt uint, err error) {
			w.logger.Warnw("Retrying web push", "reminder_id", n.ReminderID, "attempt", attempt, "error", err)
		}),
	)
}
