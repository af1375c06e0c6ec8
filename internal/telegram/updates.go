// ABOUTME: Update sources for a Telegram bot
// ABOUTME: Long polling loop and webhook HTTP handler, both feeding a Handler

package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389/event-relay/internal/transport"
)

// Handler receives converted events. It must not block for long; the
// gateway hands each event to its own goroutine.
type Handler func(ctx context.Context, ev *transport.Event)

// Poll long-polls for updates until ctx is cancelled. Any webhook left
// registered for the bot is removed first, since Telegram refuses
// getUpdates while one is set.
func (b *Bot) Poll(ctx context.Context, timeout time.Duration, handle Handler) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("removing webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(timeout / time.Second)
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("polling for updates", "timeout", timeout)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("stopped polling")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, upd, handle)
		}
	}
}

// SetWebhook registers url as the bot's webhook.
func (b *Bot) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("building webhook config: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	b.logger.Info("webhook registered", "url", url)
	return nil
}

// WebhookHandler returns an http.Handler accepting Telegram webhook posts.
// Events are handled with ctx, not the request context, so processing
// outlives the HTTP exchange.
func (b *Bot) WebhookHandler(ctx context.Context, handle Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upd, err := b.api.HandleUpdate(r)
		if err != nil {
			b.logger.Warn("rejecting webhook request", "error", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		b.dispatch(ctx, *upd, handle)
		w.WriteHeader(http.StatusOK)
	})
}

func (b *Bot) dispatch(ctx context.Context, upd tgbotapi.Update, handle Handler) {
	ev, err := Convert(b.name, upd)
	if err != nil {
		if !errors.Is(err, ErrIgnored) {
			b.logger.Warn("dropping update", "update_id", upd.UpdateID, "error", err)
		}
		return
	}
	handle(ctx, ev)
}
