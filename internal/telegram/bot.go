// ABOUTME: Telegram bot implementing transport.Endpoint
// ABOUTME: Sends, edits, downloads and re-uploads attachments under one bot token

package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389/event-relay/internal/config"
	"github.com/2389/event-relay/internal/transport"
)

// downloadTimeout bounds a single attachment download when the caller's
// context carries no deadline.
const downloadTimeout = 2 * time.Minute

// botAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// Bot is one Telegram bot acting as a transport.Endpoint.
type Bot struct {
	name         string
	api          botAPI
	uploadChatID int64
	http         *http.Client
	logger       *slog.Logger
}

// New connects to the Bot API with cfg's token and verifies it.
func New(name string, cfg config.BotConfig, logger *slog.Logger) (*Bot, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting %s bot: %w", name, err)
	}
	api.Debug = cfg.Debug

	b := newBot(name, api, cfg.UploadChatID, logger)
	b.logger.Info("bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newBot(name string, api botAPI, uploadChatID int64, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		name:         name,
		api:          api,
		uploadChatID: uploadChatID,
		http:         &http.Client{Timeout: downloadTimeout},
		logger:       logger.With("component", "telegram", "endpoint", name),
	}
}

// Name implements transport.Endpoint.
func (b *Bot) Name() string {
	return b.name
}

// Send implements transport.Endpoint.
func (b *Bot) Send(ctx context.Context, msg *transport.Message) (transport.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return transport.MessageRef{}, err
	}

	markup, err := replyMarkup(msg.Keyboard)
	if err != nil {
		return transport.MessageRef{}, err
	}
	c, err := sendConfig(msg.ChatID, msg.Payload, tgbotapi.FileID(msg.Payload.Handle), msg.Caption, markup)
	if err != nil {
		return transport.MessageRef{}, err
	}

	sent, err := b.api.Send(c)
	if err != nil {
		return transport.MessageRef{}, fmt.Errorf("sending %s to chat %d: %w", msg.Payload.Kind, msg.ChatID, err)
	}
	return transport.MessageRef{ChatID: msg.ChatID, MessageID: sent.MessageID}, nil
}

// EditMedia implements transport.Endpoint. Re-rendering identical content
// is not an error.
func (b *Bot) EditMedia(ctx context.Context, ref transport.MessageRef, media transport.Payload, caption string, kb *transport.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := inputMedia(media, caption)
	if err != nil {
		return err
	}
	markup, err := inlineMarkup(kb)
	if err != nil {
		return err
	}

	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      ref.ChatID,
			MessageID:   ref.MessageID,
			ReplyMarkup: markup,
		},
		Media: m,
	}
	if _, err := b.api.Request(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("editing message %d in chat %d: %w", ref.MessageID, ref.ChatID, err)
	}
	return nil
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "message is not modified")
}

// Open implements transport.Endpoint by resolving the file id to a
// download URL and streaming it.
func (b *Bot) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(handle)
	if err != nil {
		return nil, fmt.Errorf("resolving file %q: %w", handle, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file %q: %w", handle, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading file %q: status %d", handle, resp.StatusCode)
	}
	return resp.Body, nil
}

// Upload implements transport.Endpoint. The file is posted to the upload
// chat and the file id Telegram assigns to it is returned.
func (b *Bot) Upload(ctx context.Context, kind transport.Kind, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !kind.NeedsBridge() {
		return "", fmt.Errorf("%w: %s has no file to upload", transport.ErrUnsupportedKind, kind)
	}

	file := tgbotapi.FileReader{Name: name, Reader: r}
	c, err := sendConfig(b.uploadChatID, transport.Payload{Kind: kind}, file, "", nil)
	if err != nil {
		return "", err
	}

	sent, err := b.api.Send(c)
	if err != nil {
		return "", fmt.Errorf("uploading %s %q: %w", kind, name, err)
	}

	p := payloadFromMessage(&sent)
	if p == nil || p.Handle == "" {
		return "", fmt.Errorf("uploading %s %q: no file in response", kind, name)
	}
	if p.Kind != kind {
		b.logger.Debug("upload stored under a different kind", "requested", kind, "stored", p.Kind)
	}
	return p.Handle, nil
}

// AnswerCallback implements transport.Endpoint.
func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answering callback: %w", err)
	}
	return nil
}

var _ transport.Endpoint = (*Bot)(nil)
