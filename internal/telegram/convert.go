// ABOUTME: Converts Telegram updates into transport events
// ABOUTME: Maps message content onto the Payload union and decodes callback data

package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/transport"
)

// ErrIgnored is returned for updates the relay has no use for
// (channel posts, edits, unsupported content, service messages).
var ErrIgnored = errors.New("update ignored")

// Convert normalizes an update received by the named endpoint.
// Callback data that does not decode is delivered as an inert press so
// the spinner on the client still gets answered.
func Convert(endpoint string, u tgbotapi.Update) (*transport.Event, error) {
	key := fmt.Sprintf("%s:%d", endpoint, u.UpdateID)

	switch {
	case u.CallbackQuery != nil:
		return convertCallback(endpoint, key, u.CallbackQuery)
	case u.Message != nil:
		return convertMessage(endpoint, key, u.Message)
	}
	return nil, ErrIgnored
}

func convertMessage(endpoint, key string, m *tgbotapi.Message) (*transport.Event, error) {
	if m.From == nil || m.Chat == nil {
		return nil, ErrIgnored
	}

	p := payloadFromMessage(m)
	if p == nil {
		return nil, ErrIgnored
	}

	ev := &transport.Event{
		Endpoint:  endpoint,
		Key:       key,
		Sender:    userFrom(m.From),
		ChatID:    m.Chat.ID,
		MessageID: m.MessageID,
		Payload:   p,
	}
	if m.IsCommand() {
		ev.Command = m.Command()
		ev.CommandArgs = m.CommandArguments()
	}
	return ev, nil
}

func convertCallback(endpoint, key string, q *tgbotapi.CallbackQuery) (*transport.Event, error) {
	if q.From == nil {
		return nil, ErrIgnored
	}

	data, err := callback.Decode(q.Data)
	if err != nil {
		data = callback.Inert()
	}

	cb := &transport.Callback{ID: q.ID, Data: data}
	ev := &transport.Event{
		Endpoint: endpoint,
		Key:      key,
		Sender:   userFrom(q.From),
		Callback: cb,
	}
	if m := q.Message; m != nil && m.Chat != nil {
		cb.Message = transport.MessageRef{ChatID: m.Chat.ID, MessageID: m.MessageID}
		cb.MessageText = m.Text
		if cb.MessageText == "" {
			cb.MessageText = m.Caption
		}
		ev.ChatID = m.Chat.ID
		ev.MessageID = m.MessageID
	}
	return ev, nil
}

func userFrom(u *tgbotapi.User) transport.User {
	return transport.User{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}

// payloadFromMessage extracts the content of m, or nil when the message
// carries nothing the relay understands. Animations are checked before
// documents because Telegram fills both for GIFs.
func payloadFromMessage(m *tgbotapi.Message) *transport.Payload {
	media := func(kind transport.Kind, handle string) *transport.Payload {
		p := transport.MediaPayload(kind, handle)
		p.Text = m.Caption
		return &p
	}

	switch {
	case len(m.Photo) > 0:
		return media(transport.KindPhoto, m.Photo[len(m.Photo)-1].FileID)
	case m.Animation != nil:
		p := media(transport.KindAnimation, m.Animation.FileID)
		p.FileName = m.Animation.FileName
		return p
	case m.Document != nil:
		p := media(transport.KindDocument, m.Document.FileID)
		p.FileName = m.Document.FileName
		return p
	case m.Audio != nil:
		return media(transport.KindAudio, m.Audio.FileID)
	case m.Video != nil:
		return media(transport.KindVideo, m.Video.FileID)
	case m.VideoNote != nil:
		p := media(transport.KindVideoNote, m.VideoNote.FileID)
		p.Length = m.VideoNote.Length
		return p
	case m.Voice != nil:
		return media(transport.KindVoice, m.Voice.FileID)
	case m.Sticker != nil:
		return media(transport.KindSticker, m.Sticker.FileID)
	case m.Location != nil:
		return &transport.Payload{
			Kind:     transport.KindLocation,
			Location: &transport.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude},
		}
	case m.Text != "":
		p := transport.TextPayload(m.Text)
		return &p
	}
	return nil
}
