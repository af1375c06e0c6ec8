// ABOUTME: Builds Bot API request configs from transport messages
// ABOUTME: One constructor per payload kind plus inline and reply keyboard markup

package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/transport"
)

// replyMarkup converts kb into the reply_markup value of a send request.
// A nil keyboard leaves the markup unset.
func replyMarkup(kb *transport.Keyboard) (any, error) {
	switch {
	case kb == nil:
		return nil, nil
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(false), nil
	case len(kb.Reply) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Reply))
		for _, labels := range kb.Reply {
			row := make([]tgbotapi.KeyboardButton, 0, len(labels))
			for _, l := range labels {
				row = append(row, tgbotapi.NewKeyboardButton(l))
			}
			rows = append(rows, row)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup, nil
	case len(kb.Inline) > 0:
		return inlineMarkup(kb)
	}
	return nil, nil
}

// inlineMarkup converts the inline part of kb, or returns nil when there is none.
func inlineMarkup(kb *transport.Keyboard) (*tgbotapi.InlineKeyboardMarkup, error) {
	if kb == nil || len(kb.Inline) == 0 {
		return nil, nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Inline))
	for _, controls := range kb.Inline {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(controls))
		for _, c := range controls {
			if c.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(c.Text, c.URL))
				continue
			}
			data, err := callback.Encode(c.Data)
			if err != nil {
				return nil, fmt.Errorf("encoding control %q: %w", c.Text, err)
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.Text, data))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup, nil
}

// sendConfig builds the request delivering p to chatID. file is the
// attachment to send; callers pass a FileID for relays and a FileReader
// for uploads.
func sendConfig(chatID int64, p transport.Payload, file tgbotapi.RequestFileData, caption string, markup any) (tgbotapi.Chattable, error) {
	switch p.Kind {
	case transport.KindText:
		c := tgbotapi.NewMessage(chatID, p.Text)
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindPhoto:
		c := tgbotapi.NewPhoto(chatID, file)
		c.Caption = caption
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindAudio:
		c := tgbotapi.NewAudio(chatID, file)
		c.Caption = caption
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindDocument:
		c := tgbotapi.NewDocument(chatID, file)
		c.Caption = caption
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindVideo:
		c := tgbotapi.NewVideo(chatID, file)
		c.Caption = caption
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindAnimation:
		c := tgbotapi.NewAnimation(chatID, file)
		c.Caption = caption
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindVoice:
		c := tgbotapi.NewVoice(chatID, file)
		c.Caption = caption
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindVideoNote:
		c := tgbotapi.NewVideoNote(chatID, p.Length, file)
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindSticker:
		c := tgbotapi.NewSticker(chatID, file)
		c.ReplyMarkup = markup
		return c, nil
	case transport.KindLocation:
		if p.Location == nil {
			return nil, fmt.Errorf("location payload without coordinates")
		}
		c := tgbotapi.NewLocation(chatID, p.Location.Latitude, p.Location.Longitude)
		c.ReplyMarkup = markup
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", transport.ErrUnsupportedKind, p.Kind)
}

// inputMedia builds the replacement media of an edit.
func inputMedia(p transport.Payload, caption string) (any, error) {
	file := tgbotapi.FileID(p.Handle)
	switch p.Kind {
	case transport.KindPhoto:
		m := tgbotapi.NewInputMediaPhoto(file)
		m.Caption = caption
		return m, nil
	case transport.KindVideo:
		m := tgbotapi.NewInputMediaVideo(file)
		m.Caption = caption
		return m, nil
	case transport.KindAnimation:
		m := tgbotapi.NewInputMediaAnimation(file)
		m.Caption = caption
		return m, nil
	case transport.KindDocument:
		m := tgbotapi.NewInputMediaDocument(file)
		m.Caption = caption
		return m, nil
	case transport.KindAudio:
		m := tgbotapi.NewInputMediaAudio(file)
		m.Caption = caption
		return m, nil
	}
	return nil, fmt.Errorf("%w: cannot edit media to %s", transport.ErrUnsupportedKind, p.Kind)
}
