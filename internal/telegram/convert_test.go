// ABOUTME: Tests for update conversion
// ABOUTME: Covers commands, every content kind, callbacks and ignored updates

package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/transport"
)

func message(mutate func(m *tgbotapi.Message)) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: 12,
		From:      &tgbotapi.User{ID: 101, FirstName: "Ann", LastName: "Lee", UserName: "ann"},
		Chat:      &tgbotapi.Chat{ID: 101},
	}
	mutate(m)
	return tgbotapi.Update{UpdateID: 900, Message: m}
}

func TestConvert_TextMessage(t *testing.T) {
	ev, err := Convert(transport.EndpointClient, message(func(m *tgbotapi.Message) {
		m.Text = "hello"
	}))
	require.NoError(t, err)

	assert.Equal(t, "client:900", ev.Key)
	assert.Equal(t, transport.EndpointClient, ev.Endpoint)
	assert.Equal(t, int64(101), ev.Identity())
	assert.Equal(t, int64(101), ev.ChatID)
	assert.Equal(t, 12, ev.MessageID)
	assert.Equal(t, "Ann Lee", ev.Sender.DisplayName())
	assert.Equal(t, "hello", ev.Text())
	assert.Empty(t, ev.Command)
	assert.Nil(t, ev.Callback)
}

func TestConvert_Command(t *testing.T) {
	ev, err := Convert(transport.EndpointClient, message(func(m *tgbotapi.Message) {
		m.Text = "/start looktoid_7"
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
	}))
	require.NoError(t, err)

	assert.Equal(t, "start", ev.Command)
	assert.Equal(t, "looktoid_7", ev.CommandArgs)
}

func TestConvert_MediaKinds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *tgbotapi.Message)
		kind   transport.Kind
		handle string
	}{
		{"photo picks largest size", func(m *tgbotapi.Message) {
			m.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
		}, transport.KindPhoto, "large"},
		{"animation wins over document", func(m *tgbotapi.Message) {
			m.Animation = &tgbotapi.Animation{FileID: "gif"}
			m.Document = &tgbotapi.Document{FileID: "gif-doc"}
		}, transport.KindAnimation, "gif"},
		{"document", func(m *tgbotapi.Message) {
			m.Document = &tgbotapi.Document{FileID: "doc", FileName: "agenda.pdf"}
		}, transport.KindDocument, "doc"},
		{"audio", func(m *tgbotapi.Message) { m.Audio = &tgbotapi.Audio{FileID: "aud"} }, transport.KindAudio, "aud"},
		{"video", func(m *tgbotapi.Message) { m.Video = &tgbotapi.Video{FileID: "vid"} }, transport.KindVideo, "vid"},
		{"video note", func(m *tgbotapi.Message) {
			m.VideoNote = &tgbotapi.VideoNote{FileID: "note", Length: 240}
		}, transport.KindVideoNote, "note"},
		{"voice", func(m *tgbotapi.Message) { m.Voice = &tgbotapi.Voice{FileID: "ogg"} }, transport.KindVoice, "ogg"},
		{"sticker", func(m *tgbotapi.Message) { m.Sticker = &tgbotapi.Sticker{FileID: "stk"} }, transport.KindSticker, "stk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Convert(transport.EndpointService, message(func(m *tgbotapi.Message) {
				m.Caption = "look"
				tt.mutate(m)
			}))
			require.NoError(t, err)
			require.NotNil(t, ev.Payload)
			assert.Equal(t, tt.kind, ev.Payload.Kind)
			assert.Equal(t, tt.handle, ev.Payload.Handle)
			assert.Equal(t, "look", ev.Payload.Text)
		})
	}
}

func TestConvert_DocumentKeepsNameAndNoteKeepsLength(t *testing.T) {
	ev, err := Convert(transport.EndpointClient, message(func(m *tgbotapi.Message) {
		m.Document = &tgbotapi.Document{FileID: "doc", FileName: "agenda.pdf"}
	}))
	require.NoError(t, err)
	assert.Equal(t, "agenda.pdf", ev.Payload.FileName)

	ev, err = Convert(transport.EndpointClient, message(func(m *tgbotapi.Message) {
		m.VideoNote = &tgbotapi.VideoNote{FileID: "note", Length: 240}
	}))
	require.NoError(t, err)
	assert.Equal(t, 240, ev.Payload.Length)
}

func TestConvert_Location(t *testing.T) {
	ev, err := Convert(transport.EndpointClient, message(func(m *tgbotapi.Message) {
		m.Location = &tgbotapi.Location{Latitude: 55.75, Longitude: 37.61}
	}))
	require.NoError(t, err)
	require.NotNil(t, ev.Payload.Location)
	assert.Equal(t, transport.KindLocation, ev.Payload.Kind)
	assert.Equal(t, 55.75, ev.Payload.Location.Latitude)
	assert.Equal(t, 37.61, ev.Payload.Location.Longitude)
}

func TestConvert_Callback(t *testing.T) {
	data := callback.MustEncode(callback.AnswerUser(101))
	upd := tgbotapi.Update{
		UpdateID: 901,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: 5001, FirstName: "Owner"},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 44,
				Chat:      &tgbotapi.Chat{ID: 5001},
				Caption:   "Событие#:7\nhello",
			},
		},
	}

	ev, err := Convert(transport.EndpointService, upd)
	require.NoError(t, err)
	require.NotNil(t, ev.Callback)

	assert.Equal(t, "service:901", ev.Key)
	assert.Equal(t, "cb-1", ev.Callback.ID)
	assert.Equal(t, callback.AnswerUser(101), ev.Callback.Data)
	assert.Equal(t, transport.MessageRef{ChatID: 5001, MessageID: 44}, ev.Callback.Message)
	assert.Equal(t, "Событие#:7\nhello", ev.Callback.MessageText)
	assert.Equal(t, int64(5001), ev.ChatID)
	assert.Nil(t, ev.Payload)
}

func TestConvert_MalformedCallbackIsInert(t *testing.T) {
	upd := tgbotapi.Update{
		UpdateID: 902,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-2",
			From: &tgbotapi.User{ID: 1},
			Data: "Назад_3",
		},
	}

	ev, err := Convert(transport.EndpointClient, upd)
	require.NoError(t, err)
	assert.Equal(t, callback.Inert(), ev.Callback.Data)
}

func TestConvert_Ignored(t *testing.T) {
	tests := []struct {
		name string
		upd  tgbotapi.Update
	}{
		{"channel post", tgbotapi.Update{UpdateID: 1, ChannelPost: &tgbotapi.Message{Text: "x"}}},
		{"no sender", tgbotapi.Update{UpdateID: 2, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "x"}}},
		{"service message", message(func(m *tgbotapi.Message) { m.NewChatMembers = []tgbotapi.User{{ID: 3}} })},
		{"callback without sender", tgbotapi.Update{UpdateID: 3, CallbackQuery: &tgbotapi.CallbackQuery{ID: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(transport.EndpointClient, tt.upd)
			assert.ErrorIs(t, err, ErrIgnored)
		})
	}
}
