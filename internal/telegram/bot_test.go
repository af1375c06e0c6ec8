// ABOUTME: Tests for the Telegram endpoint against a fake Bot API
// ABOUTME: Verifies request configs per kind, keyboard markup, uploads, downloads and webhook intake

package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/transport"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable

	sendResult tgbotapi.Message
	sendErr    error
	requestErr error
	fileURL    string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return f.sendResult, f.sendErr
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) HandleUpdate(r *http.Request) (*tgbotapi.Update, error) {
	var upd tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		return nil, err
	}
	return &upd, nil
}

func newTestBot() (*Bot, *fakeAPI) {
	api := &fakeAPI{sendResult: tgbotapi.Message{MessageID: 77}}
	return newBot(transport.EndpointService, api, -100222, nil), api
}

func TestBot_SendText(t *testing.T) {
	b, api := newTestBot()

	ref, err := b.Send(context.Background(), &transport.Message{
		ChatID:   5001,
		Payload:  transport.TextPayload("hi"),
		Keyboard: transport.RemoveKeyboard(),
	})
	require.NoError(t, err)
	assert.Equal(t, transport.MessageRef{ChatID: 5001, MessageID: 77}, ref)

	require.Len(t, api.sent, 1)
	c, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(5001), c.ChatID)
	assert.Equal(t, "hi", c.Text)
	assert.Equal(t, tgbotapi.NewRemoveKeyboard(false), c.ReplyMarkup)
}

func TestBot_SendPhotoWithInlineControls(t *testing.T) {
	b, api := newTestBot()

	kb := transport.InlineKeyboard(
		[]transport.Control{transport.DataControl("Ответить", callback.AnswerUser(101))},
		[]transport.Control{transport.URLControl("Open", "https://t.me/bot?start=looktoid_7")},
	)
	_, err := b.Send(context.Background(), &transport.Message{
		ChatID:   5001,
		Payload:  transport.MediaPayload(transport.KindPhoto, "file-1"),
		Caption:  "Событие#:7",
		Keyboard: kb,
	})
	require.NoError(t, err)

	c, ok := api.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.FileID("file-1"), c.File)
	assert.Equal(t, "Событие#:7", c.Caption)

	markup, ok := c.ReplyMarkup.(*tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)

	btn := markup.InlineKeyboard[0][0]
	require.NotNil(t, btn.CallbackData)
	data, err := callback.Decode(*btn.CallbackData)
	require.NoError(t, err)
	assert.Equal(t, callback.AnswerUser(101), data)

	link := markup.InlineKeyboard[1][0]
	require.NotNil(t, link.URL)
	assert.Equal(t, "https://t.me/bot?start=looktoid_7", *link.URL)
}

func TestBot_SendReplyKeyboard(t *testing.T) {
	b, api := newTestBot()

	_, err := b.Send(context.Background(), &transport.Message{
		ChatID:   1,
		Payload:  transport.TextPayload("menu"),
		Keyboard: transport.ReplyKeyboard([]string{"Каталог"}, []string{"a", "b"}),
	})
	require.NoError(t, err)

	c := api.sent[0].(tgbotapi.MessageConfig)
	markup, ok := c.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, markup.ResizeKeyboard)
	require.Len(t, markup.Keyboard, 2)
	assert.Equal(t, "Каталог", markup.Keyboard[0][0].Text)
	assert.Len(t, markup.Keyboard[1], 2)
}

func TestBot_SendEveryKind(t *testing.T) {
	payloads := map[transport.Kind]transport.Payload{
		transport.KindAudio:     transport.MediaPayload(transport.KindAudio, "h"),
		transport.KindDocument:  transport.MediaPayload(transport.KindDocument, "h"),
		transport.KindSticker:   transport.MediaPayload(transport.KindSticker, "h"),
		transport.KindVideo:     transport.MediaPayload(transport.KindVideo, "h"),
		transport.KindVideoNote: transport.MediaPayload(transport.KindVideoNote, "h"),
		transport.KindVoice:     transport.MediaPayload(transport.KindVoice, "h"),
		transport.KindAnimation: transport.MediaPayload(transport.KindAnimation, "h"),
		transport.KindLocation:  {Kind: transport.KindLocation, Location: &transport.Location{Latitude: 1, Longitude: 2}},
	}

	for kind, p := range payloads {
		t.Run(kind.String(), func(t *testing.T) {
			b, api := newTestBot()
			_, err := b.Send(context.Background(), &transport.Message{ChatID: 1, Payload: p})
			require.NoError(t, err)
			require.Len(t, api.sent, 1)
		})
	}
}

func TestBot_SendLocationWithoutCoordinates(t *testing.T) {
	b, api := newTestBot()

	_, err := b.Send(context.Background(), &transport.Message{ChatID: 1, Payload: transport.Payload{Kind: transport.KindLocation}})
	assert.Error(t, err)
	assert.Empty(t, api.sent)
}

func TestBot_SendCancelledContext(t *testing.T) {
	b, api := newTestBot()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Send(ctx, &transport.Message{ChatID: 1, Payload: transport.TextPayload("x")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, api.sent)
}

func TestBot_EditMedia(t *testing.T) {
	b, api := newTestBot()

	kb := transport.InlineKeyboard([]transport.Control{transport.DataControl("Вперёд >", callback.Page(2))})
	err := b.EditMedia(context.Background(), transport.MessageRef{ChatID: 1, MessageID: 9},
		transport.MediaPayload(transport.KindPhoto, "photo-2"), "caption", kb)
	require.NoError(t, err)

	require.Len(t, api.requests, 1)
	edit, ok := api.requests[0].(tgbotapi.EditMessageMediaConfig)
	require.True(t, ok)
	assert.Equal(t, int64(1), edit.ChatID)
	assert.Equal(t, 9, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)

	media, ok := edit.Media.(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	assert.Equal(t, tgbotapi.FileID("photo-2"), media.Media)
	assert.Equal(t, "caption", media.Caption)
}

func TestBot_EditMediaNotModifiedIsSuccess(t *testing.T) {
	b, api := newTestBot()
	api.requestErr = &tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified: specified new message content and reply markup are exactly the same"}

	err := b.EditMedia(context.Background(), transport.MessageRef{ChatID: 1, MessageID: 9},
		transport.MediaPayload(transport.KindPhoto, "p"), "c", nil)
	assert.NoError(t, err)

	api.requestErr = &tgbotapi.Error{Code: 400, Message: "Bad Request: message to edit not found"}
	err = b.EditMedia(context.Background(), transport.MessageRef{ChatID: 1, MessageID: 9},
		transport.MediaPayload(transport.KindPhoto, "p"), "c", nil)
	assert.Error(t, err)
}

func TestBot_EditMediaUnsupportedKind(t *testing.T) {
	b, _ := newTestBot()

	err := b.EditMedia(context.Background(), transport.MessageRef{}, transport.MediaPayload(transport.KindSticker, "s"), "", nil)
	assert.ErrorIs(t, err, transport.ErrUnsupportedKind)
}

func TestBot_Upload(t *testing.T) {
	b, api := newTestBot()
	api.sendResult = tgbotapi.Message{MessageID: 1, Document: &tgbotapi.Document{FileID: "service-doc-id"}}

	handle, err := b.Upload(context.Background(), transport.KindDocument, "agenda.pdf", strings.NewReader("pdf bytes"))
	require.NoError(t, err)
	assert.Equal(t, "service-doc-id", handle)

	c, ok := api.sent[0].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100222), c.ChatID, "uploads go to the upload chat")
	file, ok := c.File.(tgbotapi.FileReader)
	require.True(t, ok)
	assert.Equal(t, "agenda.pdf", file.Name)
}

func TestBot_UploadPhotoUsesLargestSize(t *testing.T) {
	b, api := newTestBot()
	api.sendResult = tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "thumb"}, {FileID: "full"}}}

	handle, err := b.Upload(context.Background(), transport.KindPhoto, "p.jpg", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "full", handle)
}

func TestBot_UploadErrors(t *testing.T) {
	b, api := newTestBot()

	_, err := b.Upload(context.Background(), transport.KindSticker, "s", strings.NewReader(""))
	assert.ErrorIs(t, err, transport.ErrUnsupportedKind)

	api.sendResult = tgbotapi.Message{Text: "no file"}
	_, err = b.Upload(context.Background(), transport.KindVoice, "v.ogg", strings.NewReader("ogg"))
	assert.ErrorContains(t, err, "no file in response")
}

func TestBot_Open(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "bytes of "+strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer srv.Close()

	b, api := newTestBot()
	api.fileURL = srv.URL

	rc, err := b.Open(context.Background(), "file-1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "bytes of file-1", string(data))

	_, err = b.Open(context.Background(), "missing")
	assert.ErrorContains(t, err, "status 404")
}

func TestBot_AnswerCallback(t *testing.T) {
	b, api := newTestBot()

	require.NoError(t, b.AnswerCallback(context.Background(), "cb-1", "Событие недоступно."))
	c, ok := api.requests[0].(tgbotapi.CallbackConfig)
	require.True(t, ok)
	assert.Equal(t, "cb-1", c.CallbackQueryID)
	assert.Equal(t, "Событие недоступно.", c.Text)
}

func TestBot_WebhookHandler(t *testing.T) {
	b, _ := newTestBot()

	var got []*transport.Event
	h := b.WebhookHandler(context.Background(), func(_ context.Context, ev *transport.Event) {
		got = append(got, ev)
	})

	body := `{"update_id": 5, "message": {"message_id": 3, "from": {"id": 5001, "first_name": "Owner"}, "chat": {"id": 5001, "type": "private"}, "text": "hi"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/service", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "service:5", got[0].Key)
	assert.Equal(t, "hi", got[0].Text())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/service", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, got, 1)
}

func TestBot_PollStopsOnCancel(t *testing.T) {
	b, api := newTestBot()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Poll(ctx, 0, func(context.Context, *transport.Event) {})
	assert.NoError(t, err)
	require.Len(t, api.requests, 1)
	_, ok := api.requests[0].(tgbotapi.DeleteWebhookConfig)
	assert.True(t, ok)
}
