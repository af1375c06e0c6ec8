// ABOUTME: In-memory Endpoint for tests
// ABOUTME: Records every outbound call and lets tests inject download, upload and send failures

package transporttest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/2389/event-relay/internal/transport"
)

// Upload records one Upload call.
type Upload struct {
	Kind   transport.Kind
	Name   string
	Data   []byte
	Handle string
}

// Edit records one EditMedia call.
type Edit struct {
	Ref      transport.MessageRef
	Media    transport.Payload
	Caption  string
	Keyboard *transport.Keyboard
}

// Answer records one AnswerCallback call.
type Answer struct {
	CallbackID string
	Text       string
}

// Endpoint is a fake transport.Endpoint. Files maps handles to contents
// served by Open; uploads are assigned handles "<name>-up-<n>".
type Endpoint struct {
	name string

	mu      sync.Mutex
	Files   map[string][]byte
	Sent    []transport.Message
	Edits   []Edit
	Uploads []Upload
	Answers []Answer
	Opened  []string

	OpenErr   error
	UploadErr error
	SendErr   error
	EditErr   error

	nextID int
}

// New creates a fake endpoint with the given name.
func New(name string) *Endpoint {
	return &Endpoint{name: name, Files: make(map[string][]byte)}
}

func (e *Endpoint) Name() string { return e.name }

func (e *Endpoint) Send(ctx context.Context, msg *transport.Message) (transport.MessageRef, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SendErr != nil {
		return transport.MessageRef{}, e.SendErr
	}
	e.nextID++
	e.Sent = append(e.Sent, *msg)
	return transport.MessageRef{ChatID: msg.ChatID, MessageID: e.nextID}, nil
}

func (e *Endpoint) EditMedia(ctx context.Context, ref transport.MessageRef, media transport.Payload, caption string, kb *transport.Keyboard) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.EditErr != nil {
		return e.EditErr
	}
	e.Edits = append(e.Edits, Edit{Ref: ref, Media: media, Caption: caption, Keyboard: kb})
	return nil
}

func (e *Endpoint) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Opened = append(e.Opened, handle)
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	data, ok := e.Files[handle]
	if !ok {
		return nil, fmt.Errorf("%s: unknown file %q", e.name, handle)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (e *Endpoint) Upload(ctx context.Context, kind transport.Kind, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.UploadErr != nil {
		return "", e.UploadErr
	}
	handle := fmt.Sprintf("%s-up-%d", e.name, len(e.Uploads)+1)
	e.Uploads = append(e.Uploads, Upload{Kind: kind, Name: name, Data: data, Handle: handle})
	e.Files[handle] = data
	return handle, nil
}

func (e *Endpoint) AnswerCallback(ctx context.Context, callbackID, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Answers = append(e.Answers, Answer{CallbackID: callbackID, Text: text})
	return nil
}

// SentMessages returns a snapshot of delivered messages.
func (e *Endpoint) SentMessages() []transport.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]transport.Message(nil), e.Sent...)
}

// SendCount is the number of successful Send calls.
func (e *Endpoint) SendCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Sent)
}

// LastSent returns the most recent message; it panics if nothing was sent.
func (e *Endpoint) LastSent() transport.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Sent[len(e.Sent)-1]
}

// Reset clears recorded calls, keeping Files and injected errors.
func (e *Endpoint) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Sent = nil
	e.Edits = nil
	e.Uploads = nil
	e.Answers = nil
	e.Opened = nil
}

var _ transport.Endpoint = (*Endpoint)(nil)
