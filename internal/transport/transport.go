// ABOUTME: Bot transport contract shared by the relay, the catalog pager and the adapters
// ABOUTME: Defines Endpoint, inbound Event, the Payload tagged union and keyboard types

package transport

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/2389/event-relay/internal/callback"
)

// Endpoint names. One process runs both bots.
const (
	EndpointClient  = "client"
	EndpointService = "service"
)

// ErrUnsupportedKind is returned when an adapter cannot handle a payload kind.
var ErrUnsupportedKind = errors.New("unsupported payload kind")

// Endpoint is one authenticated bot. Each Endpoint owns its own credentials;
// handles returned by one Endpoint are only valid on that Endpoint.
type Endpoint interface {
	// Name is EndpointClient or EndpointService.
	Name() string

	// Send delivers a message and returns a reference to it.
	Send(ctx context.Context, msg *Message) (MessageRef, error)

	// EditMedia replaces the media, caption and inline keyboard of an
	// existing message in place.
	EditMedia(ctx context.Context, ref MessageRef, media Payload, caption string, kb *Keyboard) error

	// Open streams the bytes behind an attachment handle issued by this endpoint.
	Open(ctx context.Context, handle string) (io.ReadCloser, error)

	// Upload stores bytes under this endpoint's authorization and returns
	// a handle valid on this endpoint.
	Upload(ctx context.Context, kind Kind, name string, r io.Reader) (string, error)

	// AnswerCallback acknowledges a control press, optionally with a toast.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// MessageRef identifies a delivered message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// User is the sender of an inbound event.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// DisplayName is "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// Callback is a pressed inline control.
type Callback struct {
	ID   string
	Data callback.Data

	// Message is the message the control was attached to.
	Message MessageRef

	// MessageText is the text or caption of that message, used for
	// anchor recovery.
	MessageText string
}

// Event is a normalized inbound update from one endpoint.
type Event struct {
	// Endpoint is the name of the endpoint that received the event.
	Endpoint string

	// Key is unique per delivered update and is used for dedupe.
	Key string

	Sender    User
	ChatID    int64
	MessageID int

	// Command is set for "/cmd args" messages, without the slash.
	Command     string
	CommandArgs string

	// Payload is set for ordinary messages.
	Payload *Payload

	// Callback is set for control presses.
	Callback *Callback
}

// Identity is the relaying identity for per-user state: the sender's user id.
func (e *Event) Identity() int64 {
	return e.Sender.ID
}

// Text returns the message text, or "" for non-text events.
func (e *Event) Text() string {
	if e.Payload == nil || e.Payload.Kind != KindText {
		return ""
	}
	return e.Payload.Text
}
