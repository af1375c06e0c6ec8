// ABOUTME: Error taxonomy of the relay engine
// ABOUTME: None of these are fatal; the gateway logs them and keeps serving other identities

package relay

import (
	"errors"
	"fmt"

	"github.com/2389/event-relay/internal/transport"
)

var (
	// ErrMalformedAnchor is returned by Enter when the anchor line does not
	// parse or the anchored item no longer exists.
	ErrMalformedAnchor = errors.New("malformed anchor")

	// ErrMalformedRoute is returned by Enter on the service side when the
	// pressed control does not carry a chat to answer.
	ErrMalformedRoute = errors.New("malformed reply route")

	// ErrNoActiveConversation is returned by Forward and ShowAnchor when
	// the identity is Idle.
	ErrNoActiveConversation = errors.New("no active conversation")

	// ErrDeliveryFailed is returned when the counterpart endpoint rejected
	// the message. Delivery is not retried.
	ErrDeliveryFailed = errors.New("delivery failed")
)

// BridgeTransferError is returned by Forward when an attachment could not
// be moved to the counterpart endpoint. Nothing was delivered.
type BridgeTransferError struct {
	Kind transport.Kind
	Err  error
}

func (e *BridgeTransferError) Error() string {
	return fmt.Sprintf("bridging %s: %v", e.Kind, e.Err)
}

func (e *BridgeTransferError) Unwrap() error {
	return e.Err
}
