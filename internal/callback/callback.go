// ABOUTME: Typed callback payloads embedded in inline keyboard buttons
// ABOUTME: Encodes control data as CBOR with integer keys, base64url, under the 64 byte button limit

package callback

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MaxEncodedLen is the largest callback_data Telegram accepts.
const MaxEncodedLen = 64

// Namespaces and actions understood by the gateway.
const (
	NamespaceCatalog = "catalog"

	ActionAnswerUser   = "answeruser"
	ActionConnectOwner = "connect_owner"
	ActionViewItem     = "view_item"
	ActionInert        = "inert"
)

// ErrTooLong is returned when an encoded payload would not fit in a button.
var ErrTooLong = errors.New("callback data exceeds 64 bytes")

// ErrMalformed is returned when callback data cannot be decoded.
var ErrMalformed = errors.New("malformed callback data")

// Data is the structured payload carried by a control.
// Exactly one of Namespace or Action is set.
type Data struct {
	Namespace string `cbor:"1,keyasint,omitempty"`
	Action    string `cbor:"2,keyasint,omitempty"`
	Page      int    `cbor:"3,keyasint,omitempty"`
	ChatID    int64  `cbor:"4,keyasint,omitempty"`
	ItemID    int64  `cbor:"5,keyasint,omitempty"`
}

// Page builds a catalog navigation payload.
func Page(page int) Data {
	return Data{Namespace: NamespaceCatalog, Page: page}
}

// AnswerUser builds the owner-side reply route back to an end user's chat.
func AnswerUser(chatID int64) Data {
	return Data{Action: ActionAnswerUser, ChatID: chatID}
}

// ConnectOwner builds the end-user-side reply route.
func ConnectOwner() Data {
	return Data{Action: ActionConnectOwner}
}

// ViewItem builds the payload that re-displays an item card.
func ViewItem(itemID int64) Data {
	return Data{Action: ActionViewItem, ItemID: itemID}
}

// Inert builds the payload for placeholder controls with no bound handler.
func Inert() Data {
	return Data{Action: ActionInert}
}

// IsCatalog reports whether d is a catalog navigation payload.
func (d Data) IsCatalog() bool {
	return d.Namespace == NamespaceCatalog
}

// encMode sorts keys so the same Data always yields the same bytes.
var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("callback: building cbor enc mode: %v", err))
	}
	return em
}()

// Encode serialises d into button-safe callback data.
func Encode(d Data) (string, error) {
	raw, err := encMode.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encoding callback data: %w", err)
	}
	s := base64.RawURLEncoding.EncodeToString(raw)
	if len(s) > MaxEncodedLen {
		return "", ErrTooLong
	}
	return s, nil
}

// MustEncode is Encode for payloads built from the constructors above,
// all of which fit comfortably.
func MustEncode(d Data) string {
	s, err := Encode(d)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses callback data produced by Encode.
func Decode(s string) (Data, error) {
	var d Data
	if s == "" || len(s) > MaxEncodedLen {
		return d, ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := cbor.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if d.Namespace == "" && d.Action == "" {
		return d, ErrMalformed
	}
	return d, nil
}
