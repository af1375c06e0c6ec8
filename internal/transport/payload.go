// ABOUTME: Payload tagged union for relayed message content
// ABOUTME: Kind decides whether content must be bridged between endpoints and whether it takes a caption

package transport

import "fmt"

// Kind tags a Payload.
type Kind int

const (
	KindText Kind = iota
	KindPhoto
	KindAudio
	KindDocument
	KindSticker
	KindVideo
	KindVideoNote
	KindVoice
	KindAnimation
	KindLocation
)

var kindNames = [...]string{
	KindText:      "text",
	KindPhoto:     "photo",
	KindAudio:     "audio",
	KindDocument:  "document",
	KindSticker:   "sticker",
	KindVideo:     "video",
	KindVideoNote: "video_note",
	KindVoice:     "voice",
	KindAnimation: "animation",
	KindLocation:  "location",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// NeedsBridge reports whether the payload carries an endpoint-scoped binary
// handle that has to be re-uploaded before the other endpoint can send it.
// Sticker ids are portable and locations carry no binary.
func (k Kind) NeedsBridge() bool {
	switch k {
	case KindPhoto, KindAudio, KindDocument, KindVideo, KindVideoNote, KindVoice, KindAnimation:
		return true
	}
	return false
}

// Captioned reports whether a message of this kind can carry a caption and
// an inline keyboard together with its content.
func (k Kind) Captioned() bool {
	switch k {
	case KindSticker, KindVideoNote, KindLocation:
		return false
	}
	return true
}

// Location is a point on the map.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Payload is the content of a message.
type Payload struct {
	Kind Kind

	// Text is the message text for KindText and the caption otherwise.
	Text string

	// Handle is the endpoint-scoped attachment reference (file id).
	Handle string

	// FileName is kept for documents and audio so re-uploads keep the name.
	FileName string

	// Length is the video note diameter.
	Length int

	Location *Location
}

// TextPayload builds a text payload.
func TextPayload(text string) Payload {
	return Payload{Kind: KindText, Text: text}
}

// MediaPayload builds a payload carrying an attachment handle.
func MediaPayload(kind Kind, handle string) Payload {
	return Payload{Kind: kind, Handle: handle}
}

// WithHandle returns a copy of p referencing a different attachment handle.
func (p Payload) WithHandle(handle string) Payload {
	p.Handle = handle
	return p
}
