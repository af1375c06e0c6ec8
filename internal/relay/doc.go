// Package relay implements the conversation state machine behind both bots.
//
// # Overview
//
// An end user talks to the client bot and an event owner talks to the
// service bot. Neither sees the other's contact; every message crosses
// through the relay, which re-sends it with the other bot. Each bot has its
// own Engine: the client-side Engine relays users to owners, the
// service-side Engine relays owners back to users.
//
// # States
//
// Every relaying identity (a Telegram user id) is either Idle or Active on
// a given bot:
//
//	Idle   --Enter-->   Active
//	Active --Enter-->   Active   (new counterpart replaces the old one)
//	Active --Forward--> Active
//	Active --Cancel-->  Idle
//	Idle   --Cancel-->  Idle     (nothing is sent)
//
// Forward while Idle returns ErrNoActiveConversation and sends nothing.
//
// # Anchor line
//
// The first line of every item card and every relayed message is
//
//	Событие#:<item id>
//
// Pressing a control under such a message recovers the item from the text
// itself, so no server-side mapping from messages to items is kept.
// AnchorLine writes the line and ParseAnchor reads it.
//
// # Attachments
//
// File ids are scoped to the bot that issued them. Photos, audio,
// documents, videos, video notes, voice notes and animations are moved
// with a Transferer (see package bridge) before delivery. Stickers and
// locations are sent as they are.
//
// Video notes, stickers and locations take no caption, so they are
// delivered bare and followed by a text message that carries the anchor
// line and the reply controls.
//
// # Concurrency
//
// Enter, Cancel and Forward hold the session lock of the sender for their
// whole run. Different identities never block each other.
package relay
