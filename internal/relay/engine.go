// ABOUTME: Session relay engine: per-identity Enter/Cancel/Forward state machine for one bot endpoint
// ABOUTME: Binds an end user to an event owner and relays every payload kind through the other bot

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/session"
	"github.com/2389/event-relay/internal/store"
	"github.com/2389/event-relay/internal/transport"
)

// Role says which side of the relay an Engine serves.
type Role int

const (
	// RoleClient relays end users to event owners.
	RoleClient Role = iota
	// RoleService relays event owners back to end users.
	RoleService
)

func (r Role) String() string {
	if r == RoleService {
		return "service"
	}
	return "client"
}

// Transferer moves an attachment from one endpoint to another.
type Transferer interface {
	Transfer(ctx context.Context, src transport.Endpoint, handle string, kind transport.Kind, fileName string, dst transport.Endpoint) (string, error)
}

// CardRenderer sends an item card to a chat on the client endpoint.
type CardRenderer interface {
	ShowItem(ctx context.Context, chatID int64, itemID int64) error
}

// Config wires an Engine. Self and Peer are separate client handles; the
// engine never acts as Peer except to deliver and to receive uploads.
type Config struct {
	Role     Role
	Self     transport.Endpoint
	Peer     transport.Endpoint
	Items    store.Directory
	Sessions *session.Store
	Bridge   Transferer

	// Cards renders the anchor item for ShowAnchor. Client role only.
	Cards CardRenderer

	// ClientBotURL is the deep link prefix of the client bot, e.g.
	// "https://t.me/EventsBot?start=". Empty disables the owner-side
	// "view item" link.
	ClientBotURL string

	Logger *slog.Logger
}

// Engine is the relay state machine for one endpoint.
type Engine struct {
	role         Role
	self         transport.Endpoint
	peer         transport.Endpoint
	items        store.Directory
	sessions     *session.Store
	bridge       Transferer
	cards        CardRenderer
	clientBotURL string
	logger       *slog.Logger
	now          func() time.Time
}

// New creates an Engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = session.NewStore()
	}
	return &Engine{
		role:         cfg.Role,
		self:         cfg.Self,
		peer:         cfg.Peer,
		items:        cfg.Items,
		sessions:     sessions,
		bridge:       cfg.Bridge,
		cards:        cfg.Cards,
		clientBotURL: cfg.ClientBotURL,
		logger:       logger.With("component", "relay", "role", cfg.Role.String()),
		now:          time.Now,
	}
}

// Role returns the engine's side.
func (e *Engine) Role() Role {
	return e.role
}

// Session returns the current context of an identity.
func (e *Engine) Session(identity int64) session.Context {
	return e.sessions.Get(identity)
}

// EnterRequest opens a conversation.
type EnterRequest struct {
	Sender transport.User
	ChatID int64

	// AnchorText is the text or caption of the message whose control was
	// pressed; its first line is the anchor line.
	AnchorText string

	// Route is the pressed control's payload. On the service side it
	// carries the end user's chat.
	Route callback.Data
}

// Enter binds the sender to a counterpart, replacing any previous
// conversation of the sender. On a malformed anchor only the sender is told
// and the context is left unchanged.
func (e *Engine) Enter(ctx context.Context, req EnterRequest) error {
	identity := req.Sender.ID
	unlock := e.sessions.Lock(identity)
	defer unlock()

	itemID, err := ParseAnchor(req.AnchorText)
	if err != nil {
		e.notify(ctx, req.ChatID, textMalformedAnchor)
		return err
	}

	item, err := e.items.FetchByID(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		e.notify(ctx, req.ChatID, textMalformedAnchor)
		return fmt.Errorf("%w: item %d: %w", ErrMalformedAnchor, itemID, err)
	}
	if err != nil {
		return fmt.Errorf("resolving anchor item %d: %w", itemID, err)
	}

	var counterpart int64
	switch e.role {
	case RoleClient:
		counterpart = item.OwnerID
	case RoleService:
		if req.Route.Action != callback.ActionAnswerUser || req.Route.ChatID == 0 {
			e.notify(ctx, req.ChatID, textMalformedAnchor)
			return ErrMalformedRoute
		}
		counterpart = req.Route.ChatID
	}

	e.sessions.Set(identity, session.Context{
		Counterpart:  counterpart,
		AnchorItemID: item.ID,
		AnchorTitle:  item.Name,
		State:        session.Active,
		EnteredAt:    e.now(),
	})

	e.logger.Info("conversation entered",
		"identity", identity,
		"counterpart", counterpart,
		"item_id", item.ID,
	)

	text, kb := textEnteredClient+item.Name, clientChatKeyboard()
	if e.role == RoleService {
		text, kb = textEnteredService+item.Name, serviceChatKeyboard()
	}
	if _, err := e.self.Send(ctx, &transport.Message{
		ChatID:   req.ChatID,
		Payload:  transport.TextPayload(text),
		Keyboard: kb,
	}); err != nil {
		return fmt.Errorf("sending entry acknowledgement: %w", err)
	}
	return nil
}

// CancelRequest leaves the current conversation.
type CancelRequest struct {
	Sender transport.User
	ChatID int64
}

// Cancel resets the sender to Idle and confirms with the default keyboard.
// It reports false and sends nothing when the sender was already Idle.
func (e *Engine) Cancel(ctx context.Context, req CancelRequest) (bool, error) {
	identity := req.Sender.ID
	unlock := e.sessions.Lock(identity)
	defer unlock()

	if !e.sessions.Clear(identity) {
		return false, nil
	}

	e.logger.Info("conversation cancelled", "identity", identity)

	kb := MainKeyboard()
	if e.role == RoleService {
		kb = transport.RemoveKeyboard()
	}
	if _, err := e.self.Send(ctx, &transport.Message{
		ChatID:   req.ChatID,
		Payload:  transport.TextPayload(textCancelled),
		Keyboard: kb,
	}); err != nil {
		return true, fmt.Errorf("sending cancel confirmation: %w", err)
	}
	return true, nil
}

// ForwardRequest relays one message body.
type ForwardRequest struct {
	Sender  transport.User
	ChatID  int64
	Payload transport.Payload
}

// Forward relays the payload to the counterpart. Attachments are bridged
// first; on bridge failure nothing is delivered and the sender is told once.
// Delivery is attempted exactly once.
func (e *Engine) Forward(ctx context.Context, req ForwardRequest) error {
	identity := req.Sender.ID
	unlock := e.sessions.Lock(identity)
	defer unlock()

	conv := e.sessions.Get(identity)
	if conv.State != session.Active {
		return ErrNoActiveConversation
	}

	payload := req.Payload
	if payload.Kind.NeedsBridge() {
		handle, err := e.bridge.Transfer(ctx, e.self, payload.Handle, payload.Kind, payload.FileName, e.peer)
		if err != nil {
			e.notify(ctx, req.ChatID, textBridgeFailed)
			return &BridgeTransferError{Kind: payload.Kind, Err: err}
		}
		payload = payload.WithHandle(handle)
	}

	limit := MaxTextLength
	if payload.Kind.Captioned() {
		limit = MaxCaptionLength
	}
	caption := e.caption(conv, req.Sender, req.Payload.Text, limit)
	kb := e.replyControls(conv, req.ChatID)

	var err error
	switch {
	case payload.Kind == transport.KindText:
		_, err = e.peer.Send(ctx, &transport.Message{
			ChatID:   conv.Counterpart,
			Payload:  transport.TextPayload(caption),
			Keyboard: kb,
		})
	case payload.Kind.Captioned():
		payload.Text = ""
		_, err = e.peer.Send(ctx, &transport.Message{
			ChatID:   conv.Counterpart,
			Payload:  payload,
			Caption:  caption,
			Keyboard: kb,
		})
	default:
		// no caption or inline keyboard on these kinds; the follow-up
		// text carries the anchor line and the reply route
		_, err = e.peer.Send(ctx, &transport.Message{
			ChatID:  conv.Counterpart,
			Payload: payload,
		})
		if err == nil {
			_, err = e.peer.Send(ctx, &transport.Message{
				ChatID:   conv.Counterpart,
				Payload:  transport.TextPayload(caption),
				Keyboard: kb,
			})
		}
	}
	if err != nil {
		e.notify(ctx, req.ChatID, textDeliveryFailed)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	e.logger.Debug("message relayed",
		"identity", identity,
		"counterpart", conv.Counterpart,
		"kind", payload.Kind.String(),
	)
	return nil
}

// ShowAnchor re-sends the anchor item card to the sender. Client role only;
// it does not change state.
func (e *Engine) ShowAnchor(ctx context.Context, sender transport.User, chatID int64) error {
	conv := e.sessions.Get(sender.ID)
	if conv.State != session.Active {
		return ErrNoActiveConversation
	}
	if e.cards == nil {
		return fmt.Errorf("no card renderer on %s side", e.role)
	}
	return e.cards.ShowItem(ctx, chatID, conv.AnchorItemID)
}

// caption is the relayed text. The anchor line comes first so the
// receiving side can enter a reply conversation from the delivered message.
// The sender's text is shortened so the whole caption fits in limit.
func (e *Engine) caption(conv session.Context, sender transport.User, text string, limit int) string {
	header := textToOwnerHeader + conv.AnchorTitle
	if e.role == RoleService {
		header = textToUserHeader + conv.AnchorTitle
	}
	prefix := strings.Join([]string{AnchorLine(conv.AnchorItemID), header, sender.DisplayName() + ":"}, "\n")
	if text == "" {
		return truncate(prefix, limit)
	}
	return prefix + " " + truncate(text, limit-utf16Len(prefix)-1)
}

// replyControls is the inline keyboard attached to relayed messages.
func (e *Engine) replyControls(conv session.Context, senderChat int64) *transport.Keyboard {
	if e.role == RoleService {
		return transport.InlineKeyboard([]transport.Control{
			transport.DataControl(LabelAnswer, callback.ConnectOwner()),
			transport.DataControl(LabelViewItem, callback.ViewItem(conv.AnchorItemID)),
		})
	}
	row := []transport.Control{
		transport.DataControl(LabelAnswer, callback.AnswerUser(senderChat)),
	}
	if e.clientBotURL != "" {
		row = append(row, transport.URLControl(LabelViewItem, DeepLink(e.clientBotURL, conv.AnchorItemID)))
	}
	return transport.InlineKeyboard(row)
}

// DeepLinkPrefix is the /start argument prefix that opens an item card.
const DeepLinkPrefix = "looktoid_"

// DeepLink builds the client bot link that opens an item card.
func DeepLink(clientBotURL string, itemID int64) string {
	return fmt.Sprintf("%s%s%d", clientBotURL, DeepLinkPrefix, itemID)
}

// notify tells a chat on this endpoint about a failure. Send errors are
// logged; the original error is what the caller returns.
func (e *Engine) notify(ctx context.Context, chatID int64, text string) {
	if _, err := e.self.Send(ctx, &transport.Message{
		ChatID:  chatID,
		Payload: transport.TextPayload(text),
	}); err != nil {
		e.logger.Warn("failed to notify sender", "chat_id", chatID, "error", err)
	}
}
