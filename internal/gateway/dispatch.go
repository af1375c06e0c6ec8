// ABOUTME: Routes inbound bot events to the relay engines and the catalog pager
// ABOUTME: Drops redelivered updates, orders events per identity and tags each with a trace id

package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/event-relay/internal/callback"
	"github.com/2389/event-relay/internal/catalog"
	"github.com/2389/event-relay/internal/dedupe"
	"github.com/2389/event-relay/internal/relay"
	"github.com/2389/event-relay/internal/session"
	"github.com/2389/event-relay/internal/store"
	"github.com/2389/event-relay/internal/transport"
)

// Commands understood by both bots.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
)

const (
	textWelcomeClient  = "Здравствуйте! Нажмите «Каталог», чтобы посмотреть события."
	textWelcomeService = "Здесь будут появляться сообщения пользователей по вашим событиям. Нажмите «Ответить» под сообщением, чтобы ответить."
)

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Client  transport.Endpoint
	Service transport.Endpoint

	ClientRelay  *relay.Engine
	ServiceRelay *relay.Engine
	Pager        *catalog.Pager

	// Dedupe drops updates seen before. Nil disables dedupe.
	Dedupe *dedupe.Cache

	Logger *slog.Logger
}

// Dispatcher classifies events and hands them to the component owning them.
type Dispatcher struct {
	endpoints map[string]transport.Endpoint
	relays    map[string]*relay.Engine
	pager     *catalog.Pager
	dedupe    *dedupe.Cache
	lanes     *lanes
	logger    *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		endpoints: map[string]transport.Endpoint{
			transport.EndpointClient:  cfg.Client,
			transport.EndpointService: cfg.Service,
		},
		relays: map[string]*relay.Engine{
			transport.EndpointClient:  cfg.ClientRelay,
			transport.EndpointService: cfg.ServiceRelay,
		},
		pager:  cfg.Pager,
		dedupe: cfg.Dedupe,
		lanes:  newLanes(),
		logger: logger.With("component", "dispatcher"),
	}
}

// Submit queues ev on its sender's lane and returns immediately. It has the
// signature of telegram.Handler.
func (d *Dispatcher) Submit(ctx context.Context, ev *transport.Event) {
	if d.dedupe != nil && d.dedupe.CheckAndMark(ev.Key) {
		d.logger.Debug("duplicate update ignored", "key", ev.Key)
		return
	}

	logger := d.logger.With(
		"trace_id", uuid.NewString(),
		"key", ev.Key,
		"endpoint", ev.Endpoint,
		"identity", ev.Identity(),
	)

	key := laneKey{endpoint: ev.Endpoint, identity: ev.Identity()}
	ok := d.lanes.enqueue(key, func() {
		if err := d.Handle(ctx, ev, logger); err != nil {
			if errors.Is(err, context.Canceled) && d.dedupe != nil {
				d.dedupe.Forget(ev.Key)
			}
			logger.Error("handling event failed", "error", err)
		}
	})
	if !ok {
		logger.Warn("dispatcher closed, dropping event")
	}
}

// Wait stops accepting events and blocks until queued ones are handled.
func (d *Dispatcher) Wait() {
	d.lanes.close()
}

// Handle processes one event synchronously.
func (d *Dispatcher) Handle(ctx context.Context, ev *transport.Event, logger *slog.Logger) error {
	if logger == nil {
		logger = d.logger
	}
	engine, ok := d.relays[ev.Endpoint]
	if !ok || engine == nil {
		logger.Warn("event from unknown endpoint")
		return nil
	}

	if ev.Callback != nil {
		return d.handleCallback(ctx, ev, engine, logger)
	}
	return d.handleMessage(ctx, ev, engine, logger)
}

func (d *Dispatcher) handleCallback(ctx context.Context, ev *transport.Event, engine *relay.Engine, logger *slog.Logger) error {
	cb := ev.Callback
	self := d.endpoints[ev.Endpoint]
	toast := ""

	var err error
	switch {
	case cb.Data.IsCatalog() && engine.Role() == relay.RoleClient:
		logger.Debug("catalog navigation", "page", cb.Data.Page)
		err = d.pager.OnNavigate(ctx, cb.Message, cb.Data.Page, ev.Identity())
		if errors.Is(err, catalog.ErrPageOutOfRange) {
			toast = catalog.Unavailable()
			err = nil
		}

	case cb.Data.Action == callback.ActionConnectOwner && engine.Role() == relay.RoleClient,
		cb.Data.Action == callback.ActionAnswerUser && engine.Role() == relay.RoleService:
		err = engine.Enter(ctx, relay.EnterRequest{
			Sender:     ev.Sender,
			ChatID:     cb.Message.ChatID,
			AnchorText: cb.MessageText,
			Route:      cb.Data,
		})
		if errors.Is(err, relay.ErrMalformedAnchor) || errors.Is(err, relay.ErrMalformedRoute) {
			logger.Warn("enter rejected", "error", err)
			err = nil
		}

	case cb.Data.Action == callback.ActionViewItem && engine.Role() == relay.RoleClient:
		err = d.pager.ShowItem(ctx, cb.Message.ChatID, cb.Data.ItemID)
		if errors.Is(err, store.ErrNotFound) {
			err = nil
		}

	default:
		logger.Debug("inert control pressed", "action", cb.Data.Action)
	}

	if answerErr := self.AnswerCallback(ctx, cb.ID, toast); answerErr != nil {
		logger.Debug("answering callback failed", "error", answerErr)
	}
	return err
}

func (d *Dispatcher) handleMessage(ctx context.Context, ev *transport.Event, engine *relay.Engine, logger *slog.Logger) error {
	if ev.Payload == nil {
		return nil
	}
	text := ev.Text()
	client := engine.Role() == relay.RoleClient

	switch {
	case ev.Command == CommandCancel, isExit(text):
		cancelled, err := engine.Cancel(ctx, relay.CancelRequest{Sender: ev.Sender, ChatID: ev.ChatID})
		if cancelled {
			logger.Info("conversation left")
		}
		return err

	case ev.Command == CommandStart:
		return d.start(ctx, ev, engine)

	case client && strings.EqualFold(text, relay.LabelCatalog):
		return d.pager.Index(ctx, ev.ChatID, ev.Identity())

	case client && strings.EqualFold(text, relay.LabelViewItem) && engine.Session(ev.Identity()).State == session.Active:
		return engine.ShowAnchor(ctx, ev.Sender, ev.ChatID)
	}

	err := engine.Forward(ctx, relay.ForwardRequest{Sender: ev.Sender, ChatID: ev.ChatID, Payload: *ev.Payload})
	switch {
	case errors.Is(err, relay.ErrNoActiveConversation):
		logger.Debug("no conversation, message ignored", "kind", ev.Payload.Kind)
		return nil
	case err != nil:
		var bridgeErr *relay.BridgeTransferError
		if errors.As(err, &bridgeErr) {
			logger.Warn("attachment not relayed", "kind", bridgeErr.Kind, "error", bridgeErr.Err)
			return nil
		}
		return err
	}
	logger.Debug("relayed", "kind", ev.Payload.Kind)
	return nil
}

// start handles /start. On the client bot, "/start looktoid_<id>" opens
// the item card behind a deep link.
func (d *Dispatcher) start(ctx context.Context, ev *transport.Event, engine *relay.Engine) error {
	self := d.endpoints[ev.Endpoint]

	if engine.Role() == relay.RoleClient {
		if arg, ok := strings.CutPrefix(strings.TrimSpace(ev.CommandArgs), relay.DeepLinkPrefix); ok {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err == nil && id > 0 {
				if err := d.pager.ShowItem(ctx, ev.ChatID, id); !errors.Is(err, store.ErrNotFound) {
					return err
				}
				return nil
			}
		}
		_, err := self.Send(ctx, &transport.Message{
			ChatID:   ev.ChatID,
			Payload:  transport.TextPayload(textWelcomeClient),
			Keyboard: relay.MainKeyboard(),
		})
		return err
	}

	_, err := self.Send(ctx, &transport.Message{
		ChatID:  ev.ChatID,
		Payload: transport.TextPayload(textWelcomeService),
	})
	return err
}

// isExit matches the exit button, which users may also type by hand.
func isExit(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), relay.LabelExitChat)
}
