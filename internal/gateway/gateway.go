// ABOUTME: Gateway orchestrator wiring both bots, the relay engines and the catalog
// ABOUTME: Runs update sources and the HTTP server under one errgroup with graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/2389/event-relay/internal/bridge"
	"github.com/2389/event-relay/internal/catalog"
	"github.com/2389/event-relay/internal/config"
	"github.com/2389/event-relay/internal/dedupe"
	"github.com/2389/event-relay/internal/relay"
	"github.com/2389/event-relay/internal/session"
	"github.com/2389/event-relay/internal/store"
	"github.com/2389/event-relay/internal/telegram"
	"github.com/2389/event-relay/internal/transport"
)

// shutdownTimeout bounds HTTP server shutdown.
const shutdownTimeout = 5 * time.Second

// Bot is an endpoint together with its update sources.
type Bot interface {
	transport.Endpoint
	Poll(ctx context.Context, timeout time.Duration, handle telegram.Handler) error
	SetWebhook(url string) error
	WebhookHandler(ctx context.Context, handle telegram.Handler) http.Handler
}

// Gateway owns every long-lived component of the relay.
type Gateway struct {
	config     *config.Config
	client     Bot
	service    Bot
	items      store.ItemStore
	dispatcher *Dispatcher
	logger     *slog.Logger

	// addr is the bound HTTP address once Run is listening
	addr chan string
}

// New opens the item database, authorizes both bots and wires the relay.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	items, err := store.NewSQLiteStore(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening item database: %w", err)
	}

	client, err := telegram.New(transport.EndpointClient, cfg.Client, logger)
	if err != nil {
		_ = items.Close()
		return nil, err
	}
	service, err := telegram.New(transport.EndpointService, cfg.Service, logger)
	if err != nil {
		_ = items.Close()
		return nil, err
	}

	gw, err := assemble(cfg, items, client, service, logger)
	if err != nil {
		_ = items.Close()
		return nil, err
	}
	return gw, nil
}

// assemble wires already-constructed dependencies.
func assemble(cfg *config.Config, items store.ItemStore, client, service Bot, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	br, err := bridge.New(cfg.Bridge.StagingDir, logger)
	if err != nil {
		return nil, err
	}

	pager := catalog.New(items, client, logger)

	clientRelay := relay.New(relay.Config{
		Role:         relay.RoleClient,
		Self:         client,
		Peer:         service,
		Items:        items,
		Sessions:     session.NewStore(),
		Bridge:       br,
		Cards:        pager,
		ClientBotURL: cfg.Relay.ClientBotURL,
		Logger:       logger,
	})
	serviceRelay := relay.New(relay.Config{
		Role:         relay.RoleService,
		Self:         service,
		Peer:         client,
		Items:        items,
		Sessions:     session.NewStore(),
		Bridge:       br,
		ClientBotURL: cfg.Relay.ClientBotURL,
		Logger:       logger,
	})

	dispatcher := NewDispatcher(DispatcherConfig{
		Client:       client,
		Service:      service,
		ClientRelay:  clientRelay,
		ServiceRelay: serviceRelay,
		Pager:        pager,
		Dedupe:       dedupe.New(cfg.Relay.DedupeTTL, 0),
		Logger:       logger,
	})

	return &Gateway{
		config:     cfg,
		client:     client,
		service:    service,
		items:      items,
		dispatcher: dispatcher,
		logger:     logger.With("component", "gateway"),
		addr:       make(chan string, 1),
	}, nil
}

func (g *Gateway) bots() map[string]Bot {
	return map[string]Bot{
		transport.EndpointClient:  g.client,
		transport.EndpointService: g.service,
	}
}

// Run receives updates until ctx is cancelled or a source fails, then
// drains queued events and closes the item database.
func (g *Gateway) Run(ctx context.Context) error {
	grp, gctx := errgroup.WithContext(ctx)
	webhook := g.config.Transport.Mode == config.ModeWebhook

	webhooks := make(map[string]http.Handler)
	if webhook {
		for name, bot := range g.bots() {
			webhooks[name] = bot.WebhookHandler(gctx, g.dispatcher.Submit)
		}
	}

	if g.config.Transport.HTTPAddr != "" {
		if err := g.serveHTTP(gctx, grp, webhooks); err != nil {
			_ = g.items.Close()
			return err
		}
	}

	var startErr error
	if webhook {
		base := strings.TrimSuffix(g.config.Transport.WebhookBaseURL, "/")
		for name, bot := range g.bots() {
			if err := bot.SetWebhook(base + "/webhook/" + name); err != nil {
				startErr = fmt.Errorf("%s bot: %w", name, err)
				break
			}
		}
	} else {
		for name, bot := range g.bots() {
			grp.Go(func() error {
				if err := bot.Poll(gctx, g.config.Transport.PollTimeout, g.dispatcher.Submit); err != nil {
					return fmt.Errorf("%s bot: %w", name, err)
				}
				return nil
			})
		}
	}

	if startErr != nil {
		grp.Go(func() error { return startErr })
	} else {
		g.logger.Info("relay running", "mode", g.config.Transport.Mode)
	}
	runErr := grp.Wait()

	g.logger.Info("draining in-flight events")
	g.dispatcher.Wait()

	if err := g.items.Close(); err != nil {
		return errors.Join(runErr, fmt.Errorf("closing item database: %w", err))
	}
	return runErr
}

// Addr returns the bound HTTP address once Run is serving. It blocks until
// then or until ctx is done.
func (g *Gateway) Addr(ctx context.Context) (string, error) {
	select {
	case addr := <-g.addr:
		g.addr <- addr
		return addr, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (g *Gateway) serveHTTP(ctx context.Context, grp *errgroup.Group, webhooks map[string]http.Handler) error {
	ln, err := net.Listen("tcp", g.config.Transport.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}
	g.addr <- ln.Addr().String()

	srv := &http.Server{
		Handler:           newRouter(g.items, webhooks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grp.Go(func() error {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	grp.Go(func() error {
		<-ctx.Done()
		// The parent context is already cancelled here.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}
