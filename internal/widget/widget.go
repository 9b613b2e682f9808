// ABOUTME: Widget wires config, durable store, identity, exchange client, and controller together
// ABOUTME: It is the explicit owner of one conversation session for the life of the process

package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/edi-chat/internal/config"
	"github.com/2389/edi-chat/internal/conversation"
	"github.com/2389/edi-chat/internal/exchange"
	"github.com/2389/edi-chat/internal/identity"
	"github.com/2389/edi-chat/internal/store"
)

// Version is reported in the User-Agent header. Set at build time with
// -ldflags "-X github.com/2389/edi-chat/internal/widget.Version=...".
var Version = "dev"

// Widget owns every component of one chat session.
type Widget struct {
	config     *config.Config
	store      store.Store
	identity   *identity.Store
	client     *exchange.Client
	controller *conversation.Controller
	logger     *slog.Logger

	storeFallback bool
}

// New builds a Widget from cfg. Storage problems never fail construction:
// an unopenable store is replaced by an in-memory one and the session id
// simply does not survive the process.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Widget, error) {
	if cfg == nil {
		return nil, errors.New("widget: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Widget{
		config: cfg,
		logger: logger.With("component", "widget"),
	}

	w.store = w.initStore(logger)
	w.identity = identity.New(w.store, logger)
	w.client = exchange.New(cfg.Widget.EndpointURL, exchange.Options{
		Timeout:   cfg.HTTP.Timeout,
		UserAgent: UserAgent(),
		Logger:    logger,
	})

	controller, err := conversation.New(ctx, conversation.Options{
		Sender:      w.client,
		Identity:    w.identity,
		Suggestions: cfg.Widget.Suggestions,
		Logger:      logger,
	})
	if err != nil {
		_ = w.store.Close()
		return nil, fmt.Errorf("creating controller: %w", err)
	}
	w.controller = controller

	w.logger.Info("widget ready",
		"endpoint", cfg.Widget.EndpointURL,
		"storage_driver", cfg.Storage.Driver,
		"persistent_session", !w.Degraded())

	return w, nil
}

func (w *Widget) initStore(logger *slog.Logger) store.Store {
	s, err := store.Open(w.config.Storage.Driver, w.config.Storage.Path, logger)
	if err != nil {
		w.logger.Warn("durable storage unavailable, session id will not persist",
			"driver", w.config.Storage.Driver,
			"path", w.config.Storage.Path,
			"error", err)
		w.storeFallback = true
		return store.NewMemoryStore()
	}
	return s
}

// UserAgent returns the User-Agent sent with every question.
func UserAgent() string {
	return "edi-chat/" + Version
}

// Controller returns the conversation controller.
func (w *Widget) Controller() *conversation.Controller {
	return w.controller
}

// Config returns the configuration the widget was built from.
func (w *Widget) Config() *config.Config {
	return w.config
}

// SessionID returns the anonymous session identifier in use.
func (w *Widget) SessionID() string {
	return w.controller.SessionID()
}

// Degraded reports whether the session id is held in memory only.
func (w *Widget) Degraded() bool {
	return w.storeFallback || w.config.Storage.Driver == store.DriverMemory || w.identity.Degraded()
}

// ClearSession removes the durable session id. The running controller keeps
// the id it already has; the next process starts a new session.
func (w *Widget) ClearSession(ctx context.Context) error {
	if err := w.identity.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// Close tears down the controller and releases the store.
func (w *Widget) Close() error {
	w.controller.Close()
	if err := w.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
