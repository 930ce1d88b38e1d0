// Package wahisper provides a high-level façade over the dispatch engine
// and its collaborators (sessions, carts, inventory, checkout, classifier)
// enabling quick construction of a conversational shopping bot. Most
// applications interact with this package by:
//  1. Creating a Bot via New() (optionally overriding default in-memory stores)
//  2. Feeding inbound events through HandleText/HandleAction/HandleFile
//  3. Starting the session reaper for idle-session eviction
//
// All defaults are safe for local development and testing; production
// deployments typically supply the sqlite-backed stores, a hosted
// classifier provider and a structured logger.
package wahisper

import (
	"context"
	"time"

	"github.com/AdonayRH/wahisper-sub000/cart"
	"github.com/AdonayRH/wahisper-sub000/checkout"
	"github.com/AdonayRH/wahisper-sub000/classifier"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/engine"
	"github.com/AdonayRH/wahisper-sub000/flow"
	"github.com/AdonayRH/wahisper-sub000/ingest"
	"github.com/AdonayRH/wahisper-sub000/inventory"
	"github.com/AdonayRH/wahisper-sub000/logging"
	"github.com/AdonayRH/wahisper-sub000/messenger"
	"github.com/AdonayRH/wahisper-sub000/session"
	"github.com/AdonayRH/wahisper-sub000/store"
)

// Options configures the Bot instance.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	Sessions  core.SessionStore
	Carts     core.CartStore
	Inventory core.InventoryGateway
	Orders    core.OrderStore
	Admins    core.AdminAuthorizer

	// Classifier is the fallback intent classifier. Defaults to the
	// keyword classifier, which needs no network.
	Classifier classifier.Classifier

	// Messenger receives every reply. Defaults to a slog-backed sink.
	Messenger core.Messenger

	// Parser turns uploaded inventory files into product records.
	Parser core.FileParser

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// SessionTTL is the idle window after which the reaper evicts a
	// session. ReapEvery is the sweep interval.
	SessionTTL time.Duration
	ReapEvery  time.Duration

	// SearchLimit caps how many products a search presents.
	SearchLimit int
}

// Bot is the high-level façade aggregating the dispatch engine and its
// collaborators.
type Bot struct {
	opts   Options
	engine *engine.Engine
	reaper *session.Reaper
}

// New creates a Bot with optional overrides. Any unset collaborator is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Bot {
	opts := Options{
		Sessions:    session.NewInMemoryStore(),
		Carts:       cart.NewInMemoryStore(),
		Inventory:   inventory.NewInMemoryGateway(),
		Orders:      store.NewInMemoryOrders(),
		Admins:      store.NewStaticAdmins(),
		Classifier:  classifier.NewKeywordClassifier(),
		Parser:      ingest.NewCSVParser(),
		Logger:      logging.NoOpLogger{},
		SessionTTL:  30 * time.Minute,
		ReapEvery:   time.Minute,
		SearchLimit: 5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Messenger == nil {
		opts.Messenger = messenger.NewSlog(opts.Logger)
	}

	orchestrator := checkout.New(opts.Carts, opts.Inventory, opts.Orders, func(o *checkout.Options) {
		o.Logger = opts.Logger
	})
	fl := flow.New(flow.Deps{
		Carts:       opts.Carts,
		Inventory:   opts.Inventory,
		Checkout:    orchestrator,
		Messenger:   opts.Messenger,
		Parser:      opts.Parser,
		Logger:      opts.Logger,
		SearchLimit: opts.SearchLimit,
	})
	eng := engine.New(opts.Sessions, fl, opts.Classifier,
		engine.WithAdmins(opts.Admins),
		engine.WithOrders(opts.Orders),
		engine.WithMessenger(opts.Messenger),
		engine.WithLogger(opts.Logger),
	)
	return &Bot{
		opts:   opts,
		engine: eng,
		reaper: session.NewReaper(opts.Sessions, opts.SessionTTL, opts.ReapEvery, opts.Logger),
	}
}

// Handle processes one inbound event and returns the replies.
func (b *Bot) Handle(ctx context.Context, ev core.InboundEvent) ([]core.Reply, error) {
	return b.engine.Handle(ctx, ev)
}

// HandleText is a convenience wrapper for free-text input.
func (b *Bot) HandleText(ctx context.Context, userID, text string) ([]core.Reply, error) {
	return b.engine.Handle(ctx, core.NewTextEvent(userID, text))
}

// HandleAction is a convenience wrapper for explicit action tokens.
func (b *Bot) HandleAction(ctx context.Context, userID string, token core.Action) ([]core.Reply, error) {
	return b.engine.Handle(ctx, core.NewActionEvent(userID, token))
}

// HandleFile is a convenience wrapper for file uploads.
func (b *Bot) HandleFile(ctx context.Context, userID, fileRef string) ([]core.Reply, error) {
	return b.engine.Handle(ctx, core.NewFileEvent(userID, fileRef))
}

// Engine exposes the dispatch router, e.g. for the HTTP gateway.
func (b *Bot) Engine() *engine.Engine { return b.engine }

// Carts exposes the cart store for read-only surfaces.
func (b *Bot) Carts() core.CartStore { return b.opts.Carts }

// StartReaper begins evicting idle sessions in the background.
func (b *Bot) StartReaper() { b.reaper.Start() }

// Close stops background work. Safe to call more than once.
func (b *Bot) Close() { b.reaper.Stop() }
