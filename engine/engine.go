package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AdonayRH/wahisper-sub000/classifier"
	"github.com/AdonayRH/wahisper-sub000/core"
	"github.com/AdonayRH/wahisper-sub000/flow"
	"github.com/AdonayRH/wahisper-sub000/logging"
)

// Options configures an Engine instance using the functional options
// pattern.
type Options struct {
	// Admins answers the admin gate. Defaults to denying everyone, which
	// makes every admin-namespaced token a no-op permission error.
	Admins core.AdminAuthorizer

	// Orders backs the admin order-listing surface. Optional.
	Orders core.OrderStore

	// Messenger, when set, receives every reply the engine produces.
	// Delivery failures are logged and never fail the event.
	Messenger core.Messenger

	// Logger provides structured logging. Defaults to NoOp.
	Logger logging.Logger

	// ClassifierTimeout bounds the intent-classifier fallback call.
	ClassifierTimeout time.Duration
}

// Engine is the dispatch router. One Engine serves every session; the
// per-session serialization lives in the SessionStore lock it acquires
// around each event.
type Engine struct {
	sessions   core.SessionStore
	flow       *flow.Flow
	classifier classifier.Classifier

	admins    core.AdminAuthorizer
	orders    core.OrderStore
	messenger core.Messenger
	logger    logging.Logger
	timeout   time.Duration
}

type denyAll struct{}

func (denyAll) IsAdmin(ctx context.Context, userID string) (bool, error) { return false, nil }

// New creates the dispatch router over its three required collaborators.
func New(sessions core.SessionStore, fl *flow.Flow, cls classifier.Classifier, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Admins:            denyAll{},
		Logger:            logging.NoOpLogger{},
		ClassifierTimeout: 8 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{
		sessions:   sessions,
		flow:       fl,
		classifier: cls,
		admins:     opts.Admins,
		orders:     opts.Orders,
		messenger:  opts.Messenger,
		logger:     opts.Logger,
		timeout:    opts.ClassifierTimeout,
	}
}

// WithAdmins sets the admin authorizer.
func WithAdmins(a core.AdminAuthorizer) func(o *Options) {
	return func(o *Options) { o.Admins = a }
}

// WithOrders sets the order store backing the admin listing surface.
func WithOrders(s core.OrderStore) func(o *Options) {
	return func(o *Options) { o.Orders = s }
}

// WithMessenger sets the outbound reply transport.
func WithMessenger(m core.Messenger) func(o *Options) {
	return func(o *Options) { o.Messenger = m }
}

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithClassifierTimeout bounds the classifier fallback call.
func WithClassifierTimeout(d time.Duration) func(o *Options) {
	return func(o *Options) { o.ClassifierTimeout = d }
}

// Handle processes one inbound event to completion and returns the
// replies. Events for the same user are serialized; events for different
// users run in parallel. Handle never returns an error for anything the
// user can fix, those become replies through the recovery boundary.
func (e *Engine) Handle(ctx context.Context, ev core.InboundEvent) ([]core.Reply, error) {
	if ev.UserID == "" {
		return nil, &core.ValidationError{Field: "user_id", Reason: "empty"}
	}
	release := e.sessions.Acquire(ev.UserID)
	defer release()

	e.sessions.Init(ev.UserID)
	sc := e.sessions.Get(ev.UserID)
	sc.Touch()

	var (
		replies []core.Reply
		err     error
	)
	switch ev.Kind {
	case core.EventAction:
		replies, err = e.handleAction(ctx, sc, ev.Token)
	case core.EventFile:
		replies, err = e.flow.HandleFile(ctx, sc, ev.FileRef)
	case core.EventText:
		replies, err = e.handleText(ctx, sc, ev.Text)
	default:
		err = &core.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown event kind %q", ev.Kind)}
	}

	replies, err = e.recover(sc, replies, err)
	if err != nil {
		return nil, err
	}
	e.deliver(ctx, ev.UserID, replies)
	return replies, nil
}

// handleAction routes an explicit action token. The admin gate runs
// before any other work so an unauthorized token has zero side effects.
func (e *Engine) handleAction(ctx context.Context, sc *core.SessionContext, token core.Action) ([]core.Reply, error) {
	action, known := core.ParseAction(token.String())
	if !known {
		return nil, &core.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown token %q", token)}
	}
	if action.Admin() {
		ok, err := e.admins.IsAdmin(ctx, sc.UserID)
		if err != nil {
			return nil, fmt.Errorf("admin lookup for %s: %w", sc.UserID, err)
		}
		if !ok {
			return nil, &core.PermissionError{UserID: sc.UserID, Action: action.String()}
		}
		return e.handleAdminAction(ctx, sc, action)
	}
	switch action {
	case core.ActionViewCart:
		return e.flow.ViewCart(sc)
	case core.ActionClearCart:
		return e.flow.BeginClearCart(sc)
	case core.ActionRemoveItem:
		return e.flow.BeginRemoval(sc, "")
	case core.ActionAddUnits:
		return e.flow.BeginAddUnits(sc, "")
	case core.ActionCheckout:
		return e.flow.BeginCheckout(sc)
	case core.ActionConfirm:
		return e.flow.ConfirmCheckout(ctx, sc)
	case core.ActionCancel, core.ActionAbort:
		return e.flow.Cancel(sc)
	case core.ActionHelp:
		sc.Touch()
		return []core.Reply{{Text: helpText}}, nil
	default:
		return nil, &core.ValidationError{Field: "action", Reason: fmt.Sprintf("unrouted token %q", action)}
	}
}

func (e *Engine) handleAdminAction(ctx context.Context, sc *core.SessionContext, action core.Action) ([]core.Reply, error) {
	switch action {
	case core.ActionAdminUpload:
		return e.flow.BeginUpload(sc)
	case core.ActionAdminConfirm:
		return e.flow.ApplyUpload(ctx, sc)
	case core.ActionAdminCancel:
		return e.flow.DiscardUpload(ctx, sc)
	case core.ActionAdminStats:
		return e.listOrders(ctx, sc)
	default:
		return nil, &core.ValidationError{Field: "action", Reason: fmt.Sprintf("unrouted token %q", action)}
	}
}

func (e *Engine) listOrders(ctx context.Context, sc *core.SessionContext) ([]core.Reply, error) {
	if e.orders == nil {
		return []core.Reply{{Text: "Order history is not available."}}, nil
	}
	orders, err := e.orders.ListByUser(ctx, sc.UserID)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", sc.UserID, err)
	}
	if len(orders) == 0 {
		return []core.Reply{{Text: "No orders on record for this account."}}, nil
	}
	text := strconv.Itoa(len(orders)) + " order(s) on record:\n"
	for _, o := range orders {
		text += fmt.Sprintf("%s  %s  %s\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), core.FormatPrice(o.Total))
	}
	return []core.Reply{{Text: text}}, nil
}

// handleText gives the current state's handler first claim on the text
// and falls back to the intent classifier only for core.ErrUnhandled.
func (e *Engine) handleText(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	replies, err := e.flow.HandleText(ctx, sc, text)
	if !errors.Is(err, core.ErrUnhandled) {
		return replies, err
	}
	return e.classify(ctx, sc, text)
}

// classify runs the fallback classifier and routes its intent. A failed
// or slow classifier degrades to a clarification request rather than an
// error; so does any answer below the confidence threshold.
// classifierCallLogger is implemented by loggers that record classifier
// round trips with latency, such as logging.BotLogger.
type classifierCallLogger interface {
	LogClassifierCall(provider, intent string, confidence float64, dur time.Duration, err error)
}

var _ classifierCallLogger = (*logging.BotLogger)(nil)

func (e *Engine) classify(ctx context.Context, sc *core.SessionContext, text string) ([]core.Reply, error) {
	snap := sc.Snapshot()
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	start := time.Now()
	result, err := e.classifier.Classify(tctx, text, classifier.Context{
		LastQuery:         snap.LastQuery,
		LastShownProducts: snap.LastShownProducts,
		State:             snap.State,
	})
	if cl, ok := e.logger.(classifierCallLogger); ok {
		cl.LogClassifierCall(e.classifier.Info().Provider, string(result.Intent), result.Confidence, time.Since(start), err)
	}
	if err != nil {
		e.logger.Warn("classifier unavailable, degrading to clarification",
			"user_id", sc.UserID, "error", err)
		return []core.Reply{{Text: clarifyText}}, nil
	}
	e.logger.Debug("classified",
		"user_id", sc.UserID,
		"intent", string(result.Intent),
		"confidence", result.Confidence)
	if result.Confidence < core.ConfidenceThreshold {
		return []core.Reply{{Text: clarifyText}}, nil
	}
	return e.routeIntent(ctx, sc, text, result)
}

func (e *Engine) routeIntent(ctx context.Context, sc *core.SessionContext, text string, c classifier.Classification) ([]core.Reply, error) {
	switch c.Intent {
	case core.IntentViewCart:
		return e.flow.ViewCart(sc)
	case core.IntentClearCart:
		return e.flow.BeginClearCart(sc)
	case core.IntentRemoveFromCart:
		return e.flow.BeginRemoval(sc, c.Slots["product"])
	case core.IntentAddUnits:
		return e.flow.BeginAddUnits(sc, c.Slots["product"])
	case core.IntentCheckout:
		return e.flow.BeginCheckout(sc)
	case core.IntentGreeting:
		sc.SetState(core.StateInitial)
		return []core.Reply{{Text: "Hi! Tell me what you are looking for and I will search the catalog."}}, nil
	case core.IntentFarewell:
		sc.SetState(core.StateEnding)
		return []core.Reply{{Text: "Thanks for shopping with us. See you next time!"}}, nil
	case core.IntentRejection:
		if sc.CurrentState() == core.StateInitial {
			return []core.Reply{{Text: "Okay. Tell me when you need something."}}, nil
		}
		return e.flow.Cancel(sc)
	case core.IntentConfirmation:
		// A yes the state handler did not claim has nothing to confirm.
		return []core.Reply{{Text: "There is nothing pending to confirm. What can I find for you?"}}, nil
	case core.IntentQuantity:
		// A bare number outside the quantity states is missing its referent.
		return []core.Reply{{Text: "A quantity of what? Search for a product first."}}, nil
	case core.IntentNewSearch:
		query := c.Slots["query"]
		if query == "" {
			query = text
		}
		return e.flow.SearchProducts(ctx, sc, query)
	default:
		// Unknown labels route like a search, the safest interpretation.
		return e.flow.SearchProducts(ctx, sc, text)
	}
}

// recover is the error recovery boundary. Everything a user can act on
// becomes a reply; inconsistencies reset the session; anything unknown is
// logged and answered with a generic apology so the conversation never
// wedges.
func (e *Engine) recover(sc *core.SessionContext, replies []core.Reply, err error) ([]core.Reply, error) {
	if err == nil {
		return replies, nil
	}
	var (
		validation    *core.ValidationError
		stock         *core.InsufficientStockError
		permission    *core.PermissionError
		timeout       *core.UpstreamTimeoutError
		inconsistency *core.InternalInconsistencyError
	)
	switch {
	case errors.As(err, &validation):
		return []core.Reply{{Text: fmt.Sprintf("I could not use that input (%s). Please try again.", validation.Reason)}}, nil
	case errors.As(err, &stock):
		if stock.Available == 0 {
			return []core.Reply{{Text: "That product is sold out right now."}}, nil
		}
		return []core.Reply{{Text: fmt.Sprintf("Only %d units are available right now.", stock.Available)}}, nil
	case errors.As(err, &permission):
		e.logger.Warn("admin action denied", "user_id", permission.UserID, "action", permission.Action)
		return []core.Reply{{Text: "You are not allowed to do that."}}, nil
	case errors.As(err, &timeout):
		e.logger.Error("upstream timeout", "user_id", sc.UserID, "collaborator", timeout.Collaborator, "error", err)
		sc.Reset()
		return []core.Reply{{Text: "That is taking too long on our side. Please try again in a moment."}}, nil
	case errors.Is(err, core.ErrNotFound):
		sc.Reset()
		return []core.Reply{{Text: "I could not find that anymore. Let's start over: what are you looking for?"}}, nil
	case errors.As(err, &inconsistency):
		e.logger.Error("session context inconsistent, resetting",
			"user_id", sc.UserID, "state", string(inconsistency.State), "missing", inconsistency.Missing)
		sc.Reset()
		return []core.Reply{{Text: "Something went wrong on our side, sorry. Let's start over: what are you looking for?"}}, nil
	default:
		e.logger.Error("unhandled error", "user_id", sc.UserID, "error", err)
		return []core.Reply{{Text: "Something went wrong, sorry. Please try again."}}, nil
	}
}

// deliver pushes replies through the outbound messenger. Fire and forget:
// the state transition already committed, a transport failure only logs.
func (e *Engine) deliver(ctx context.Context, userID string, replies []core.Reply) {
	if e.messenger == nil {
		return
	}
	for _, r := range replies {
		if err := e.messenger.Send(ctx, userID, r.Text); err != nil {
			e.logger.Error("reply delivery failed", "user_id", userID, "error", err)
		}
	}
}

const helpText = `I can help you shop:
- type what you are looking for to search the catalog
- "cart" shows your cart, "checkout" places the order
- you can add units to or remove items from the cart at any time
- "cancel" abandons the current step`

const clarifyText = "Sorry, I did not catch that. Could you rephrase it?"
