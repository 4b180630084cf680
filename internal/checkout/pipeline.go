// Package checkout turns a cart snapshot plus contact details into exactly
// one order-request email. All failure modes below this boundary come back
// as a structured Result, never as a panic or raw error, so the handler
// layer only ever branches on Result.
package checkout

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/procure-marine/procure-marine-web/internal/email"
	"github.com/procure-marine/procure-marine-web/internal/models"
)

// State tracks one cart's submission lifecycle: Idle -> Submitting ->
// {Succeeded, Failed}. Failed returns to accepting submissions; Succeeded
// is terminal for that attempt.
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

// User-safe failure messages. Underlying causes go to the log only.
const (
	msgEmptyCart    = "Your cart is empty. Add some products before checking out."
	msgInFlight     = "Your order is already being submitted. Please wait."
	msgDispatchFail = "Failed to send your order request. Please try again or contact us directly."
	msgUnexpected   = "An unexpected error occurred. Please try again later."
)

// Result is the outcome of one submission attempt.
type Result struct {
	Success        bool
	OrderReference string
	// FieldErrors is set only for validation failures, keyed by form field.
	FieldErrors map[string]string
	// Message is a user-safe description of a non-validation failure.
	Message string
}

// Pipeline composes and dispatches order-request emails. Submission state
// is tracked per cart key: the in-flight guard only ever rejects a second
// submit for the same cart, never another customer's. It never clears
// the cart: that is the caller's follow-up once Success is confirmed,
// which keeps this component's side effects to "compose and send".
type Pipeline struct {
	mailer email.Mailer
	from   string
	to     string
	now    func() time.Time

	mu     sync.Mutex
	states map[string]State
}

func NewPipeline(mailer email.Mailer, from, to string) *Pipeline {
	return &Pipeline{
		mailer: mailer,
		from:   from,
		to:     to,
		now:    time.Now,
		states: make(map[string]State),
	}
}

// State returns the lifecycle state of key's most recent attempt.
func (p *Pipeline) State(key string) State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[key]
}

func (p *Pipeline) begin(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.states[key] == Submitting {
		return false
	}
	p.states[key] = Submitting
	return true
}

func (p *Pipeline) finish(key string, s State) {
	p.mu.Lock()
	p.states[key] = s
	p.mu.Unlock()
}

// Submit validates the input, snapshots the cart into an order, and
// dispatches one email with reply-to set to the customer. key identifies
// the submitting cart; a second submit for the same key while one is in
// flight is rejected, other keys proceed independently. Validation
// failures short-circuit before the mailer is touched. A dispatch failure
// leaves the cart untouched and is retryable; each retry is an independent
// attempt with a fresh order reference.
func (p *Pipeline) Submit(ctx context.Context, key string, cart models.Cart, contact models.ContactInfo, delivery models.DeliveryInfo, additionalNotes string) (result Result) {
	if !p.begin(key) {
		return Result{Message: msgInFlight}
	}

	// Safety net: anything unexpected below becomes a generic failure
	// instead of crashing the checkout flow.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unexpected panic during order submission", "panic", r)
			result = Result{Message: msgUnexpected}
		}
		if result.Success {
			p.finish(key, Succeeded)
		} else {
			p.finish(key, Failed)
		}
	}()

	// The caller prevents empty-cart submissions; this is defensive.
	if cart.Empty() {
		return Result{Message: msgEmptyCart}
	}

	if fieldErrors := Validate(contact, delivery); len(fieldErrors) > 0 {
		return Result{FieldErrors: fieldErrors}
	}

	order := models.OrderSubmission{
		Items:           cart.Items,
		Contact:         trimContact(contact),
		Delivery:        trimDelivery(delivery),
		AdditionalNotes: strings.TrimSpace(additionalNotes),
		SubmittedAt:     p.now(),
	}

	reference := NewOrderReference(order.SubmittedAt)

	html, err := renderOrderEmail(order, reference)
	if err != nil {
		slog.Error("Failed to render order email", "reference", reference, "error", err)
		return Result{Message: msgUnexpected}
	}

	id, err := p.mailer.Send(ctx, email.Message{
		From:    p.from,
		To:      []string{p.to},
		Subject: "New Order Request - " + reference,
		HTML:    html,
		ReplyTo: order.Contact.Email,
	})
	if err != nil {
		slog.Error("Failed to dispatch order email", "reference", reference, "error", err)
		return Result{Message: msgDispatchFail}
	}

	slog.Info("Order email dispatched", "reference", reference, "messageId", id,
		"items", len(order.Items), "totalItems", cart.TotalItems)
	return Result{Success: true, OrderReference: reference}
}

func trimContact(c models.ContactInfo) models.ContactInfo {
	return models.ContactInfo{
		FullName:    strings.TrimSpace(c.FullName),
		Email:       strings.TrimSpace(c.Email),
		Phone:       strings.TrimSpace(c.Phone),
		CompanyName: strings.TrimSpace(c.CompanyName),
	}
}

func trimDelivery(d models.DeliveryInfo) models.DeliveryInfo {
	return models.DeliveryInfo{
		Location: strings.TrimSpace(d.Location),
		Notes:    strings.TrimSpace(d.Notes),
	}
}
