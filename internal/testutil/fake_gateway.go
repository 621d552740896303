package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/integration/stripe"
	stripesdk "github.com/stripe/stripe-go/v82"
)

// FakeGateway implements stripe.Gateway against in-memory state and counts
// calls per method so tests can assert on provider traffic.
type FakeGateway struct {
	mu sync.Mutex

	// Subscriptions holds the provider-side subscriptions per customer id.
	Subscriptions map[string][]*stripesdk.Subscription

	// Customers maps email to an existing provider customer id.
	Customers map[string]string

	// Event is what VerifyWebhookSignature returns.
	Event *stripesdk.Event

	NotConfigured bool
	SignatureErr  bool
	CancelErr     error
	SessionErr    error

	calls        map[string]int
	nextCustomer int
	nextSession  int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Subscriptions: make(map[string][]*stripesdk.Subscription),
		Customers:     make(map[string]string),
		calls:         make(map[string]int),
	}
}

// Calls returns how many times the named method was invoked.
func (g *FakeGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// TotalCalls returns the number of provider calls across all methods.
func (g *FakeGateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *FakeGateway) record(method string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[method]++
}

func (g *FakeGateway) Configured() bool {
	return !g.NotConfigured
}

func (g *FakeGateway) CreateCustomer(_ context.Context, params stripe.CreateCustomerParams) (string, error) {
	g.record("CreateCustomer")
	if g.NotConfigured {
		return "", notConfiguredErr()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextCustomer++
	return fmt.Sprintf("cus_fake_%d", g.nextCustomer), nil
}

func (g *FakeGateway) FindCustomerByEmail(_ context.Context, email string) (string, error) {
	g.record("FindCustomerByEmail")
	if g.NotConfigured {
		return "", notConfiguredErr()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.Customers[email]; ok {
		return id, nil
	}
	return "", ierr.NewError("customer not found").Mark(ierr.ErrNotFound)
}

func (g *FakeGateway) ListSubscriptions(_ context.Context, customerID string) ([]*stripesdk.Subscription, error) {
	g.record("ListSubscriptions")
	if g.NotConfigured {
		return nil, notConfiguredErr()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Subscriptions[customerID], nil
}

func (g *FakeGateway) RetrieveSubscription(_ context.Context, subscriptionID string) (*stripesdk.Subscription, error) {
	g.record("RetrieveSubscription")
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, subs := range g.Subscriptions {
		for _, sub := range subs {
			if sub.ID == subscriptionID {
				return sub, nil
			}
		}
	}
	return nil, ierr.NewError("subscription not found").Mark(ierr.ErrNotFound)
}

func (g *FakeGateway) CancelSubscription(_ context.Context, subscriptionID string) error {
	g.record("CancelSubscription")
	if g.CancelErr != nil {
		return g.CancelErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, subs := range g.Subscriptions {
		for _, sub := range subs {
			if sub.ID == subscriptionID {
				sub.Status = stripesdk.SubscriptionStatusCanceled
				return nil
			}
		}
	}
	return ierr.NewError("subscription not found").Mark(ierr.ErrNotFound)
}

func (g *FakeGateway) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) (*stripesdk.Subscription, error) {
	g.record("SetCancelAtPeriodEnd")
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, subs := range g.Subscriptions {
		for _, sub := range subs {
			if sub.ID == subscriptionID {
				sub.CancelAtPeriodEnd = cancel
				return sub, nil
			}
		}
	}
	return nil, ierr.NewError("subscription not found").Mark(ierr.ErrNotFound)
}

func (g *FakeGateway) CreateCheckoutSession(_ context.Context, params stripe.CheckoutParams) (*stripesdk.CheckoutSession, error) {
	g.record("CreateCheckoutSession")
	if g.SessionErr != nil {
		return nil, g.SessionErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSession++
	id := fmt.Sprintf("cs_fake_%d", g.nextSession)
	return &stripesdk.CheckoutSession{
		ID:  id,
		URL: "https://checkout.example.com/" + id,
	}, nil
}

func (g *FakeGateway) VerifyWebhookSignature(payload []byte, signature string) (*stripesdk.Event, error) {
	g.record("VerifyWebhookSignature")
	if g.SignatureErr {
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrSignatureInvalid)
	}
	return g.Event, nil
}

func notConfiguredErr() error {
	return ierr.NewError("payment provider not configured").
		WithHint("Stripe credentials are not set for this deployment").
		Mark(ierr.ErrProviderNotConfigured)
}
