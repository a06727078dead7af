package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrCheckoutCartMissing signals that the cart service dependency is absent.
	ErrCheckoutCartMissing = errors.New("checkout service: cart service is not configured")
	// ErrCheckoutPhoneMissing signals that the store WhatsApp number is absent.
	ErrCheckoutPhoneMissing = errors.New("checkout service: whatsapp phone is not configured")
	// ErrCheckoutEmptyCart rejects checkout of a cart with no items.
	ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")
)

// CheckoutServiceDeps groups constructor parameters for the checkout service.
type CheckoutServiceDeps struct {
	Cart CartService
	// WhatsAppPhone is the store number in international digits, e.g. 5511999990000.
	WhatsAppPhone string
	Events        EventPublisher
	Errors        ErrorLogService
	Clock         func() time.Time
	IDFunc        func() string
}

type checkoutService struct {
	cart   CartService
	phone  string
	events EventPublisher
	errlog ErrorLogService
	clock  func() time.Time
	newID  func() string
}

// NewCheckoutService constructs the checkout service with the supplied dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Cart == nil {
		return nil, ErrCheckoutCartMissing
	}
	phone := strings.TrimSpace(deps.WhatsAppPhone)
	if phone == "" {
		return nil, ErrCheckoutPhoneMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &checkoutService{
		cart:   deps.Cart,
		phone:  phone,
		events: deps.Events,
		errlog: deps.Errors,
		clock:  func() time.Time { return clock().UTC() },
		newID:  newID,
	}, nil
}

// Checkout renders the cart as a WhatsApp order message, publishes the
// submission event on a best-effort basis and clears the cart. The deep link
// is the order channel, so the cart must not survive a successful handoff.
func (s *checkoutService) Checkout(ctx context.Context, uid string) (CheckoutResult, error) {
	cart, err := s.cart.GetCart(ctx, uid)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(cart.Items) == 0 {
		return CheckoutResult{}, ErrCheckoutEmptyCart
	}

	summary := orderSummary(cart)
	total := cart.Total()

	s.publish(ctx, StoreEvent{
		ID:        s.newID(),
		Type:      EventOrderSubmitted,
		UserID:    uid,
		Summary:   summary,
		Total:     total,
		CreatedAt: s.clock(),
	})

	if err := s.cart.ClearCart(ctx, uid); err != nil {
		s.record(ctx, "checkout.clear", err)
	}

	return CheckoutResult{
		WhatsAppURL: WhatsAppLink(s.phone, summary),
		Summary:     summary,
		Total:       total,
	}, nil
}

// publish never fails checkout. A lost notification is recoverable, a lost
// order handoff is not.
func (s *checkoutService) publish(ctx context.Context, event StoreEvent) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishEvent(ctx, event); err != nil {
		s.record(ctx, "checkout.publish", err)
	}
}

func (s *checkoutService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func orderSummary(cart Cart) string {
	var b strings.Builder
	b.WriteString("Olá! Gostaria de fazer um pedido:\n\n")
	for _, item := range cart.Items {
		fmt.Fprintf(&b, "• %dx %s - %s\n", item.Quantity, item.Name, FormatReais(item.Price*float64(item.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s", FormatReais(cart.Total()))
	return b.String()
}

// WhatsAppLink builds a wa.me deep link with the message URL-escaped.
func WhatsAppLink(phone, message string) string {
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(message)
}

// FormatReais renders an amount in Brazilian currency notation.
func FormatReais(amount float64) string {
	return "R$ " + strings.ReplaceAll(fmt.Sprintf("%.2f", amount), ".", ",")
}
