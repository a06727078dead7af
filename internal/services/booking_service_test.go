package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	domain "github.com/petshop-baronesa/api/internal/domain"
)

type stubBookingRepository struct {
	bookings  []domain.Booking
	insertErr error
}

func (s *stubBookingRepository) Insert(_ context.Context, booking domain.Booking) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.bookings = append(s.bookings, booking)
	return nil
}

func (s *stubBookingRepository) List(_ context.Context, limit int) ([]domain.Booking, error) {
	if limit > len(s.bookings) {
		limit = len(s.bookings)
	}
	return s.bookings[:limit], nil
}

func newTestBookingService(t *testing.T, repo *stubBookingRepository, events EventPublisher) BookingService {
	t.Helper()
	pricing, err := NewPricingService(PricingServiceDeps{
		Pricing: &stubPricingRepository{getErr: errStubUnavailable},
	})
	if err != nil {
		t.Fatalf("NewPricingService: %v", err)
	}
	ids := 0
	svc, err := NewBookingService(BookingServiceDeps{
		Bookings:      repo,
		Pricing:       pricing,
		WhatsAppPhone: "5511999990000",
		Events:        events,
		Clock:         func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) },
		IDFunc: func() string {
			ids++
			if ids == 1 {
				return "booking-1"
			}
			return "evt-1"
		},
	})
	if err != nil {
		t.Fatalf("NewBookingService: %v", err)
	}
	return svc
}

func validBookingInput() BookingInput {
	return BookingInput{
		CustomerName:  "Maria Silva",
		CustomerPhone: "11988887777",
		PetName:       "Thor",
		Selection: Selection{
			PetType: domain.PetTypeCao,
			Size:    domain.SizeMedio,
			Service: domain.ServiceBanho,
			Coat:    domain.CoatLonga,
			Addons:  []string{"corteUnhas"},
		},
		RequestedDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateBookingSnapshotsEstimate(t *testing.T) {
	repo := &stubBookingRepository{}
	publisher := &stubEventPublisher{}
	svc := newTestBookingService(t, repo, publisher)

	result, err := svc.CreateBooking(context.Background(), validBookingInput())
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if result.Booking.EstimateBase != 66 {
		t.Fatalf("expected base 66, got %v", result.Booking.EstimateBase)
	}
	if result.Booking.EstimateTotal != 81 {
		t.Fatalf("expected total 81 with nail trim, got %v", result.Booking.EstimateTotal)
	}
	if len(repo.bookings) != 1 || repo.bookings[0].ID != "booking-1" {
		t.Fatalf("booking not persisted: %#v", repo.bookings)
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != EventBookingCreated {
		t.Fatalf("expected booking.created event, got %#v", publisher.events)
	}
	if publisher.events[0].Reference != "booking-1" {
		t.Fatalf("event must reference the booking, got %q", publisher.events[0].Reference)
	}

	if !strings.HasPrefix(result.WhatsAppURL, "https://wa.me/5511999990000?text=") {
		t.Fatalf("unexpected link %q", result.WhatsAppURL)
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(result.WhatsAppURL, "https://wa.me/5511999990000?text="))
	if err != nil {
		t.Fatalf("link text is not valid escaping: %v", err)
	}
	if !strings.Contains(decoded, "Pet: Thor") || !strings.Contains(decoded, "Valor estimado: R$ 81,00") {
		t.Fatalf("summary incomplete: %q", decoded)
	}
}

func TestCreateBookingValidatesContact(t *testing.T) {
	svc := newTestBookingService(t, &stubBookingRepository{}, nil)

	cases := []struct {
		name   string
		mutate func(*BookingInput)
	}{
		{"missing name", func(in *BookingInput) { in.CustomerName = " " }},
		{"missing phone", func(in *BookingInput) { in.CustomerPhone = "" }},
		{"missing pet", func(in *BookingInput) { in.PetName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validBookingInput()
			tc.mutate(&input)
			if _, err := svc.CreateBooking(context.Background(), input); !errors.Is(err, ErrBookingInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestCreateBookingRejectsUnpriceableSelection(t *testing.T) {
	repo := &stubBookingRepository{}
	svc := newTestBookingService(t, repo, nil)

	input := validBookingInput()
	input.Selection.Size = ""
	_, err := svc.CreateBooking(context.Background(), input)
	if !errors.Is(err, ErrBookingInvalidInput) {
		t.Fatalf("expected invalid input for missing size, got %v", err)
	}
	if !strings.Contains(strings.ToLower(err.Error()), "porte") {
		t.Fatalf("expected estimator message carried through, got %v", err)
	}
	if len(repo.bookings) != 0 {
		t.Fatalf("unpriceable booking must not be stored")
	}
}

func TestCreateBookingSurvivesPublishFailure(t *testing.T) {
	repo := &stubBookingRepository{}
	publisher := &stubEventPublisher{err: errors.New("broker down")}
	svc := newTestBookingService(t, repo, publisher)

	if _, err := svc.CreateBooking(context.Background(), validBookingInput()); err != nil {
		t.Fatalf("booking must not fail on publish errors, got %v", err)
	}
	if len(repo.bookings) != 1 {
		t.Fatalf("booking should still be stored")
	}
}

func TestListBookingsAppliesDefaultLimit(t *testing.T) {
	repo := &stubBookingRepository{}
	for i := 0; i < 3; i++ {
		repo.bookings = append(repo.bookings, domain.Booking{ID: "b"})
	}
	svc := newTestBookingService(t, repo, nil)

	bookings, err := svc.ListBookings(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("expected all bookings under default limit, got %d", len(bookings))
	}

	limited, err := svc.ListBookings(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListBookings limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit respected, got %d", len(limited))
	}
}
