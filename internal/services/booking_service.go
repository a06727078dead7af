package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/petshop-baronesa/api/internal/domain"
	"github.com/petshop-baronesa/api/internal/repositories"
)

var (
	// ErrBookingRepositoryMissing signals that the booking repository dependency is absent.
	ErrBookingRepositoryMissing = errors.New("booking service: booking repository is not configured")
	// ErrBookingPricingMissing signals that the pricing service dependency is absent.
	ErrBookingPricingMissing = errors.New("booking service: pricing service is not configured")
	// ErrBookingPhoneMissing signals that the store WhatsApp number is absent.
	ErrBookingPhoneMissing = errors.New("booking service: whatsapp phone is not configured")
	// ErrBookingInvalidInput marks validation failures on booking submissions.
	ErrBookingInvalidInput = errors.New("booking service: invalid input")
)

const defaultBookingListLimit = 100

// BookingServiceDeps groups constructor parameters for the booking service.
type BookingServiceDeps struct {
	Bookings repositories.BookingRepository
	Pricing  PricingService
	// WhatsAppPhone is the store number in international digits.
	WhatsAppPhone string
	Events        EventPublisher
	Errors        ErrorLogService
	Clock         func() time.Time
	IDFunc        func() string
}

type bookingService struct {
	bookings repositories.BookingRepository
	pricing  PricingService
	phone    string
	events   EventPublisher
	errlog   ErrorLogService
	clock    func() time.Time
	newID    func() string
}

// NewBookingService constructs the booking service with the supplied dependencies.
func NewBookingService(deps BookingServiceDeps) (BookingService, error) {
	if deps.Bookings == nil {
		return nil, ErrBookingRepositoryMissing
	}
	if deps.Pricing == nil {
		return nil, ErrBookingPricingMissing
	}
	phone := strings.TrimSpace(deps.WhatsAppPhone)
	if phone == "" {
		return nil, ErrBookingPhoneMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDFunc
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &bookingService{
		bookings: deps.Bookings,
		pricing:  deps.Pricing,
		phone:    phone,
		events:   deps.Events,
		errlog:   deps.Errors,
		clock:    func() time.Time { return clock().UTC() },
		newID:    newID,
	}, nil
}

// CreateBooking prices the selection, stores the request with the estimate
// captured at submission time and hands back a WhatsApp deep link. Later price
// table edits never rewrite a stored estimate.
func (s *bookingService) CreateBooking(ctx context.Context, input BookingInput) (BookingResult, error) {
	if err := validateBookingInput(input); err != nil {
		return BookingResult{}, err
	}

	estimate, err := s.pricing.EstimatePrice(ctx, input.Selection)
	if err != nil {
		var estimateErr *EstimateError
		if errors.As(err, &estimateErr) {
			return BookingResult{}, fmt.Errorf("%w: %s", ErrBookingInvalidInput, estimateErr.Error())
		}
		return BookingResult{}, err
	}

	now := s.clock()
	booking := domain.Booking{
		ID:            s.newID(),
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		PetName:       strings.TrimSpace(input.PetName),
		PetType:       input.Selection.PetType,
		PetSize:       input.Selection.Size,
		Service:       input.Selection.Service,
		Coat:          input.Selection.Coat,
		Addons:        append([]string(nil), input.Selection.Addons...),
		RequestedDate: input.RequestedDate,
		Notes:         strings.TrimSpace(input.Notes),
		EstimateBase:  estimate.Base,
		EstimateTotal: estimate.Total,
		CreatedAt:     now,
	}

	if err := s.bookings.Insert(ctx, booking); err != nil {
		s.record(ctx, "agendamentos.create", err)
		return BookingResult{}, err
	}

	summary := bookingSummary(booking, estimate)
	s.publish(ctx, StoreEvent{
		ID:        s.newID(),
		Type:      EventBookingCreated,
		Reference: booking.ID,
		Summary:   summary,
		Total:     estimate.Total,
		CreatedAt: now,
	})

	return BookingResult{
		Booking:     booking,
		WhatsAppURL: WhatsAppLink(s.phone, summary),
	}, nil
}

func (s *bookingService) ListBookings(ctx context.Context, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = defaultBookingListLimit
	}
	bookings, err := s.bookings.List(ctx, limit)
	if err != nil {
		s.record(ctx, "agendamentos.list", err)
		return nil, err
	}
	return bookings, nil
}

func (s *bookingService) publish(ctx context.Context, event StoreEvent) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishEvent(ctx, event); err != nil {
		s.record(ctx, "agendamentos.publish", err)
	}
}

func (s *bookingService) record(ctx context.Context, scope string, err error) {
	if s.errlog != nil {
		s.errlog.Record(ctx, scope, err)
	}
}

func validateBookingInput(input BookingInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return fmt.Errorf("%w: informe o nome do cliente", ErrBookingInvalidInput)
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return fmt.Errorf("%w: informe o telefone para contato", ErrBookingInvalidInput)
	}
	if strings.TrimSpace(input.PetName) == "" {
		return fmt.Errorf("%w: informe o nome do pet", ErrBookingInvalidInput)
	}
	return nil
}

func bookingSummary(booking domain.Booking, estimate Estimate) string {
	var b strings.Builder
	b.WriteString("Olá! Gostaria de agendar um serviço:\n\n")
	fmt.Fprintf(&b, "Cliente: %s\n", booking.CustomerName)
	fmt.Fprintf(&b, "Pet: %s\n", booking.PetName)
	fmt.Fprintf(&b, "Serviço: %s\n", booking.Service)
	if !booking.RequestedDate.IsZero() {
		fmt.Fprintf(&b, "Data desejada: %s\n", booking.RequestedDate.Format("02/01/2006"))
	}
	for _, addon := range estimate.Addons {
		fmt.Fprintf(&b, "Adicional: %s - %s\n", addon.Label, FormatReais(addon.Price))
	}
	if booking.Notes != "" {
		fmt.Fprintf(&b, "Observações: %s\n", booking.Notes)
	}
	fmt.Fprintf(&b, "\nValor estimado: %s", FormatReais(estimate.Total))
	return b.String()
}
